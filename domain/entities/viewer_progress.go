package entities

import "time"

// ViewerProgress is a viewer's point total and tier scoped to one streamer
type ViewerProgress struct {
	ViewerID   int64     `db:"viewer_id"`
	StreamerID int64     `db:"streamer_id"`
	Points     int64     `db:"points"`
	TierID     *int64    `db:"tier_id"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

// HasTier reports whether a tier has been assigned
func (p *ViewerProgress) HasTier() bool {
	return p.TierID != nil
}

// HasTierID reports whether the stored tier is tierID
func (p *ViewerProgress) HasTierID(tierID int64) bool {
	return p.TierID != nil && *p.TierID == tierID
}
