package entities

import "time"

// StreamerProfile tracks cumulative airtime and the global streamer tier
type StreamerProfile struct {
	UserID         int64     `db:"user_id"`
	AirtimeMinutes int64     `db:"airtime_minutes"`
	TierID         *int64    `db:"tier_id"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// HasTierID reports whether the stored tier is tierID
func (p *StreamerProfile) HasTierID(tierID int64) bool {
	return p.TierID != nil && *p.TierID == tierID
}
