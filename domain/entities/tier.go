package entities

import (
	"errors"
	"fmt"
	"time"
)

// Tier is a named rank with an activation threshold over a monotonic
// resource (points for viewers, minutes for streamers).
type Tier interface {
	TierID() int64
	TierRank() int
	TierName() string
	TierThreshold() int64
}

// ViewerTier is a streamer-authored level over a viewer's point total
type ViewerTier struct {
	ID         int64     `db:"id"`
	StreamerID int64     `db:"streamer_id"`
	Rank       int       `db:"rank"`
	Name       string    `db:"name"`
	Threshold  int64     `db:"threshold"`
	Active     bool      `db:"active"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

func (t ViewerTier) TierID() int64 { return t.ID }
func (t ViewerTier) TierRank() int { return t.Rank }
func (t ViewerTier) TierName() string { return t.Name }
func (t ViewerTier) TierThreshold() int64 { return t.Threshold }

// StreamerTier is a global level over cumulative airtime minutes
type StreamerTier struct {
	ID               int64     `db:"id"`
	Rank             int       `db:"rank"`
	Name             string    `db:"name"`
	ThresholdMinutes int64     `db:"threshold_minutes"`
	CreatedAt        time.Time `db:"created_at"`
}

func (t StreamerTier) TierID() int64 { return t.ID }
func (t StreamerTier) TierRank() int { return t.Rank }
func (t StreamerTier) TierName() string { return t.Name }
func (t StreamerTier) TierThreshold() int64 { return t.ThresholdMinutes }

var (
	ErrBaselineThreshold = errors.New("the lowest tier must have a threshold of 0")
	ErrTierOrder         = errors.New("tier thresholds must not decrease as rank increases")
	ErrDuplicateTierRank = errors.New("tier ranks must be unique")
)

// ValidateTierOrder checks that tiers sorted by rank have unique ranks,
// a zero baseline threshold and non-decreasing thresholds.
func ValidateTierOrder[T Tier](tiers []T) error {
	for i, tier := range tiers {
		if i == 0 {
			if tier.TierThreshold() != 0 {
				return ErrBaselineThreshold
			}
			continue
		}

		prev := tiers[i-1]
		if tier.TierRank() == prev.TierRank() {
			return fmt.Errorf("%w: rank %d", ErrDuplicateTierRank, tier.TierRank())
		}
		if tier.TierThreshold() < prev.TierThreshold() {
			return fmt.Errorf("%w: %s (%d) is below %s (%d)", ErrTierOrder,
				tier.TierName(), tier.TierThreshold(), prev.TierName(), prev.TierThreshold())
		}
	}
	return nil
}
