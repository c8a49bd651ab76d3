package entities

import "time"

// WagerRecord is the immutable audit row of one roulette spin
type WagerRecord struct {
	ID              int64     `db:"id"`
	ViewerID        int64     `db:"viewer_id"`
	StreamerID      int64     `db:"streamer_id"`
	StakePoints     int64     `db:"stake_points"`
	SectorIndex     int       `db:"sector_index"`
	CoinsWon        int64     `db:"coins_won"`
	BalanceAfter    int64     `db:"balance_after"`
	PointsAfter     int64     `db:"points_after"`
	CorrelationCode string    `db:"correlation_code"`
	CreatedAt       time.Time `db:"created_at"`
}
