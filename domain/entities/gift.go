package entities

import (
	"errors"
	"math"
	"time"
)

// ErrGiftTotalOverflow is returned when a gift total does not fit in int64
var ErrGiftTotalOverflow = errors.New("gift total is too large")

// Gift is a streamer-authored catalog entry viewers buy with coins
type Gift struct {
	ID            int64     `db:"id"`
	StreamerID    int64     `db:"streamer_id"`
	Name          string    `db:"name"`
	CoinCost      int64     `db:"coin_cost"`
	PointsAwarded int64     `db:"points_awarded"`
	Active        bool      `db:"active"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

// IsAvailableFrom reports whether the gift can be sent to streamerID
func (g *Gift) IsAvailableFrom(streamerID int64) bool {
	return g.Active && g.StreamerID == streamerID
}

// TotalCost returns the coin cost of quantity gifts
func (g *Gift) TotalCost(quantity int64) (int64, error) {
	return multiplyTotal(g.CoinCost, quantity)
}

// TotalPoints returns the points awarded for quantity gifts
func (g *Gift) TotalPoints(quantity int64) (int64, error) {
	return multiplyTotal(g.PointsAwarded, quantity)
}

func multiplyTotal(unit, quantity int64) (int64, error) {
	if unit < 0 || quantity < 0 {
		return 0, ErrGiftTotalOverflow
	}
	if unit != 0 && quantity > math.MaxInt64/unit {
		return 0, ErrGiftTotalOverflow
	}
	return unit * quantity, nil
}
