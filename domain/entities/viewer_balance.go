package entities

import "time"

// ViewerBalance is a user's spendable coin total
type ViewerBalance struct {
	UserID    int64     `db:"user_id"`
	Balance   int64     `db:"balance"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// CanAfford checks if the balance covers amount
func (b *ViewerBalance) CanAfford(amount int64) bool {
	return b.Balance >= amount
}
