package entities

import "time"

// RechargeRecord is the immutable audit row of a coin purchase
type RechargeRecord struct {
	ID             int64     `db:"id"`
	ViewerID       int64     `db:"viewer_id"`
	Amount         int64     `db:"amount"`
	Currency       string    `db:"currency"`
	PaymentRail    string    `db:"payment_rail"`
	IdempotencyKey string    `db:"idempotency_key"`
	ReceiptCode    string    `db:"receipt_code"`
	BalanceAfter   int64     `db:"balance_after"`
	CreatedAt      time.Time `db:"created_at"`
}
