package entities

import (
	"errors"
	"time"
)

// RelatedType names the record a balance change points at
type RelatedType string

const (
	RelatedTypeGift     RelatedType = "gift"
	RelatedTypeRecharge RelatedType = "recharge"
	RelatedTypeWager    RelatedType = "wager"
)

// BalanceHistory is one entry of the coin ledger
type BalanceHistory struct {
	ID                  int64           `db:"id"`
	UserID              int64           `db:"user_id"`
	BalanceBefore       int64           `db:"balance_before"`
	BalanceAfter        int64           `db:"balance_after"`
	ChangeAmount        int64           `db:"change_amount"`
	TransactionType     TransactionType `db:"transaction_type"`
	TransactionMetadata map[string]any  `db:"transaction_metadata"`
	RelatedID           *int64          `db:"related_id"`
	RelatedType         *RelatedType    `db:"related_type"`
	CreatedAt           time.Time       `db:"created_at"`
}

// NewBalanceHistory derives a ledger entry from the balance after an atomic
// change of changeAmount.
func NewBalanceHistory(userID, balanceAfter, changeAmount int64, transactionType TransactionType, metadata map[string]any) *BalanceHistory {
	return &BalanceHistory{
		UserID:              userID,
		BalanceBefore:       balanceAfter - changeAmount,
		BalanceAfter:        balanceAfter,
		ChangeAmount:        changeAmount,
		TransactionType:     transactionType,
		TransactionMetadata: metadata,
	}
}

// RelateTo links the entry to the record that caused it
func (bh *BalanceHistory) RelateTo(relatedType RelatedType, relatedID int64) {
	bh.RelatedType = &relatedType
	bh.RelatedID = &relatedID
}

// ValidateTransaction performs basic validation on the entry
func (bh *BalanceHistory) ValidateTransaction() error {
	if bh.ChangeAmount == 0 {
		return errors.New("change amount cannot be zero")
	}
	if bh.BalanceAfter != bh.BalanceBefore+bh.ChangeAmount {
		return errors.New("balance calculation is inconsistent")
	}
	if bh.BalanceAfter < 0 {
		return errors.New("balance cannot go negative")
	}
	return nil
}
