package entities

// TransactionType represents the type of balance change
type TransactionType string

const (
	TransactionTypeInitial     TransactionType = "initial"
	TransactionTypeRecharge    TransactionType = "recharge"
	TransactionTypeGiftSent    TransactionType = "gift_sent"
	TransactionTypeRouletteWin TransactionType = "roulette_win"
)

// IsCredit returns true if the transaction adds coins
func (tt TransactionType) IsCredit() bool {
	return tt == TransactionTypeRecharge || tt == TransactionTypeRouletteWin
}

// IsDebit returns true if the transaction removes coins
func (tt TransactionType) IsDebit() bool {
	return tt == TransactionTypeGiftSent
}

// String returns the string representation of the transaction type
func (tt TransactionType) String() string {
	return string(tt)
}
