package repository

import (
	"context"
	"errors"
	"fmt"

	"streameconomy/database"
	"streameconomy/domain/entities"
	"streameconomy/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

// BalanceRepository implements the BalanceRepository interface. Mutations
// are single statements so concurrent credits and debits never lose updates.
type BalanceRepository struct {
	q queryable
}

// NewBalanceRepository creates a new balance repository
func NewBalanceRepository(db *database.DB) *BalanceRepository {
	return &BalanceRepository{q: db.Pool}
}

// newBalanceRepository creates a new balance repository with a transaction
func newBalanceRepository(tx queryable) *BalanceRepository {
	return &BalanceRepository{q: tx}
}

// GetOrInitialize returns the balance row, creating it at zero if absent
func (r *BalanceRepository) GetOrInitialize(ctx context.Context, userID int64) (*entities.ViewerBalance, error) {
	insert := `
		INSERT INTO viewer_balances (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING
	`
	if _, err := r.q.Exec(ctx, insert, userID); err != nil {
		return nil, fmt.Errorf("failed to initialize balance for user %d: %w", userID, err)
	}

	balance, err := r.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if balance == nil {
		return nil, fmt.Errorf("balance for user %d vanished after initialization", userID)
	}
	return balance, nil
}

// Get returns the balance row or nil
func (r *BalanceRepository) Get(ctx context.Context, userID int64) (*entities.ViewerBalance, error) {
	query := `SELECT user_id, balance, created_at, updated_at FROM viewer_balances WHERE user_id = $1`

	var balance entities.ViewerBalance
	err := r.q.QueryRow(ctx, query, userID).Scan(
		&balance.UserID,
		&balance.Balance,
		&balance.CreatedAt,
		&balance.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get balance for user %d: %w", userID, err)
	}
	return &balance, nil
}

// Credit adds amount and returns the new balance
func (r *BalanceRepository) Credit(ctx context.Context, userID int64, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("credit amount must be positive, got %d", amount)
	}

	query := `
		UPDATE viewer_balances
		SET balance = balance + $2, updated_at = NOW()
		WHERE user_id = $1
		RETURNING balance
	`

	var newBalance int64
	err := r.q.QueryRow(ctx, query, userID, amount).Scan(&newBalance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("balance for user %d not initialized", userID)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to credit %d coins to user %d: %w", amount, userID, err)
	}
	return newBalance, nil
}

// Debit removes amount only if the balance covers it
func (r *BalanceRepository) Debit(ctx context.Context, userID int64, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("debit amount must be positive, got %d", amount)
	}

	query := `
		UPDATE viewer_balances
		SET balance = balance - $2, updated_at = NOW()
		WHERE user_id = $1 AND balance >= $2
		RETURNING balance
	`

	var newBalance int64
	err := r.q.QueryRow(ctx, query, userID, amount).Scan(&newBalance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, interfaces.ErrInsufficientBalance
	}
	if err != nil {
		return 0, fmt.Errorf("failed to debit %d coins from user %d: %w", amount, userID, err)
	}
	return newBalance, nil
}
