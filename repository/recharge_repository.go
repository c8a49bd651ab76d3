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

// RechargeRepository implements the RechargeRepository interface
type RechargeRepository struct {
	q queryable
}

// NewRechargeRepository creates a new recharge repository
func NewRechargeRepository(db *database.DB) *RechargeRepository {
	return &RechargeRepository{q: db.Pool}
}

func newRechargeRepository(tx queryable) *RechargeRepository {
	return &RechargeRepository{q: tx}
}

// Create inserts the record. A reused idempotency key maps to ErrDuplicateIdempotencyKey.
func (r *RechargeRepository) Create(ctx context.Context, record *entities.RechargeRecord) error {
	query := `
		INSERT INTO recharge_records
		(viewer_id, amount, currency, payment_rail, idempotency_key, receipt_code, balance_after)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		record.ViewerID,
		record.Amount,
		record.Currency,
		record.PaymentRail,
		record.IdempotencyKey,
		record.ReceiptCode,
		record.BalanceAfter,
	).Scan(&record.ID, &record.CreatedAt)
	if err != nil {
		if database.IsUniqueViolation(err, "recharge_records_idempotency_key_key") {
			return interfaces.ErrDuplicateIdempotencyKey
		}
		return fmt.Errorf("failed to create recharge record for viewer %d: %w", record.ViewerID, err)
	}
	return nil
}

// GetByIdempotencyKey returns the record or nil
func (r *RechargeRepository) GetByIdempotencyKey(ctx context.Context, key string) (*entities.RechargeRecord, error) {
	query := `
		SELECT id, viewer_id, amount, currency, payment_rail, idempotency_key, receipt_code, balance_after, created_at
		FROM recharge_records
		WHERE idempotency_key = $1
	`

	var record entities.RechargeRecord
	err := r.q.QueryRow(ctx, query, key).Scan(
		&record.ID,
		&record.ViewerID,
		&record.Amount,
		&record.Currency,
		&record.PaymentRail,
		&record.IdempotencyKey,
		&record.ReceiptCode,
		&record.BalanceAfter,
		&record.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get recharge record by idempotency key: %w", err)
	}
	return &record, nil
}
