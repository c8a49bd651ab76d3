package repository

import (
	"context"
	"fmt"

	"streameconomy/database"
	"streameconomy/domain/entities"
)

// WagerRecordRepository implements the WagerRecordRepository interface
type WagerRecordRepository struct {
	q queryable
}

// NewWagerRecordRepository creates a new wager record repository
func NewWagerRecordRepository(db *database.DB) *WagerRecordRepository {
	return &WagerRecordRepository{q: db.Pool}
}

func newWagerRecordRepository(tx queryable) *WagerRecordRepository {
	return &WagerRecordRepository{q: tx}
}

// Create inserts a spin record
func (r *WagerRecordRepository) Create(ctx context.Context, record *entities.WagerRecord) error {
	query := `
		INSERT INTO wager_records
		(viewer_id, streamer_id, stake_points, sector_index, coins_won, balance_after, points_after, correlation_code)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		record.ViewerID,
		record.StreamerID,
		record.StakePoints,
		record.SectorIndex,
		record.CoinsWon,
		record.BalanceAfter,
		record.PointsAfter,
		record.CorrelationCode,
	).Scan(&record.ID, &record.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create wager record for viewer %d: %w", record.ViewerID, err)
	}
	return nil
}

// ListByViewer returns a viewer's spins, newest first
func (r *WagerRecordRepository) ListByViewer(ctx context.Context, viewerID int64, limit int) ([]*entities.WagerRecord, error) {
	query := `
		SELECT id, viewer_id, streamer_id, stake_points, sector_index, coins_won,
		       balance_after, points_after, correlation_code, created_at
		FROM wager_records
		WHERE viewer_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, viewerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list wagers of viewer %d: %w", viewerID, err)
	}
	defer rows.Close()

	var records []*entities.WagerRecord
	for rows.Next() {
		var record entities.WagerRecord
		err := rows.Scan(
			&record.ID,
			&record.ViewerID,
			&record.StreamerID,
			&record.StakePoints,
			&record.SectorIndex,
			&record.CoinsWon,
			&record.BalanceAfter,
			&record.PointsAfter,
			&record.CorrelationCode,
			&record.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan wager record: %w", err)
		}
		records = append(records, &record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate wager records: %w", err)
	}

	return records, nil
}
