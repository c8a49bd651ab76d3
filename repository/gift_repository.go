package repository

import (
	"context"
	"errors"
	"fmt"

	"streameconomy/database"
	"streameconomy/domain/entities"

	"github.com/jackc/pgx/v5"
)

const giftColumns = `id, streamer_id, name, coin_cost, points_awarded, active, created_at, updated_at`

// GiftRepository implements the GiftRepository interface
type GiftRepository struct {
	q queryable
}

// NewGiftRepository creates a new gift repository
func NewGiftRepository(db *database.DB) *GiftRepository {
	return &GiftRepository{q: db.Pool}
}

func newGiftRepository(tx queryable) *GiftRepository {
	return &GiftRepository{q: tx}
}

func scanGift(row pgx.Row) (*entities.Gift, error) {
	var gift entities.Gift
	err := row.Scan(
		&gift.ID,
		&gift.StreamerID,
		&gift.Name,
		&gift.CoinCost,
		&gift.PointsAwarded,
		&gift.Active,
		&gift.CreatedAt,
		&gift.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &gift, nil
}

// GetByID returns a gift or nil
func (r *GiftRepository) GetByID(ctx context.Context, id int64) (*entities.Gift, error) {
	query := `SELECT ` + giftColumns + ` FROM gifts WHERE id = $1`

	gift, err := scanGift(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get gift %d: %w", id, err)
	}
	return gift, nil
}

// ListByStreamer returns a streamer's catalog ordered by cost
func (r *GiftRepository) ListByStreamer(ctx context.Context, streamerID int64, activeOnly bool) ([]*entities.Gift, error) {
	query := `
		SELECT ` + giftColumns + `
		FROM gifts
		WHERE streamer_id = $1 AND (active OR NOT $2)
		ORDER BY coin_cost, id
	`

	rows, err := r.q.Query(ctx, query, streamerID, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list gifts of streamer %d: %w", streamerID, err)
	}
	defer rows.Close()

	var gifts []*entities.Gift
	for rows.Next() {
		gift, err := scanGift(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan gift: %w", err)
		}
		gifts = append(gifts, gift)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate gifts: %w", err)
	}

	return gifts, nil
}

// Create inserts a gift and fills its generated fields
func (r *GiftRepository) Create(ctx context.Context, gift *entities.Gift) error {
	query := `
		INSERT INTO gifts (streamer_id, name, coin_cost, points_awarded, active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		gift.StreamerID,
		gift.Name,
		gift.CoinCost,
		gift.PointsAwarded,
		gift.Active,
	).Scan(&gift.ID, &gift.CreatedAt, &gift.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create gift %q for streamer %d: %w", gift.Name, gift.StreamerID, err)
	}
	return nil
}

// Update persists the mutable gift fields
func (r *GiftRepository) Update(ctx context.Context, gift *entities.Gift) error {
	query := `
		UPDATE gifts
		SET name = $2, coin_cost = $3, points_awarded = $4, active = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.q.QueryRow(ctx, query,
		gift.ID,
		gift.Name,
		gift.CoinCost,
		gift.PointsAwarded,
		gift.Active,
	).Scan(&gift.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("gift %d not found", gift.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to update gift %d: %w", gift.ID, err)
	}
	return nil
}
