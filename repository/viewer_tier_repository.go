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

const viewerTierColumns = `id, streamer_id, rank, name, threshold, active, created_at, updated_at`

// ViewerTierRepository implements the ViewerTierRepository interface
type ViewerTierRepository struct {
	q queryable
}

// NewViewerTierRepository creates a new viewer tier repository
func NewViewerTierRepository(db *database.DB) *ViewerTierRepository {
	return &ViewerTierRepository{q: db.Pool}
}

// newViewerTierRepository creates a new viewer tier repository with a transaction
func newViewerTierRepository(tx queryable) *ViewerTierRepository {
	return &ViewerTierRepository{q: tx}
}

func scanViewerTier(row pgx.Row, tier *entities.ViewerTier) error {
	return row.Scan(
		&tier.ID,
		&tier.StreamerID,
		&tier.Rank,
		&tier.Name,
		&tier.Threshold,
		&tier.Active,
		&tier.CreatedAt,
		&tier.UpdatedAt,
	)
}

// ListActiveByStreamer returns active tiers sorted by rank
func (r *ViewerTierRepository) ListActiveByStreamer(ctx context.Context, streamerID int64) ([]entities.ViewerTier, error) {
	query := `
		SELECT ` + viewerTierColumns + `
		FROM viewer_tiers
		WHERE streamer_id = $1 AND active
		ORDER BY rank
	`
	return r.list(ctx, query, streamerID)
}

// ListByStreamer returns every tier, active or not, sorted by rank
func (r *ViewerTierRepository) ListByStreamer(ctx context.Context, streamerID int64) ([]entities.ViewerTier, error) {
	query := `
		SELECT ` + viewerTierColumns + `
		FROM viewer_tiers
		WHERE streamer_id = $1
		ORDER BY rank
	`
	return r.list(ctx, query, streamerID)
}

func (r *ViewerTierRepository) list(ctx context.Context, query string, streamerID int64) ([]entities.ViewerTier, error) {
	rows, err := r.q.Query(ctx, query, streamerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tiers of streamer %d: %w", streamerID, err)
	}
	defer rows.Close()

	var tiers []entities.ViewerTier
	for rows.Next() {
		var tier entities.ViewerTier
		if err := scanViewerTier(rows, &tier); err != nil {
			return nil, fmt.Errorf("failed to scan viewer tier: %w", err)
		}
		tiers = append(tiers, tier)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate viewer tiers: %w", err)
	}

	return tiers, nil
}

// GetByID returns a tier or nil
func (r *ViewerTierRepository) GetByID(ctx context.Context, id int64) (*entities.ViewerTier, error) {
	query := `SELECT ` + viewerTierColumns + ` FROM viewer_tiers WHERE id = $1`

	var tier entities.ViewerTier
	err := scanViewerTier(r.q.QueryRow(ctx, query, id), &tier)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get viewer tier %d: %w", id, err)
	}
	return &tier, nil
}

// Create inserts a tier and fills its generated fields
func (r *ViewerTierRepository) Create(ctx context.Context, tier *entities.ViewerTier) error {
	query := `
		INSERT INTO viewer_tiers (streamer_id, rank, name, threshold, active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		tier.StreamerID,
		tier.Rank,
		tier.Name,
		tier.Threshold,
		tier.Active,
	).Scan(&tier.ID, &tier.CreatedAt, &tier.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err, "viewer_tiers_streamer_rank_key") {
			return interfaces.ErrDuplicateTierRank
		}
		return fmt.Errorf("failed to create tier %q for streamer %d: %w", tier.Name, tier.StreamerID, err)
	}
	return nil
}

// Update persists name, threshold and active flag
func (r *ViewerTierRepository) Update(ctx context.Context, tier *entities.ViewerTier) error {
	query := `
		UPDATE viewer_tiers
		SET name = $2, threshold = $3, active = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.q.QueryRow(ctx, query, tier.ID, tier.Name, tier.Threshold, tier.Active).Scan(&tier.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("viewer tier %d not found", tier.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to update viewer tier %d: %w", tier.ID, err)
	}
	return nil
}

// LockCatalog takes a row lock on the streamer's account. It only holds
// inside a transaction. FOR NO KEY UPDATE leaves foreign key checks from
// other writers unblocked.
func (r *ViewerTierRepository) LockCatalog(ctx context.Context, streamerID int64) error {
	query := `SELECT id FROM users WHERE id = $1 FOR NO KEY UPDATE`

	var id int64
	err := r.q.QueryRow(ctx, query, streamerID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to lock tier catalog of streamer %d: %w", streamerID, err)
	}
	return nil
}
