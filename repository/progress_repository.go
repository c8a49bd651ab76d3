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

const progressColumns = `viewer_id, streamer_id, points, tier_id, created_at, updated_at`

// ProgressRepository implements the ProgressRepository interface
type ProgressRepository struct {
	q queryable
}

// NewProgressRepository creates a new progress repository
func NewProgressRepository(db *database.DB) *ProgressRepository {
	return &ProgressRepository{q: db.Pool}
}

// newProgressRepository creates a new progress repository with a transaction
func newProgressRepository(tx queryable) *ProgressRepository {
	return &ProgressRepository{q: tx}
}

func scanProgress(row pgx.Row) (*entities.ViewerProgress, error) {
	var progress entities.ViewerProgress
	err := row.Scan(
		&progress.ViewerID,
		&progress.StreamerID,
		&progress.Points,
		&progress.TierID,
		&progress.CreatedAt,
		&progress.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

// GetOrInitialize returns the progress row, creating it with baselineTierID if absent
func (r *ProgressRepository) GetOrInitialize(ctx context.Context, viewerID, streamerID int64, baselineTierID *int64) (*entities.ViewerProgress, error) {
	insert := `
		INSERT INTO viewer_progress (viewer_id, streamer_id, tier_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (viewer_id, streamer_id) DO NOTHING
	`
	if _, err := r.q.Exec(ctx, insert, viewerID, streamerID, baselineTierID); err != nil {
		return nil, fmt.Errorf("failed to initialize progress for viewer %d on streamer %d: %w", viewerID, streamerID, err)
	}

	progress, err := r.Get(ctx, viewerID, streamerID)
	if err != nil {
		return nil, err
	}
	if progress == nil {
		return nil, fmt.Errorf("progress for viewer %d on streamer %d vanished after initialization", viewerID, streamerID)
	}
	return progress, nil
}

// Get returns the progress row or nil
func (r *ProgressRepository) Get(ctx context.Context, viewerID, streamerID int64) (*entities.ViewerProgress, error) {
	query := `SELECT ` + progressColumns + ` FROM viewer_progress WHERE viewer_id = $1 AND streamer_id = $2`

	progress, err := scanProgress(r.q.QueryRow(ctx, query, viewerID, streamerID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get progress for viewer %d on streamer %d: %w", viewerID, streamerID, err)
	}
	return progress, nil
}

// AddPoints increments the point total and returns the updated row
func (r *ProgressRepository) AddPoints(ctx context.Context, viewerID, streamerID int64, delta int64) (*entities.ViewerProgress, error) {
	if delta <= 0 {
		return nil, fmt.Errorf("point increment must be positive, got %d", delta)
	}

	query := `
		UPDATE viewer_progress
		SET points = points + $3, updated_at = NOW()
		WHERE viewer_id = $1 AND streamer_id = $2
		RETURNING ` + progressColumns

	progress, err := scanProgress(r.q.QueryRow(ctx, query, viewerID, streamerID, delta))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("progress for viewer %d on streamer %d not initialized", viewerID, streamerID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to add %d points for viewer %d on streamer %d: %w", delta, viewerID, streamerID, err)
	}
	return progress, nil
}

// DeductPoints decrements only if the total covers delta
func (r *ProgressRepository) DeductPoints(ctx context.Context, viewerID, streamerID int64, delta int64) (*entities.ViewerProgress, error) {
	if delta <= 0 {
		return nil, fmt.Errorf("point deduction must be positive, got %d", delta)
	}

	query := `
		UPDATE viewer_progress
		SET points = points - $3, updated_at = NOW()
		WHERE viewer_id = $1 AND streamer_id = $2 AND points >= $3
		RETURNING ` + progressColumns

	progress, err := scanProgress(r.q.QueryRow(ctx, query, viewerID, streamerID, delta))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, interfaces.ErrInsufficientPoints
	}
	if err != nil {
		return nil, fmt.Errorf("failed to deduct %d points for viewer %d on streamer %d: %w", delta, viewerID, streamerID, err)
	}
	return progress, nil
}

// CompareAndSwapTier writes newTierID only if points and tier are unchanged
// since the caller read them
func (r *ProgressRepository) CompareAndSwapTier(ctx context.Context, viewerID, streamerID int64, expectedPoints int64, expectedTierID *int64, newTierID int64) (bool, error) {
	query := `
		UPDATE viewer_progress
		SET tier_id = $5, updated_at = NOW()
		WHERE viewer_id = $1 AND streamer_id = $2
		  AND points = $3
		  AND tier_id IS NOT DISTINCT FROM $4
	`

	tag, err := r.q.Exec(ctx, query, viewerID, streamerID, expectedPoints, expectedTierID, newTierID)
	if err != nil {
		return false, fmt.Errorf("failed to swap tier for viewer %d on streamer %d: %w", viewerID, streamerID, err)
	}
	return tag.RowsAffected() == 1, nil
}

// ListByStreamer pages through a streamer's audience ordered by viewer id
func (r *ProgressRepository) ListByStreamer(ctx context.Context, streamerID int64, afterViewerID int64, limit int) ([]*entities.ViewerProgress, error) {
	query := `
		SELECT ` + progressColumns + `
		FROM viewer_progress
		WHERE streamer_id = $1 AND viewer_id > $2
		ORDER BY viewer_id
		LIMIT $3
	`

	rows, err := r.q.Query(ctx, query, streamerID, afterViewerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list audience of streamer %d: %w", streamerID, err)
	}
	defer rows.Close()

	var audience []*entities.ViewerProgress
	for rows.Next() {
		progress, err := scanProgress(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan progress: %w", err)
		}
		audience = append(audience, progress)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audience: %w", err)
	}

	return audience, nil
}

// ListStreamersWithStaleTiers returns streamers whose audience holds a tier
// reference that is missing or inactive while the streamer has active tiers
func (r *ProgressRepository) ListStreamersWithStaleTiers(ctx context.Context, limit int) ([]int64, error) {
	query := `
		SELECT DISTINCT vp.streamer_id
		FROM viewer_progress vp
		LEFT JOIN viewer_tiers vt ON vt.id = vp.tier_id
		WHERE (vt.id IS NULL OR NOT vt.active)
		  AND EXISTS (
			SELECT 1 FROM viewer_tiers active_tier
			WHERE active_tier.streamer_id = vp.streamer_id AND active_tier.active
		  )
		ORDER BY vp.streamer_id
		LIMIT $1
	`

	rows, err := r.q.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list streamers with stale tiers: %w", err)
	}
	defer rows.Close()

	var streamerIDs []int64
	for rows.Next() {
		var streamerID int64
		if err := rows.Scan(&streamerID); err != nil {
			return nil, fmt.Errorf("failed to scan streamer id: %w", err)
		}
		streamerIDs = append(streamerIDs, streamerID)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate streamers with stale tiers: %w", err)
	}

	return streamerIDs, nil
}
