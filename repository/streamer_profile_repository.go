package repository

import (
	"context"
	"errors"
	"fmt"

	"streameconomy/database"
	"streameconomy/domain/entities"

	"github.com/jackc/pgx/v5"
)

const profileColumns = `user_id, airtime_minutes, tier_id, created_at, updated_at`

// StreamerProfileRepository implements the StreamerProfileRepository interface
type StreamerProfileRepository struct {
	q queryable
}

// NewStreamerProfileRepository creates a new streamer profile repository
func NewStreamerProfileRepository(db *database.DB) *StreamerProfileRepository {
	return &StreamerProfileRepository{q: db.Pool}
}

func newStreamerProfileRepository(tx queryable) *StreamerProfileRepository {
	return &StreamerProfileRepository{q: tx}
}

func scanProfile(row pgx.Row) (*entities.StreamerProfile, error) {
	var profile entities.StreamerProfile
	err := row.Scan(
		&profile.UserID,
		&profile.AirtimeMinutes,
		&profile.TierID,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// GetOrInitialize returns the profile, creating it with baselineTierID if absent
func (r *StreamerProfileRepository) GetOrInitialize(ctx context.Context, userID int64, baselineTierID *int64) (*entities.StreamerProfile, error) {
	insert := `
		INSERT INTO streamer_profiles (user_id, tier_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO NOTHING
	`
	if _, err := r.q.Exec(ctx, insert, userID, baselineTierID); err != nil {
		return nil, fmt.Errorf("failed to initialize streamer profile %d: %w", userID, err)
	}

	profile, err := r.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, fmt.Errorf("streamer profile %d vanished after initialization", userID)
	}
	return profile, nil
}

// Get returns the profile or nil
func (r *StreamerProfileRepository) Get(ctx context.Context, userID int64) (*entities.StreamerProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM streamer_profiles WHERE user_id = $1`

	profile, err := scanProfile(r.q.QueryRow(ctx, query, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get streamer profile %d: %w", userID, err)
	}
	return profile, nil
}

// AddMinutes increments cumulative airtime and returns the updated profile
func (r *StreamerProfileRepository) AddMinutes(ctx context.Context, userID int64, minutes int64) (*entities.StreamerProfile, error) {
	if minutes <= 0 {
		return nil, fmt.Errorf("airtime increment must be positive, got %d", minutes)
	}

	query := `
		UPDATE streamer_profiles
		SET airtime_minutes = airtime_minutes + $2, updated_at = NOW()
		WHERE user_id = $1
		RETURNING ` + profileColumns

	profile, err := scanProfile(r.q.QueryRow(ctx, query, userID, minutes))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("streamer profile %d not initialized", userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to add %d minutes to streamer %d: %w", minutes, userID, err)
	}
	return profile, nil
}

// CompareAndSwapTier writes newTierID only if minutes and tier are unchanged
func (r *StreamerProfileRepository) CompareAndSwapTier(ctx context.Context, userID int64, expectedMinutes int64, expectedTierID *int64, newTierID int64) (bool, error) {
	query := `
		UPDATE streamer_profiles
		SET tier_id = $4, updated_at = NOW()
		WHERE user_id = $1
		  AND airtime_minutes = $2
		  AND tier_id IS NOT DISTINCT FROM $3
	`

	tag, err := r.q.Exec(ctx, query, userID, expectedMinutes, expectedTierID, newTierID)
	if err != nil {
		return false, fmt.Errorf("failed to swap tier of streamer %d: %w", userID, err)
	}
	return tag.RowsAffected() == 1, nil
}
