package repository

import (
	"context"
	"fmt"

	"streameconomy/database"
	"streameconomy/domain/entities"
)

// StreamerTierRepository reads the global streamer tier list
type StreamerTierRepository struct {
	q queryable
}

// NewStreamerTierRepository creates a new streamer tier repository
func NewStreamerTierRepository(db *database.DB) *StreamerTierRepository {
	return &StreamerTierRepository{q: db.Pool}
}

func newStreamerTierRepository(tx queryable) *StreamerTierRepository {
	return &StreamerTierRepository{q: tx}
}

// ListAll returns every streamer tier sorted by rank
func (r *StreamerTierRepository) ListAll(ctx context.Context) ([]entities.StreamerTier, error) {
	query := `
		SELECT id, rank, name, threshold_minutes, created_at
		FROM streamer_tiers
		ORDER BY rank
	`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list streamer tiers: %w", err)
	}
	defer rows.Close()

	var tiers []entities.StreamerTier
	for rows.Next() {
		var tier entities.StreamerTier
		if err := rows.Scan(&tier.ID, &tier.Rank, &tier.Name, &tier.ThresholdMinutes, &tier.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan streamer tier: %w", err)
		}
		tiers = append(tiers, tier)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate streamer tiers: %w", err)
	}

	return tiers, nil
}
