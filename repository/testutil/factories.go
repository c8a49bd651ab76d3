package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"streameconomy/database"
	"streameconomy/domain/entities"

	"github.com/stretchr/testify/require"
)

var usernameSeq atomic.Int64

// UniqueUsername returns a username that is valid and unused within the test binary
func UniqueUsername(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, usernameSeq.Add(1))
}

// InsertUser creates a user row directly and returns its id
func InsertUser(t *testing.T, db *database.DB, role entities.UserRole) int64 {
	t.Helper()

	var id int64
	err := db.QueryRow(context.Background(),
		`INSERT INTO users (username, role) VALUES ($1, $2) RETURNING id`,
		UniqueUsername(string(role)), role,
	).Scan(&id)
	require.NoError(t, err)
	return id
}

// InsertViewerTier creates a tier row directly and returns it
func InsertViewerTier(t *testing.T, db *database.DB, streamerID int64, rank int, name string, threshold int64, active bool) entities.ViewerTier {
	t.Helper()

	tier := CreateTestViewerTier(streamerID, rank, name, threshold)
	tier.Active = active
	err := db.QueryRow(context.Background(),
		`INSERT INTO viewer_tiers (streamer_id, rank, name, threshold, active)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at, updated_at`,
		tier.StreamerID, tier.Rank, tier.Name, tier.Threshold, tier.Active,
	).Scan(&tier.ID, &tier.CreatedAt, &tier.UpdatedAt)
	require.NoError(t, err)
	return *tier
}

// CreateTestViewerTier builds an active tier
func CreateTestViewerTier(streamerID int64, rank int, name string, threshold int64) *entities.ViewerTier {
	return &entities.ViewerTier{
		StreamerID: streamerID,
		Rank:       rank,
		Name:       name,
		Threshold:  threshold,
		Active:     true,
	}
}

// CreateTestGift builds an active gift
func CreateTestGift(streamerID int64, name string, cost, points int64) *entities.Gift {
	return &entities.Gift{
		StreamerID:    streamerID,
		Name:          name,
		CoinCost:      cost,
		PointsAwarded: points,
		Active:        true,
	}
}

// CreateTestRechargeRecord builds a recharge record with the given key
func CreateTestRechargeRecord(viewerID int64, key string, amount int64) *entities.RechargeRecord {
	return &entities.RechargeRecord{
		ViewerID:       viewerID,
		Amount:         amount,
		Currency:       "USD",
		PaymentRail:    "card",
		IdempotencyKey: key,
		ReceiptCode:    "RC-" + key,
		BalanceAfter:   amount,
	}
}

// CreateTestBalanceHistory creates a test balance history entry
func CreateTestBalanceHistory(userID int64, transactionType entities.TransactionType) *entities.BalanceHistory {
	return entities.NewBalanceHistory(userID, 90, -10, transactionType, map[string]any{
		"test": true,
	})
}
