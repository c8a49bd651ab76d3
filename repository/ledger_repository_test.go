package repository

import (
	"context"
	"testing"

	"streameconomy/domain/entities"
	"streameconomy/domain/interfaces"
	"streameconomy/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRechargeRepository_IdempotencyKey(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewRechargeRepository(testDB.DB)
	ctx := context.Background()
	viewerID := testutil.InsertUser(t, testDB.DB, entities.UserRoleViewer)

	missing, err := repo.GetByIdempotencyKey(ctx, "k-1")
	require.NoError(t, err)
	assert.Nil(t, missing)

	record := testutil.CreateTestRechargeRecord(viewerID, "k-1", 500)
	require.NoError(t, repo.Create(ctx, record))
	assert.NotZero(t, record.ID)

	duplicate := testutil.CreateTestRechargeRecord(viewerID, "k-1", 500)
	duplicate.ReceiptCode = "RC-OTHER"
	err = repo.Create(ctx, duplicate)
	assert.ErrorIs(t, err, interfaces.ErrDuplicateIdempotencyKey)

	stored, err := repo.GetByIdempotencyKey(ctx, "k-1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, record.ID, stored.ID)
	assert.Equal(t, int64(500), stored.Amount)
}

func TestBalanceHistoryRepository(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewBalanceHistoryRepository(testDB.DB)
	ctx := context.Background()
	userID := testutil.InsertUser(t, testDB.DB, entities.UserRoleViewer)

	first := testutil.CreateTestBalanceHistory(userID, entities.TransactionTypeGiftSent)
	first.RelateTo(entities.RelatedTypeGift, 42)
	require.NoError(t, repo.Record(ctx, first))

	second := entities.NewBalanceHistory(userID, 590, 500, entities.TransactionTypeRecharge, nil)
	require.NoError(t, repo.Record(ctx, second))

	histories, err := repo.GetByUser(ctx, userID, 10)
	require.NoError(t, err)
	require.Len(t, histories, 2)

	assert.Equal(t, second.ID, histories[0].ID, "newest first")
	assert.Equal(t, first.ID, histories[1].ID)
	require.NotNil(t, histories[1].RelatedType)
	assert.Equal(t, entities.RelatedTypeGift, *histories[1].RelatedType)
	assert.Equal(t, int64(42), *histories[1].RelatedID)
	assert.Equal(t, true, histories[1].TransactionMetadata["test"])

	limited, err := repo.GetByUser(ctx, userID, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestWagerRecordRepository(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewWagerRecordRepository(testDB.DB)
	ctx := context.Background()
	streamerID := testutil.InsertUser(t, testDB.DB, entities.UserRoleStreamer)
	viewerID := testutil.InsertUser(t, testDB.DB, entities.UserRoleViewer)

	record := &entities.WagerRecord{
		ViewerID:        viewerID,
		StreamerID:      streamerID,
		StakePoints:     100,
		SectorIndex:     2,
		CoinsWon:        50,
		BalanceAfter:    50,
		PointsAfter:     400,
		CorrelationCode: "W-1",
	}
	require.NoError(t, repo.Create(ctx, record))

	records, err := repo.ListByViewer(ctx, viewerID, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, record.ID, records[0].ID)
	assert.Equal(t, 2, records[0].SectorIndex)
}

func TestNotificationRepository(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewNotificationRepository(testDB.DB)
	ctx := context.Background()
	userID := testutil.InsertUser(t, testDB.DB, entities.UserRoleViewer)
	otherID := testutil.InsertUser(t, testDB.DB, entities.UserRoleViewer)

	levelUp := &entities.Notification{
		UserID:  userID,
		Type:    entities.NotificationTypeLevelUpViewer,
		Message: "You reached Silver",
		Payload: map[string]any{"tierName": "Silver"},
	}
	recharge := &entities.Notification{
		UserID:  userID,
		Type:    entities.NotificationTypeCoinsRecharged,
		Message: "500 coins added",
	}
	require.NoError(t, repo.Create(ctx, levelUp))
	require.NoError(t, repo.Create(ctx, recharge))

	count, err := repo.CountUnread(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	t.Run("list newest first with payload", func(t *testing.T) {
		list, err := repo.ListByUser(ctx, userID, false, 10)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, recharge.ID, list[0].ID)
		assert.Equal(t, "Silver", list[1].Payload["tierName"])
		assert.NotNil(t, list[0].Payload)
	})

	t.Run("mark read is scoped to the owner", func(t *testing.T) {
		matched, err := repo.MarkRead(ctx, otherID, levelUp.ID)
		require.NoError(t, err)
		assert.False(t, matched)

		matched, err = repo.MarkRead(ctx, userID, levelUp.ID)
		require.NoError(t, err)
		assert.True(t, matched)

		unread, err := repo.ListByUser(ctx, userID, true, 10)
		require.NoError(t, err)
		require.Len(t, unread, 1)
		assert.Equal(t, recharge.ID, unread[0].ID)
	})

	t.Run("mark all read", func(t *testing.T) {
		updated, err := repo.MarkAllRead(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), updated)

		count, err := repo.CountUnread(ctx, userID)
		require.NoError(t, err)
		assert.Zero(t, count)
	})
}

func TestUserRepository(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewUserRepository(testDB.DB)
	ctx := context.Background()

	user, err := repo.Create(ctx, "night_owl", entities.UserRoleViewer)
	require.NoError(t, err)
	assert.Equal(t, entities.UserStatusActive, user.Status)

	_, err = repo.Create(ctx, "night_owl", entities.UserRoleStreamer)
	assert.ErrorIs(t, err, interfaces.ErrDuplicateUsername)

	require.NoError(t, repo.UpdateRole(ctx, user.ID, entities.UserRoleStreamer))
	stored, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsStreamer())

	missing, err := repo.GetByID(ctx, 999999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}
