package repository

import (
	"context"
	"sync"
	"testing"

	"streameconomy/domain/entities"
	"streameconomy/domain/interfaces"
	"streameconomy/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressRepository_PointsAndTierSwap(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewProgressRepository(testDB.DB)
	ctx := context.Background()
	streamerID := testutil.InsertUser(t, testDB.DB, entities.UserRoleStreamer)
	viewerID := testutil.InsertUser(t, testDB.DB, entities.UserRoleViewer)
	bronze := testutil.InsertViewerTier(t, testDB.DB, streamerID, 0, "Bronze", 0, true)
	silver := testutil.InsertViewerTier(t, testDB.DB, streamerID, 1, "Silver", 1000, true)

	progress, err := repo.GetOrInitialize(ctx, viewerID, streamerID, &bronze.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), progress.Points)
	assert.True(t, progress.HasTierID(bronze.ID))

	progress, err = repo.AddPoints(ctx, viewerID, streamerID, 1200)
	require.NoError(t, err)
	assert.Equal(t, int64(1200), progress.Points)

	t.Run("stale expectation loses the swap", func(t *testing.T) {
		swapped, err := repo.CompareAndSwapTier(ctx, viewerID, streamerID, 1100, &bronze.ID, silver.ID)
		require.NoError(t, err)
		assert.False(t, swapped)
	})

	t.Run("current expectation wins the swap", func(t *testing.T) {
		swapped, err := repo.CompareAndSwapTier(ctx, viewerID, streamerID, 1200, &bronze.ID, silver.ID)
		require.NoError(t, err)
		assert.True(t, swapped)

		stored, err := repo.Get(ctx, viewerID, streamerID)
		require.NoError(t, err)
		assert.True(t, stored.HasTierID(silver.ID))
	})

	t.Run("guarded deduction", func(t *testing.T) {
		_, err := repo.DeductPoints(ctx, viewerID, streamerID, 5000)
		assert.ErrorIs(t, err, interfaces.ErrInsufficientPoints)

		after, err := repo.DeductPoints(ctx, viewerID, streamerID, 200)
		require.NoError(t, err)
		assert.Equal(t, int64(1000), after.Points)
	})
}

func TestProgressRepository_SwapFromUnsetTier(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewProgressRepository(testDB.DB)
	ctx := context.Background()
	streamerID := testutil.InsertUser(t, testDB.DB, entities.UserRoleStreamer)
	viewerID := testutil.InsertUser(t, testDB.DB, entities.UserRoleViewer)
	bronze := testutil.InsertViewerTier(t, testDB.DB, streamerID, 0, "Bronze", 0, true)

	_, err := repo.GetOrInitialize(ctx, viewerID, streamerID, nil)
	require.NoError(t, err)

	swapped, err := repo.CompareAndSwapTier(ctx, viewerID, streamerID, 0, nil, bronze.ID)
	require.NoError(t, err)
	assert.True(t, swapped)
}

func TestProgressRepository_ConcurrentIncrements(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewProgressRepository(testDB.DB)
	ctx := context.Background()
	streamerID := testutil.InsertUser(t, testDB.DB, entities.UserRoleStreamer)
	viewerID := testutil.InsertUser(t, testDB.DB, entities.UserRoleViewer)
	_, err := repo.GetOrInitialize(ctx, viewerID, streamerID, nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.AddPoints(ctx, viewerID, streamerID, 4)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	progress, err := repo.Get(ctx, viewerID, streamerID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), progress.Points)
}

func TestProgressRepository_ListByStreamerPages(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewProgressRepository(testDB.DB)
	ctx := context.Background()
	streamerID := testutil.InsertUser(t, testDB.DB, entities.UserRoleStreamer)
	otherStreamerID := testutil.InsertUser(t, testDB.DB, entities.UserRoleStreamer)

	var viewers []int64
	for i := 0; i < 5; i++ {
		viewerID := testutil.InsertUser(t, testDB.DB, entities.UserRoleViewer)
		viewers = append(viewers, viewerID)
		_, err := repo.GetOrInitialize(ctx, viewerID, streamerID, nil)
		require.NoError(t, err)
	}
	_, err := repo.GetOrInitialize(ctx, viewers[0], otherStreamerID, nil)
	require.NoError(t, err)

	firstPage, err := repo.ListByStreamer(ctx, streamerID, 0, 3)
	require.NoError(t, err)
	require.Len(t, firstPage, 3)

	secondPage, err := repo.ListByStreamer(ctx, streamerID, firstPage[2].ViewerID, 3)
	require.NoError(t, err)
	require.Len(t, secondPage, 2)

	var seen []int64
	for _, p := range append(firstPage, secondPage...) {
		assert.Equal(t, streamerID, p.StreamerID)
		seen = append(seen, p.ViewerID)
	}
	assert.ElementsMatch(t, viewers, seen)
}

func TestProgressRepository_ListStreamersWithStaleTiers(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewProgressRepository(testDB.DB)
	ctx := context.Background()

	healthyStreamer := testutil.InsertUser(t, testDB.DB, entities.UserRoleStreamer)
	staleStreamer := testutil.InsertUser(t, testDB.DB, entities.UserRoleStreamer)
	emptyCatalogStreamer := testutil.InsertUser(t, testDB.DB, entities.UserRoleStreamer)
	viewerID := testutil.InsertUser(t, testDB.DB, entities.UserRoleViewer)

	healthyTier := testutil.InsertViewerTier(t, testDB.DB, healthyStreamer, 0, "Bronze", 0, true)
	retiredTier := testutil.InsertViewerTier(t, testDB.DB, staleStreamer, 0, "Old", 0, false)
	testutil.InsertViewerTier(t, testDB.DB, staleStreamer, 1, "New", 0, true)

	_, err := repo.GetOrInitialize(ctx, viewerID, healthyStreamer, &healthyTier.ID)
	require.NoError(t, err)
	_, err = repo.GetOrInitialize(ctx, viewerID, staleStreamer, &retiredTier.ID)
	require.NoError(t, err)
	_, err = repo.GetOrInitialize(ctx, viewerID, emptyCatalogStreamer, nil)
	require.NoError(t, err)

	streamers, err := repo.ListStreamersWithStaleTiers(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []int64{staleStreamer}, streamers)
}
