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

func TestBalanceRepository_GetOrInitialize(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewBalanceRepository(testDB.DB)
	ctx := context.Background()
	userID := testutil.InsertUser(t, testDB.DB, entities.UserRoleViewer)

	t.Run("absent balance reads nil", func(t *testing.T) {
		balance, err := repo.Get(ctx, userID)
		require.NoError(t, err)
		assert.Nil(t, balance)
	})

	t.Run("initializes at zero and is idempotent", func(t *testing.T) {
		first, err := repo.GetOrInitialize(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, int64(0), first.Balance)

		_, err = repo.Credit(ctx, userID, 25)
		require.NoError(t, err)

		second, err := repo.GetOrInitialize(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, int64(25), second.Balance)
	})
}

func TestBalanceRepository_CreditDebit(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewBalanceRepository(testDB.DB)
	ctx := context.Background()
	userID := testutil.InsertUser(t, testDB.DB, entities.UserRoleViewer)
	_, err := repo.GetOrInitialize(ctx, userID)
	require.NoError(t, err)

	balance, err := repo.Credit(ctx, userID, 50)
	require.NoError(t, err)
	assert.Equal(t, int64(50), balance)

	balance, err = repo.Debit(ctx, userID, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(40), balance)

	t.Run("guarded debit leaves balance untouched", func(t *testing.T) {
		_, err := repo.Debit(ctx, userID, 41)
		assert.ErrorIs(t, err, interfaces.ErrInsufficientBalance)

		current, err := repo.Get(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, int64(40), current.Balance)
	})

	t.Run("non-positive amounts rejected", func(t *testing.T) {
		_, err := repo.Credit(ctx, userID, 0)
		assert.Error(t, err)
		_, err = repo.Debit(ctx, userID, -5)
		assert.Error(t, err)
	})
}

func TestBalanceRepository_ConcurrentCreditsAreNotLost(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewBalanceRepository(testDB.DB)
	ctx := context.Background()
	userID := testutil.InsertUser(t, testDB.DB, entities.UserRoleViewer)
	_, err := repo.GetOrInitialize(ctx, userID)
	require.NoError(t, err)

	const workers = 20
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Credit(ctx, userID, 5)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	balance, err := repo.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(workers*5), balance.Balance)
}

func TestBalanceRepository_ConcurrentDebitsNeverOverdraw(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewBalanceRepository(testDB.DB)
	ctx := context.Background()
	userID := testutil.InsertUser(t, testDB.DB, entities.UserRoleViewer)
	_, err := repo.GetOrInitialize(ctx, userID)
	require.NoError(t, err)
	_, err = repo.Credit(ctx, userID, 100)
	require.NoError(t, err)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Debit(ctx, userID, 30)
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, interfaces.ErrInsufficientBalance)
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, succeeded)
	balance, err := repo.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), balance.Balance)
}
