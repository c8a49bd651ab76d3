package repository

import (
	"context"
	"testing"

	"streameconomy/domain/entities"
	"streameconomy/domain/events"
	"streameconomy/domain/testhelpers"
	"streameconomy/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestUnitOfWork_CommitFlushesEvents(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()
	userID := testutil.InsertUser(t, testDB.DB, entities.UserRoleViewer)

	publisher := new(testhelpers.MockTransactionalEventPublisher)
	publisher.On("Publish", mock.AnythingOfType("events.BalanceChangeEvent")).Return(nil)
	publisher.On("Flush", mock.Anything).Return(nil).Once()

	uow := CreateTestUnitOfWork(testDB.DB, publisher)
	require.NoError(t, uow.Begin(ctx))

	_, err := uow.BalanceRepository().GetOrInitialize(ctx, userID)
	require.NoError(t, err)
	_, err = uow.BalanceRepository().Credit(ctx, userID, 75)
	require.NoError(t, err)
	require.NoError(t, uow.EventBus().Publish(events.BalanceChangeEvent{UserID: userID, NewBalance: 75, ChangeAmount: 75}))

	require.NoError(t, uow.Commit())
	require.NoError(t, uow.Rollback(), "rollback after commit is a no-op")

	balance, err := NewBalanceRepository(testDB.DB).Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(75), balance.Balance)
	publisher.AssertExpectations(t)
	publisher.AssertNotCalled(t, "Discard")
}

func TestUnitOfWork_RollbackDiscardsEvents(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()
	userID := testutil.InsertUser(t, testDB.DB, entities.UserRoleViewer)

	publisher := new(testhelpers.MockTransactionalEventPublisher)
	publisher.On("Discard").Return().Once()

	uow := CreateTestUnitOfWork(testDB.DB, publisher)
	require.NoError(t, uow.Begin(ctx))

	_, err := uow.BalanceRepository().GetOrInitialize(ctx, userID)
	require.NoError(t, err)
	_, err = uow.BalanceRepository().Credit(ctx, userID, 75)
	require.NoError(t, err)

	require.NoError(t, uow.Rollback())

	balance, err := NewBalanceRepository(testDB.DB).Get(ctx, userID)
	require.NoError(t, err)
	assert.Nil(t, balance)
	publisher.AssertExpectations(t)
	publisher.AssertNotCalled(t, "Flush", mock.Anything)
}

func TestUnitOfWork_RepositoriesRequireBegin(t *testing.T) {
	uow := NewUnitOfWorkFactory(nil).CreateWithPublisher(nil)
	assert.Panics(t, func() { uow.UserRepository() })
	assert.Error(t, uow.Commit())
	assert.NoError(t, uow.Rollback())
}
