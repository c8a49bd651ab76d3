package utils

import (
	"context"
	"errors"
	"testing"

	"streameconomy/domain/entities"
	"streameconomy/domain/events"
	"streameconomy/domain/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// TestRecordBalanceChange tests that balance changes are recorded and events are published
func TestRecordBalanceChange(t *testing.T) {
	ctx := context.Background()

	mockBalanceHistoryRepo := new(testhelpers.MockBalanceHistoryRepository)
	mockEventPublisher := new(testhelpers.MockEventPublisher)

	mockBalanceHistoryRepo.On("Record", ctx, mock.Anything).Return(nil)
	mockEventPublisher.On("Publish", mock.MatchedBy(func(event interface{}) bool {
		e, ok := event.(events.BalanceChangeEvent)
		return ok && e.OldBalance == 50 && e.NewBalance == 40 && e.ChangeAmount == -10
	})).Return(nil)

	history := entities.NewBalanceHistory(123, 40, -10, entities.TransactionTypeGiftSent, nil)

	err := RecordBalanceChange(ctx, mockBalanceHistoryRepo, mockEventPublisher, history)
	assert.NoError(t, err)

	mockBalanceHistoryRepo.AssertExpectations(t)
	mockEventPublisher.AssertExpectations(t)
}

func TestRecordBalanceChange_RejectsInconsistentEntry(t *testing.T) {
	ctx := context.Background()

	mockBalanceHistoryRepo := new(testhelpers.MockBalanceHistoryRepository)
	mockEventPublisher := new(testhelpers.MockEventPublisher)

	history := &entities.BalanceHistory{
		UserID:          123,
		BalanceBefore:   100,
		BalanceAfter:    150,
		ChangeAmount:    10,
		TransactionType: entities.TransactionTypeRecharge,
	}

	err := RecordBalanceChange(ctx, mockBalanceHistoryRepo, mockEventPublisher, history)
	assert.Error(t, err)
	mockBalanceHistoryRepo.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
	mockEventPublisher.AssertNotCalled(t, "Publish", mock.Anything)
}

func TestRecordBalanceChange_RecordFailure(t *testing.T) {
	ctx := context.Background()

	mockBalanceHistoryRepo := new(testhelpers.MockBalanceHistoryRepository)
	mockEventPublisher := new(testhelpers.MockEventPublisher)

	mockBalanceHistoryRepo.On("Record", ctx, mock.Anything).Return(errors.New("db down"))

	history := entities.NewBalanceHistory(123, 600, 500, entities.TransactionTypeRecharge, nil)

	err := RecordBalanceChange(ctx, mockBalanceHistoryRepo, mockEventPublisher, history)
	assert.ErrorContains(t, err, "failed to record balance history")
	mockEventPublisher.AssertNotCalled(t, "Publish", mock.Anything)
}

func TestRecordBalanceChange_PublishFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()

	mockBalanceHistoryRepo := new(testhelpers.MockBalanceHistoryRepository)
	mockEventPublisher := new(testhelpers.MockEventPublisher)

	mockBalanceHistoryRepo.On("Record", ctx, mock.Anything).Return(nil)
	mockEventPublisher.On("Publish", mock.Anything).Return(errors.New("buffer closed"))

	history := entities.NewBalanceHistory(123, 250, 250, entities.TransactionTypeRouletteWin, nil)

	assert.NoError(t, RecordBalanceChange(ctx, mockBalanceHistoryRepo, mockEventPublisher, history))
}
