package services

import (
	"context"
	"strings"
	"testing"

	"streameconomy/domain"
	"streameconomy/domain/entities"
	"streameconomy/domain/events"
	"streameconomy/domain/interfaces"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestRechargeService(mocks *TestMocks) interfaces.RechargeService {
	return NewRechargeService(mocks.UserRepo, mocks.BalanceRepo, mocks.RechargeRepo, mocks.BalanceHistoryRepo,
		mocks.Services().Notifications, mocks.EventPublisher)
}

func validRecharge() interfaces.RechargeRequest {
	return interfaces.RechargeRequest{
		ViewerID:       TestViewerID,
		Amount:         500,
		Currency:       "usd",
		PaymentRail:    "card",
		IdempotencyKey: "order-1",
	}
}

func TestRechargeService_Recharge(t *testing.T) {
	ctx := context.Background()
	mocks := NewTestMocks()
	helper := NewMockHelper(mocks)
	svc := newTestRechargeService(mocks)

	helper.ExpectUserLookup(newViewer(TestViewerID))
	mocks.RechargeRepo.On("GetByIdempotencyKey", ctx, "order-1").Return(nil, nil)
	mocks.BalanceRepo.On("GetOrInitialize", ctx, TestViewerID).Return(&entities.ViewerBalance{UserID: TestViewerID, Balance: 100}, nil)
	mocks.BalanceRepo.On("Credit", ctx, TestViewerID, int64(500)).Return(int64(600), nil).Once()
	mocks.RechargeRepo.On("Create", ctx, mock.MatchedBy(func(r *entities.RechargeRecord) bool {
		return r.Currency == "USD" && r.BalanceAfter == 600 && strings.HasPrefix(r.ReceiptCode, "RC-")
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*entities.RechargeRecord).ID = 77
	}).Return(nil)
	helper.ExpectBalanceHistoryRecordSimple(TestViewerID, 600, entities.TransactionTypeRecharge)
	helper.ExpectNotification(TestViewerID, entities.NotificationTypeCoinsRecharged)
	helper.ExpectEventPublish(events.EventTypeCoinsRecharged).Once()

	record, err := svc.Recharge(ctx, validRecharge())
	require.NoError(t, err)
	assert.Equal(t, int64(77), record.ID)
	assert.Equal(t, int64(600), record.BalanceAfter)
	mocks.AssertAllExpectations(t)
	mocks.ProgressRepo.AssertNotCalled(t, "AddPoints", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRechargeService_DuplicateKeyIsConflict(t *testing.T) {
	ctx := context.Background()
	mocks := NewTestMocks()
	helper := NewMockHelper(mocks)
	svc := newTestRechargeService(mocks)

	helper.ExpectUserLookup(newViewer(TestViewerID))
	mocks.RechargeRepo.On("GetByIdempotencyKey", ctx, "order-1").
		Return(&entities.RechargeRecord{ID: 1, IdempotencyKey: "order-1", ReceiptCode: "RC-1"}, nil)

	_, err := svc.Recharge(ctx, validRecharge())
	assert.ErrorIs(t, err, domain.ErrConflict)
	mocks.BalanceRepo.AssertNotCalled(t, "Credit", mock.Anything, mock.Anything, mock.Anything)
}

func TestRechargeService_ConcurrentDuplicateIsConflict(t *testing.T) {
	ctx := context.Background()
	mocks := NewTestMocks()
	helper := NewMockHelper(mocks)
	svc := newTestRechargeService(mocks)

	helper.ExpectUserLookup(newViewer(TestViewerID))
	mocks.RechargeRepo.On("GetByIdempotencyKey", ctx, "order-1").Return(nil, nil)
	mocks.BalanceRepo.On("GetOrInitialize", ctx, TestViewerID).Return(&entities.ViewerBalance{UserID: TestViewerID}, nil)
	mocks.BalanceRepo.On("Credit", ctx, TestViewerID, int64(500)).Return(int64(500), nil)
	mocks.RechargeRepo.On("Create", ctx, mock.Anything).Return(interfaces.ErrDuplicateIdempotencyKey)

	_, err := svc.Recharge(ctx, validRecharge())
	assert.ErrorIs(t, err, domain.ErrConflict)
	mocks.BalanceHistoryRepo.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
}

func TestRechargeService_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *interfaces.RechargeRequest)
	}{
		{name: "zero amount", mutate: func(r *interfaces.RechargeRequest) { r.Amount = 0 }},
		{name: "negative amount", mutate: func(r *interfaces.RechargeRequest) { r.Amount = -5 }},
		{name: "missing key", mutate: func(r *interfaces.RechargeRequest) { r.IdempotencyKey = "   " }},
		{name: "oversized key", mutate: func(r *interfaces.RechargeRequest) { r.IdempotencyKey = strings.Repeat("k", 129) }},
		{name: "missing currency", mutate: func(r *interfaces.RechargeRequest) { r.Currency = "" }},
		{name: "missing rail", mutate: func(r *interfaces.RechargeRequest) { r.PaymentRail = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mocks := NewTestMocks()
			svc := newTestRechargeService(mocks)

			request := validRecharge()
			tt.mutate(&request)
			_, err := svc.Recharge(context.Background(), request)
			assert.ErrorIs(t, err, domain.ErrValidation)
			mocks.AssertAllExpectations(t)
		})
	}
}
