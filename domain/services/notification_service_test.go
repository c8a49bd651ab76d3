package services

import (
	"context"
	"errors"
	"testing"

	"streameconomy/domain"
	"streameconomy/domain/entities"
	"streameconomy/domain/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestNotificationService_EmitPersistsBeforePublishing(t *testing.T) {
	ctx := context.Background()
	mocks := NewTestMocks()
	svc := NewNotificationService(mocks.NotificationRepo, mocks.EventPublisher)

	var persisted bool
	mocks.NotificationRepo.On("Create", ctx, mock.Anything).Run(func(args mock.Arguments) {
		args.Get(1).(*entities.Notification).ID = 9
		persisted = true
	}).Return(nil)
	mocks.EventPublisher.On("Publish", mock.MatchedBy(func(e events.Event) bool {
		created, ok := e.(events.NotificationCreatedEvent)
		return ok && persisted && created.NotificationID == 9 && created.UserID == TestViewerID
	})).Return(nil).Once()

	notification, err := svc.Emit(ctx, TestViewerID, entities.NotificationTypeGiftReceived, "hello", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(9), notification.ID)
	assert.NotNil(t, notification.Payload)
	mocks.AssertAllExpectations(t)
}

func TestNotificationService_EmitFailureSkipsPublish(t *testing.T) {
	ctx := context.Background()
	mocks := NewTestMocks()
	svc := NewNotificationService(mocks.NotificationRepo, mocks.EventPublisher)

	mocks.NotificationRepo.On("Create", ctx, mock.Anything).Return(errors.New("insert failed"))

	_, err := svc.Emit(ctx, TestViewerID, entities.NotificationTypeGiftReceived, "hello", nil)
	assert.Error(t, err)
	mocks.EventPublisher.AssertNotCalled(t, "Publish", mock.Anything)
}

func TestNotificationService_MarkRead(t *testing.T) {
	ctx := context.Background()
	mocks := NewTestMocks()
	svc := NewNotificationService(mocks.NotificationRepo, mocks.EventPublisher)

	mocks.NotificationRepo.On("MarkRead", ctx, TestViewerID, int64(1)).Return(true, nil)
	mocks.NotificationRepo.On("MarkRead", ctx, TestViewerID, int64(2)).Return(false, nil)

	assert.NoError(t, svc.MarkRead(ctx, TestViewerID, 1))
	assert.ErrorIs(t, svc.MarkRead(ctx, TestViewerID, 2), domain.ErrNotFound)
}

func TestNotificationService_ListClampsLimit(t *testing.T) {
	ctx := context.Background()
	mocks := NewTestMocks()
	svc := NewNotificationService(mocks.NotificationRepo, mocks.EventPublisher)

	mocks.NotificationRepo.On("ListByUser", ctx, TestViewerID, true, defaultNotificationLimit).Return([]*entities.Notification{}, nil)
	mocks.NotificationRepo.On("ListByUser", ctx, TestViewerID, false, maxNotificationLimit).Return([]*entities.Notification{}, nil)

	_, err := svc.List(ctx, TestViewerID, true, 0)
	require.NoError(t, err)
	_, err = svc.List(ctx, TestViewerID, false, 10_000)
	require.NoError(t, err)
	mocks.AssertAllExpectations(t)
}
