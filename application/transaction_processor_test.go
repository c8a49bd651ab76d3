package application

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"streameconomy/application/dto"
	"streameconomy/config"
	"streameconomy/domain"
	"streameconomy/domain/entities"
	"streameconomy/domain/interfaces"
	"streameconomy/domain/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// stubUnitOfWork hands out repository mocks and counts transaction calls
type stubUnitOfWork struct {
	mocks     *services.TestMocks
	beginErr  error
	commitErr error

	begins    int
	commits   int
	rollbacks int
}

func (u *stubUnitOfWork) Begin(ctx context.Context) error {
	u.begins++
	return u.beginErr
}

func (u *stubUnitOfWork) Commit() error {
	if u.commitErr != nil {
		return u.commitErr
	}
	u.commits++
	return nil
}

func (u *stubUnitOfWork) Rollback() error {
	u.rollbacks++
	return nil
}

func (u *stubUnitOfWork) UserRepository() interfaces.UserRepository { return u.mocks.UserRepo }
func (u *stubUnitOfWork) BalanceRepository() interfaces.BalanceRepository {
	return u.mocks.BalanceRepo
}
func (u *stubUnitOfWork) ProgressRepository() interfaces.ProgressRepository {
	return u.mocks.ProgressRepo
}
func (u *stubUnitOfWork) ViewerTierRepository() interfaces.ViewerTierRepository {
	return u.mocks.ViewerTierRepo
}
func (u *stubUnitOfWork) StreamerTierRepository() interfaces.StreamerTierRepository {
	return u.mocks.StreamerTierRepo
}
func (u *stubUnitOfWork) StreamerProfileRepository() interfaces.StreamerProfileRepository {
	return u.mocks.ProfileRepo
}
func (u *stubUnitOfWork) GiftRepository() interfaces.GiftRepository { return u.mocks.GiftRepo }
func (u *stubUnitOfWork) NotificationRepository() interfaces.NotificationRepository {
	return u.mocks.NotificationRepo
}
func (u *stubUnitOfWork) RechargeRepository() interfaces.RechargeRepository {
	return u.mocks.RechargeRepo
}
func (u *stubUnitOfWork) WagerRecordRepository() interfaces.WagerRecordRepository {
	return u.mocks.WagerRepo
}
func (u *stubUnitOfWork) BalanceHistoryRepository() interfaces.BalanceHistoryRepository {
	return u.mocks.BalanceHistoryRepo
}
func (u *stubUnitOfWork) EventBus() interfaces.EventPublisher { return u.mocks.EventPublisher }

type stubUnitOfWorkFactory struct {
	uow *stubUnitOfWork
}

func (f *stubUnitOfWorkFactory) Create() UnitOfWork {
	return f.uow
}

func newStubProcessor(t *testing.T, cfg *config.Config) (*TransactionProcessor, *stubUnitOfWork) {
	t.Helper()

	uow := &stubUnitOfWork{mocks: services.NewTestMocks()}
	processor, err := NewTransactionProcessor(&stubUnitOfWorkFactory{uow: uow}, cfg, func(n int) int { return 0 })
	require.NoError(t, err)
	return processor, uow
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind domain.ErrorKind
	}{
		{"domain error kept", domain.NewNotFoundError("gift 1 not found"), domain.KindNotFound},
		{"wrapped domain error kept", fmt.Errorf("failed to send gift: %w", domain.NewInsufficientFundsError("no coins")), domain.KindInsufficientFunds},
		{"deadline is transient", fmt.Errorf("failed to get balance: %w", context.DeadlineExceeded), domain.KindTransientStore},
		{"cancel is transient", context.Canceled, domain.KindTransientStore},
		{"anything else is internal", errors.New("boom"), domain.KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, domain.KindOf(classifyError(tt.err)))
		})
	}

	assert.NoError(t, classifyError(nil))
}

func TestNewTransactionProcessor_InvalidSectors(t *testing.T) {
	cfg := config.NewTestConfig()
	cfg.RouletteSectors = "not-a-wheel"

	_, err := NewTransactionProcessor(&stubUnitOfWorkFactory{}, cfg, nil)
	assert.Error(t, err)
}

func TestTransactionProcessor_ValidationFailureRollsBack(t *testing.T) {
	processor, uow := newStubProcessor(t, config.NewTestConfig())

	_, err := processor.SendGift(context.Background(), services.TestViewerID, services.TestStreamerID, services.TestGiftID, 0)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrValidation))
	assert.Equal(t, 1, uow.begins)
	assert.Equal(t, 0, uow.commits)
	assert.Equal(t, 1, uow.rollbacks)
	uow.mocks.AssertAllExpectations(t)
}

func TestTransactionProcessor_BeginTimeoutIsTransient(t *testing.T) {
	processor, uow := newStubProcessor(t, config.NewTestConfig())
	uow.beginErr = context.DeadlineExceeded

	_, err := processor.GetBalance(context.Background(), services.TestViewerID)

	require.Error(t, err)
	assert.Equal(t, domain.KindTransientStore, domain.KindOf(err))
	assert.Equal(t, 0, uow.commits)
}

func TestTransactionProcessor_StoreFailureIsTransient(t *testing.T) {
	processor, uow := newStubProcessor(t, config.NewTestConfig())
	uow.mocks.UserRepo.On("GetByID", mock.Anything, services.TestViewerID).Return(nil, context.DeadlineExceeded)

	_, err := processor.GetUser(context.Background(), services.TestViewerID)

	require.Error(t, err)
	assert.Equal(t, domain.KindTransientStore, domain.KindOf(err))
	assert.Equal(t, 0, uow.commits)
	assert.Equal(t, 1, uow.rollbacks)
}

func TestTransactionProcessor_CommitFailureIsReported(t *testing.T) {
	processor, uow := newStubProcessor(t, config.NewTestConfig())
	uow.commitErr = errors.New("connection reset")
	viewer := &entities.User{ID: services.TestViewerID, Username: "viewer", Role: entities.UserRoleViewer, Status: entities.UserStatusActive}
	uow.mocks.UserRepo.On("GetByID", mock.Anything, services.TestViewerID).Return(viewer, nil)

	_, err := processor.GetUser(context.Background(), services.TestViewerID)

	require.Error(t, err)
	assert.Equal(t, domain.KindInternal, domain.KindOf(err))
}

func TestTransactionProcessor_RecalculateAudiencePages(t *testing.T) {
	cfg := config.NewTestConfig()
	cfg.CascadeBatchSize = 2
	processor, uow := newStubProcessor(t, cfg)

	bronzeID := services.TestBronzeID
	tiers := []entities.ViewerTier{
		{ID: services.TestBronzeID, StreamerID: services.TestStreamerID, Rank: 1, Name: "Bronze", Threshold: 0, Active: true},
		{ID: services.TestSilverID, StreamerID: services.TestStreamerID, Rank: 2, Name: "Silver", Threshold: 1000, Active: true},
	}
	uow.mocks.ViewerTierRepo.On("ListActiveByStreamer", mock.Anything, services.TestStreamerID).Return(tiers, nil)
	uow.mocks.ProgressRepo.On("ListByStreamer", mock.Anything, services.TestStreamerID, int64(0), 2).Return([]*entities.ViewerProgress{
		{ViewerID: services.TestViewerID, StreamerID: services.TestStreamerID, Points: 10, TierID: &bronzeID},
		{ViewerID: services.TestViewer2ID, StreamerID: services.TestStreamerID, Points: 20, TierID: &bronzeID},
	}, nil).Once()
	uow.mocks.ProgressRepo.On("ListByStreamer", mock.Anything, services.TestStreamerID, services.TestViewer2ID, 2).Return([]*entities.ViewerProgress{}, nil).Once()

	result, err := processor.RecalculateAudience(context.Background(), services.TestStreamerID)

	require.NoError(t, err)
	assert.Equal(t, 2, result.Batches)
	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 0, result.Changed)
	assert.Equal(t, 2, uow.commits)
	uow.mocks.AssertAllExpectations(t)
}

func TestTransactionProcessor_RecalculateAudienceStopsOnFailure(t *testing.T) {
	processor, uow := newStubProcessor(t, config.NewTestConfig())
	uow.mocks.ViewerTierRepo.On("ListActiveByStreamer", mock.Anything, services.TestStreamerID).Return(nil, context.DeadlineExceeded)

	_, err := processor.RecalculateAudience(context.Background(), services.TestStreamerID)

	require.Error(t, err)
	assert.Equal(t, domain.KindTransientStore, domain.KindOf(err))
	assert.Equal(t, 0, uow.commits)
}

func TestCollaboratorHandler_DropsRejectedEvents(t *testing.T) {
	processor, uow := newStubProcessor(t, config.NewTestConfig())
	handler := NewCollaboratorHandler(processor)

	err := handler.HandleChatMessage(context.Background(), dto.ChatMessageSentDTO{
		ViewerID:   services.TestViewerID,
		StreamerID: services.TestStreamerID,
		Text:       "   ",
	})

	assert.NoError(t, err)
	assert.Equal(t, 0, uow.commits)

	err = handler.HandleSessionEnded(context.Background(), dto.SessionEndedDTO{
		StreamerID:     services.TestStreamerID,
		ElapsedMinutes: -5,
	})

	assert.NoError(t, err)
}

func TestCollaboratorHandler_ReturnsTransientFailures(t *testing.T) {
	processor, uow := newStubProcessor(t, config.NewTestConfig())
	uow.mocks.UserRepo.On("GetByID", mock.Anything, services.TestViewerID).Return(nil, context.DeadlineExceeded)
	handler := NewCollaboratorHandler(processor)

	err := handler.HandleChatMessage(context.Background(), dto.ChatMessageSentDTO{
		ViewerID:   services.TestViewerID,
		StreamerID: services.TestStreamerID,
		Text:       "gg",
	})

	require.Error(t, err)
	assert.Equal(t, domain.KindTransientStore, domain.KindOf(err))
}
