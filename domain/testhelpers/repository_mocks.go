package testhelpers

import (
	"context"

	"streameconomy/domain/entities"
	"streameconomy/domain/events"

	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*entities.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, username string, role entities.UserRole) (*entities.User, error) {
	args := m.Called(ctx, username, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

func (m *MockUserRepository) UpdateRole(ctx context.Context, id int64, role entities.UserRole) error {
	args := m.Called(ctx, id, role)
	return args.Error(0)
}

// MockBalanceRepository is a mock implementation of BalanceRepository
type MockBalanceRepository struct {
	mock.Mock
}

func (m *MockBalanceRepository) GetOrInitialize(ctx context.Context, userID int64) (*entities.ViewerBalance, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.ViewerBalance), args.Error(1)
}

func (m *MockBalanceRepository) Get(ctx context.Context, userID int64) (*entities.ViewerBalance, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.ViewerBalance), args.Error(1)
}

func (m *MockBalanceRepository) Credit(ctx context.Context, userID int64, amount int64) (int64, error) {
	args := m.Called(ctx, userID, amount)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBalanceRepository) Debit(ctx context.Context, userID int64, amount int64) (int64, error) {
	args := m.Called(ctx, userID, amount)
	return args.Get(0).(int64), args.Error(1)
}

// MockProgressRepository is a mock implementation of ProgressRepository
type MockProgressRepository struct {
	mock.Mock
}

func (m *MockProgressRepository) GetOrInitialize(ctx context.Context, viewerID, streamerID int64, baselineTierID *int64) (*entities.ViewerProgress, error) {
	args := m.Called(ctx, viewerID, streamerID, baselineTierID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.ViewerProgress), args.Error(1)
}

func (m *MockProgressRepository) Get(ctx context.Context, viewerID, streamerID int64) (*entities.ViewerProgress, error) {
	args := m.Called(ctx, viewerID, streamerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.ViewerProgress), args.Error(1)
}

func (m *MockProgressRepository) AddPoints(ctx context.Context, viewerID, streamerID int64, delta int64) (*entities.ViewerProgress, error) {
	args := m.Called(ctx, viewerID, streamerID, delta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.ViewerProgress), args.Error(1)
}

func (m *MockProgressRepository) DeductPoints(ctx context.Context, viewerID, streamerID int64, delta int64) (*entities.ViewerProgress, error) {
	args := m.Called(ctx, viewerID, streamerID, delta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.ViewerProgress), args.Error(1)
}

func (m *MockProgressRepository) CompareAndSwapTier(ctx context.Context, viewerID, streamerID int64, expectedPoints int64, expectedTierID *int64, newTierID int64) (bool, error) {
	args := m.Called(ctx, viewerID, streamerID, expectedPoints, expectedTierID, newTierID)
	return args.Bool(0), args.Error(1)
}

func (m *MockProgressRepository) ListByStreamer(ctx context.Context, streamerID int64, afterViewerID int64, limit int) ([]*entities.ViewerProgress, error) {
	args := m.Called(ctx, streamerID, afterViewerID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.ViewerProgress), args.Error(1)
}

func (m *MockProgressRepository) ListStreamersWithStaleTiers(ctx context.Context, limit int) ([]int64, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

// MockViewerTierRepository is a mock implementation of ViewerTierRepository
type MockViewerTierRepository struct {
	mock.Mock
}

func (m *MockViewerTierRepository) ListActiveByStreamer(ctx context.Context, streamerID int64) ([]entities.ViewerTier, error) {
	args := m.Called(ctx, streamerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.ViewerTier), args.Error(1)
}

func (m *MockViewerTierRepository) ListByStreamer(ctx context.Context, streamerID int64) ([]entities.ViewerTier, error) {
	args := m.Called(ctx, streamerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.ViewerTier), args.Error(1)
}

func (m *MockViewerTierRepository) GetByID(ctx context.Context, id int64) (*entities.ViewerTier, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.ViewerTier), args.Error(1)
}

func (m *MockViewerTierRepository) Create(ctx context.Context, tier *entities.ViewerTier) error {
	args := m.Called(ctx, tier)
	return args.Error(0)
}

func (m *MockViewerTierRepository) Update(ctx context.Context, tier *entities.ViewerTier) error {
	args := m.Called(ctx, tier)
	return args.Error(0)
}

func (m *MockViewerTierRepository) LockCatalog(ctx context.Context, streamerID int64) error {
	args := m.Called(ctx, streamerID)
	return args.Error(0)
}

// MockStreamerTierRepository is a mock implementation of StreamerTierRepository
type MockStreamerTierRepository struct {
	mock.Mock
}

func (m *MockStreamerTierRepository) ListAll(ctx context.Context) ([]entities.StreamerTier, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.StreamerTier), args.Error(1)
}

// MockStreamerProfileRepository is a mock implementation of StreamerProfileRepository
type MockStreamerProfileRepository struct {
	mock.Mock
}

func (m *MockStreamerProfileRepository) GetOrInitialize(ctx context.Context, userID int64, baselineTierID *int64) (*entities.StreamerProfile, error) {
	args := m.Called(ctx, userID, baselineTierID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.StreamerProfile), args.Error(1)
}

func (m *MockStreamerProfileRepository) Get(ctx context.Context, userID int64) (*entities.StreamerProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.StreamerProfile), args.Error(1)
}

func (m *MockStreamerProfileRepository) AddMinutes(ctx context.Context, userID int64, minutes int64) (*entities.StreamerProfile, error) {
	args := m.Called(ctx, userID, minutes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.StreamerProfile), args.Error(1)
}

func (m *MockStreamerProfileRepository) CompareAndSwapTier(ctx context.Context, userID int64, expectedMinutes int64, expectedTierID *int64, newTierID int64) (bool, error) {
	args := m.Called(ctx, userID, expectedMinutes, expectedTierID, newTierID)
	return args.Bool(0), args.Error(1)
}

// MockGiftRepository is a mock implementation of GiftRepository
type MockGiftRepository struct {
	mock.Mock
}

func (m *MockGiftRepository) GetByID(ctx context.Context, id int64) (*entities.Gift, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Gift), args.Error(1)
}

func (m *MockGiftRepository) ListByStreamer(ctx context.Context, streamerID int64, activeOnly bool) ([]*entities.Gift, error) {
	args := m.Called(ctx, streamerID, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Gift), args.Error(1)
}

func (m *MockGiftRepository) Create(ctx context.Context, gift *entities.Gift) error {
	args := m.Called(ctx, gift)
	return args.Error(0)
}

func (m *MockGiftRepository) Update(ctx context.Context, gift *entities.Gift) error {
	args := m.Called(ctx, gift)
	return args.Error(0)
}

// MockNotificationRepository is a mock implementation of NotificationRepository
type MockNotificationRepository struct {
	mock.Mock
}

func (m *MockNotificationRepository) Create(ctx context.Context, notification *entities.Notification) error {
	args := m.Called(ctx, notification)
	return args.Error(0)
}

func (m *MockNotificationRepository) ListByUser(ctx context.Context, userID int64, unreadOnly bool, limit int) ([]*entities.Notification, error) {
	args := m.Called(ctx, userID, unreadOnly, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Notification), args.Error(1)
}

func (m *MockNotificationRepository) MarkRead(ctx context.Context, userID, notificationID int64) (bool, error) {
	args := m.Called(ctx, userID, notificationID)
	return args.Bool(0), args.Error(1)
}

func (m *MockNotificationRepository) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNotificationRepository) CountUnread(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

// MockRechargeRepository is a mock implementation of RechargeRepository
type MockRechargeRepository struct {
	mock.Mock
}

func (m *MockRechargeRepository) Create(ctx context.Context, record *entities.RechargeRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockRechargeRepository) GetByIdempotencyKey(ctx context.Context, key string) (*entities.RechargeRecord, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.RechargeRecord), args.Error(1)
}

// MockWagerRecordRepository is a mock implementation of WagerRecordRepository
type MockWagerRecordRepository struct {
	mock.Mock
}

func (m *MockWagerRecordRepository) Create(ctx context.Context, record *entities.WagerRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockWagerRecordRepository) ListByViewer(ctx context.Context, viewerID int64, limit int) ([]*entities.WagerRecord, error) {
	args := m.Called(ctx, viewerID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.WagerRecord), args.Error(1)
}

// MockBalanceHistoryRepository is a mock implementation of BalanceHistoryRepository
type MockBalanceHistoryRepository struct {
	mock.Mock
}

func (m *MockBalanceHistoryRepository) Record(ctx context.Context, history *entities.BalanceHistory) error {
	args := m.Called(ctx, history)
	return args.Error(0)
}

func (m *MockBalanceHistoryRepository) GetByUser(ctx context.Context, userID int64, limit int) ([]*entities.BalanceHistory, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.BalanceHistory), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) error {
	args := m.Called(event)
	return args.Error(0)
}

// MockTransactionalEventPublisher is a mock implementation of TransactionalEventPublisher
type MockTransactionalEventPublisher struct {
	mock.Mock
}

func (m *MockTransactionalEventPublisher) Publish(event events.Event) error {
	args := m.Called(event)
	return args.Error(0)
}

func (m *MockTransactionalEventPublisher) Flush(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockTransactionalEventPublisher) Discard() {
	m.Called()
}
