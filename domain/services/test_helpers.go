package services

import (
	"testing"

	"streameconomy/domain/entities"
	"streameconomy/domain/events"
	"streameconomy/domain/testhelpers"

	"github.com/stretchr/testify/mock"
)

// Test constants for consistent test data
const (
	TestViewerID   = int64(100)
	TestViewer2ID  = int64(101)
	TestStreamerID = int64(900)
	TestGiftID     = int64(7)
	TestBronzeID   = int64(1)
	TestSilverID   = int64(2)
	TestGoldID     = int64(3)
)

// TestMocks aggregates all repository mocks for testing
type TestMocks struct {
	UserRepo           *testhelpers.MockUserRepository
	BalanceRepo        *testhelpers.MockBalanceRepository
	ProgressRepo       *testhelpers.MockProgressRepository
	ViewerTierRepo     *testhelpers.MockViewerTierRepository
	StreamerTierRepo   *testhelpers.MockStreamerTierRepository
	ProfileRepo        *testhelpers.MockStreamerProfileRepository
	GiftRepo           *testhelpers.MockGiftRepository
	NotificationRepo   *testhelpers.MockNotificationRepository
	RechargeRepo       *testhelpers.MockRechargeRepository
	WagerRepo          *testhelpers.MockWagerRecordRepository
	BalanceHistoryRepo *testhelpers.MockBalanceHistoryRepository
	EventPublisher     *testhelpers.MockEventPublisher
}

// NewTestMocks creates a new set of mocks
func NewTestMocks() *TestMocks {
	return &TestMocks{
		UserRepo:           &testhelpers.MockUserRepository{},
		BalanceRepo:        &testhelpers.MockBalanceRepository{},
		ProgressRepo:       &testhelpers.MockProgressRepository{},
		ViewerTierRepo:     &testhelpers.MockViewerTierRepository{},
		StreamerTierRepo:   &testhelpers.MockStreamerTierRepository{},
		ProfileRepo:        &testhelpers.MockStreamerProfileRepository{},
		GiftRepo:           &testhelpers.MockGiftRepository{},
		NotificationRepo:   &testhelpers.MockNotificationRepository{},
		RechargeRepo:       &testhelpers.MockRechargeRepository{},
		WagerRepo:          &testhelpers.MockWagerRecordRepository{},
		BalanceHistoryRepo: &testhelpers.MockBalanceHistoryRepository{},
		EventPublisher:     &testhelpers.MockEventPublisher{},
	}
}

// AssertAllExpectations verifies all mock expectations were met
func (m *TestMocks) AssertAllExpectations(t *testing.T) {
	m.UserRepo.AssertExpectations(t)
	m.BalanceRepo.AssertExpectations(t)
	m.ProgressRepo.AssertExpectations(t)
	m.ViewerTierRepo.AssertExpectations(t)
	m.StreamerTierRepo.AssertExpectations(t)
	m.ProfileRepo.AssertExpectations(t)
	m.GiftRepo.AssertExpectations(t)
	m.NotificationRepo.AssertExpectations(t)
	m.RechargeRepo.AssertExpectations(t)
	m.WagerRepo.AssertExpectations(t)
	m.BalanceHistoryRepo.AssertExpectations(t)
	m.EventPublisher.AssertExpectations(t)
}

// Services builds every service over the mocks the way a unit of work would
func (m *TestMocks) Services() *TestServices {
	notifications := NewNotificationService(m.NotificationRepo, m.EventPublisher)
	progression := NewProgressionService(m.ProgressRepo, m.ViewerTierRepo, m.StreamerTierRepo, m.ProfileRepo, notifications, m.EventPublisher)
	return &TestServices{
		Notifications: notifications.(*notificationService),
		Progression:   progression.(*progressionService),
	}
}

// TestServices exposes the concrete services built by TestMocks.Services
type TestServices struct {
	Notifications *notificationService
	Progression   *progressionService
}

// MockHelper provides common mock setup patterns
type MockHelper struct {
	mocks *TestMocks
}

// NewMockHelper creates a new mock helper
func NewMockHelper(mocks *TestMocks) *MockHelper {
	return &MockHelper{mocks: mocks}
}

// ExpectUserLookup sets up user repository mock expectations
func (h *MockHelper) ExpectUserLookup(user *entities.User) {
	h.mocks.UserRepo.On("GetByID", mock.Anything, user.ID).Return(user, nil)
}

// ExpectUserNotFound sets up user repository mock to return not found
func (h *MockHelper) ExpectUserNotFound(userID int64) {
	h.mocks.UserRepo.On("GetByID", mock.Anything, userID).Return(nil, nil)
}

// ExpectViewerTiers sets up the active catalog of the test streamer
func (h *MockHelper) ExpectViewerTiers(tiers []entities.ViewerTier) {
	h.mocks.ViewerTierRepo.On("ListActiveByStreamer", mock.Anything, TestStreamerID).Return(tiers, nil)
}

// ExpectEventPublish sets up event publisher mock expectations
func (h *MockHelper) ExpectEventPublish(eventType events.EventType) *mock.Call {
	return h.mocks.EventPublisher.On("Publish", mock.MatchedBy(func(e events.Event) bool {
		return e.Type() == eventType
	})).Return(nil)
}

// ExpectNotification expects exactly one persisted notification of the given type
func (h *MockHelper) ExpectNotification(userID int64, notificationType entities.NotificationType) {
	h.mocks.NotificationRepo.On("Create", mock.Anything, mock.MatchedBy(func(n *entities.Notification) bool {
		return n.UserID == userID && n.Type == notificationType
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*entities.Notification).ID = 555
	}).Return(nil).Once()
	h.ExpectEventPublish(events.EventTypeNotificationCreated).Once()
}

// ExpectBalanceHistoryRecordSimple sets up balance history repository mock with simple parameters
func (h *MockHelper) ExpectBalanceHistoryRecordSimple(userID int64, balanceAfter int64, transactionType entities.TransactionType) {
	h.mocks.BalanceHistoryRepo.On("Record", mock.Anything, mock.MatchedBy(func(bh *entities.BalanceHistory) bool {
		return bh.UserID == userID &&
			bh.BalanceAfter == balanceAfter &&
			bh.TransactionType == transactionType
	})).Return(nil)
	h.ExpectEventPublish(events.EventTypeBalanceChange)
}

func newViewer(id int64) *entities.User {
	return &entities.User{ID: id, Username: "viewer", Role: entities.UserRoleViewer, Status: entities.UserStatusActive}
}

func newStreamer(id int64) *entities.User {
	return &entities.User{ID: id, Username: "streamer", Role: entities.UserRoleStreamer, Status: entities.UserStatusActive}
}

func tierPtr(id int64) *int64 {
	return &id
}

// standardTiers is the Bronze/Silver/Gold catalog of the test streamer
func standardTiers() []entities.ViewerTier {
	return []entities.ViewerTier{
		{ID: TestBronzeID, StreamerID: TestStreamerID, Rank: 0, Name: "Bronze", Threshold: 0, Active: true},
		{ID: TestSilverID, StreamerID: TestStreamerID, Rank: 1, Name: "Silver", Threshold: 1000, Active: true},
		{ID: TestGoldID, StreamerID: TestStreamerID, Rank: 2, Name: "Gold", Threshold: 5000, Active: true},
	}
}
