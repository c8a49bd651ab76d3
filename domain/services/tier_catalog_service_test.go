package services

import (
	"context"
	"testing"

	"streameconomy/domain"
	"streameconomy/domain/entities"
	"streameconomy/domain/events"
	"streameconomy/domain/interfaces"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestTierCatalogService(mocks *TestMocks) interfaces.TierCatalogService {
	return NewTierCatalogService(mocks.UserRepo, mocks.ViewerTierRepo, mocks.StreamerTierRepo, mocks.EventPublisher)
}

func int64Ptr(v int64) *int64 {
	return &v
}

func TestTierCatalogService_UpdateThreshold(t *testing.T) {
	ctx := context.Background()
	mocks := NewTestMocks()
	helper := NewMockHelper(mocks)
	svc := newTestTierCatalogService(mocks)

	silver := standardTiers()[1]
	helper.ExpectUserLookup(newStreamer(TestStreamerID))
	mocks.ViewerTierRepo.On("LockCatalog", ctx, TestStreamerID).Return(nil).Once()
	mocks.ViewerTierRepo.On("GetByID", ctx, TestSilverID).Return(&silver, nil)
	mocks.ViewerTierRepo.On("ListByStreamer", ctx, TestStreamerID).Return(standardTiers(), nil)
	mocks.ViewerTierRepo.On("Update", ctx, mock.MatchedBy(func(tier *entities.ViewerTier) bool {
		return tier.ID == TestSilverID && tier.Threshold == 2000
	})).Return(nil)
	helper.ExpectEventPublish(events.EventTypeTierCatalogChanged).Once()

	tier, err := svc.UpdateTier(ctx, TestStreamerID, TestSilverID, interfaces.TierUpdate{Threshold: int64Ptr(2000)})
	require.NoError(t, err)
	assert.Equal(t, int64(2000), tier.Threshold)
	mocks.AssertAllExpectations(t)
}

func TestTierCatalogService_UpdateRejectsDecreasingThresholds(t *testing.T) {
	ctx := context.Background()
	mocks := NewTestMocks()
	helper := NewMockHelper(mocks)
	svc := newTestTierCatalogService(mocks)

	silver := standardTiers()[1]
	helper.ExpectUserLookup(newStreamer(TestStreamerID))
	mocks.ViewerTierRepo.On("LockCatalog", ctx, TestStreamerID).Return(nil).Once()
	mocks.ViewerTierRepo.On("GetByID", ctx, TestSilverID).Return(&silver, nil)
	mocks.ViewerTierRepo.On("ListByStreamer", ctx, TestStreamerID).Return(standardTiers(), nil)

	_, err := svc.UpdateTier(ctx, TestStreamerID, TestSilverID, interfaces.TierUpdate{Threshold: int64Ptr(6000)})
	assert.ErrorIs(t, err, domain.ErrValidation)
	mocks.ViewerTierRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	mocks.EventPublisher.AssertNotCalled(t, "Publish", mock.Anything)
}

func TestTierCatalogService_UpdateRequiresOwnership(t *testing.T) {
	ctx := context.Background()
	mocks := NewTestMocks()
	helper := NewMockHelper(mocks)
	svc := newTestTierCatalogService(mocks)

	intruder := newStreamer(TestStreamerID + 1)
	silver := standardTiers()[1]
	helper.ExpectUserLookup(intruder)
	mocks.ViewerTierRepo.On("LockCatalog", ctx, intruder.ID).Return(nil)
	mocks.ViewerTierRepo.On("GetByID", ctx, TestSilverID).Return(&silver, nil)

	_, err := svc.UpdateTier(ctx, intruder.ID, TestSilverID, interfaces.TierUpdate{Threshold: int64Ptr(2000)})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestTierCatalogService_CreateTier(t *testing.T) {
	tests := []struct {
		name      string
		existing  []entities.ViewerTier
		rank      int
		threshold int64
		want      error
	}{
		{name: "first tier at zero", existing: nil, rank: 0, threshold: 0},
		{name: "first tier above zero", existing: nil, rank: 0, threshold: 10, want: domain.ErrValidation},
		{name: "rank already used", existing: standardTiers(), rank: 1, threshold: 1500, want: domain.ErrConflict},
		{name: "append above gold", existing: standardTiers(), rank: 3, threshold: 20000},
		{name: "append below gold", existing: standardTiers(), rank: 3, threshold: 100, want: domain.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			mocks := NewTestMocks()
			helper := NewMockHelper(mocks)
			svc := newTestTierCatalogService(mocks)

			helper.ExpectUserLookup(newStreamer(TestStreamerID))
			mocks.ViewerTierRepo.On("LockCatalog", ctx, TestStreamerID).Return(nil)
			mocks.ViewerTierRepo.On("ListByStreamer", ctx, TestStreamerID).Return(tt.existing, nil)
			mocks.ViewerTierRepo.On("Create", ctx, mock.Anything).Return(nil)
			helper.ExpectEventPublish(events.EventTypeTierCatalogChanged)

			_, err := svc.CreateTier(ctx, TestStreamerID, tt.rank, "Tier", tt.threshold)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
				mocks.ViewerTierRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			mocks.ViewerTierRepo.AssertCalled(t, "Create", ctx, mock.Anything)
		})
	}
}

func TestTierCatalogService_CreateTierStopsWhenLockFails(t *testing.T) {
	ctx := context.Background()
	mocks := NewTestMocks()
	helper := NewMockHelper(mocks)
	svc := newTestTierCatalogService(mocks)

	helper.ExpectUserLookup(newStreamer(TestStreamerID))
	mocks.ViewerTierRepo.On("LockCatalog", ctx, TestStreamerID).Return(context.DeadlineExceeded)

	_, err := svc.CreateTier(ctx, TestStreamerID, 3, "Platinum", 20000)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	mocks.ViewerTierRepo.AssertNotCalled(t, "ListByStreamer", mock.Anything, mock.Anything)
	mocks.ViewerTierRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestTierCatalogService_ViewersCannotEditTiers(t *testing.T) {
	mocks := NewTestMocks()
	helper := NewMockHelper(mocks)
	svc := newTestTierCatalogService(mocks)

	helper.ExpectUserLookup(newViewer(TestViewerID))

	_, err := svc.CreateTier(context.Background(), TestViewerID, 0, "Bronze", 0)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}
