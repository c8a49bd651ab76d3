package services

import (
	"context"
	"testing"

	"streameconomy/domain"
	"streameconomy/domain/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestEngagementService_RecordChatMessage(t *testing.T) {
	ctx := context.Background()
	mocks := NewTestMocks()
	helper := NewMockHelper(mocks)
	svc := NewEngagementService(mocks.UserRepo, mocks.Services().Progression, 1)

	helper.ExpectUserLookup(newViewer(TestViewerID))
	helper.ExpectUserLookup(newStreamer(TestStreamerID))
	helper.ExpectViewerTiers(standardTiers())
	mocks.ProgressRepo.On("GetOrInitialize", ctx, TestViewerID, TestStreamerID, tierPtr(TestBronzeID)).
		Return(&entities.ViewerProgress{ViewerID: TestViewerID, StreamerID: TestStreamerID, TierID: tierPtr(TestBronzeID)}, nil)
	mocks.ProgressRepo.On("AddPoints", ctx, TestViewerID, TestStreamerID, int64(1)).
		Return(&entities.ViewerProgress{ViewerID: TestViewerID, StreamerID: TestStreamerID, Points: 1, TierID: tierPtr(TestBronzeID)}, nil)

	result, err := svc.RecordChatMessage(ctx, TestViewerID, TestStreamerID, "hello there")
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Progress.Points)
	mocks.AssertAllExpectations(t)
}

func TestEngagementService_Rejections(t *testing.T) {
	tests := []struct {
		name       string
		viewerID   int64
		streamerID int64
		text       string
		want       error
	}{
		{name: "blank message", viewerID: TestViewerID, streamerID: TestStreamerID, text: "   ", want: domain.ErrValidation},
		{name: "own channel", viewerID: TestStreamerID, streamerID: TestStreamerID, text: "hi", want: domain.ErrValidation},
		{name: "unknown streamer", viewerID: TestViewerID, streamerID: 4040, text: "hi", want: domain.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mocks := NewTestMocks()
			helper := NewMockHelper(mocks)
			svc := NewEngagementService(mocks.UserRepo, mocks.Services().Progression, 1)

			helper.ExpectUserLookup(newViewer(TestViewerID))
			helper.ExpectUserNotFound(4040)

			_, err := svc.RecordChatMessage(context.Background(), tt.viewerID, tt.streamerID, tt.text)
			assert.ErrorIs(t, err, tt.want)
			mocks.ProgressRepo.AssertNotCalled(t, "AddPoints", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestAirtimeService_RecordSession(t *testing.T) {
	ctx := context.Background()
	mocks := NewTestMocks()
	helper := NewMockHelper(mocks)
	svc := NewAirtimeService(mocks.UserRepo, mocks.Services().Progression)

	helper.ExpectUserLookup(newStreamer(TestStreamerID))
	helper.ExpectUserLookup(newViewer(TestViewerID))
	mocks.StreamerTierRepo.On("ListAll", ctx).Return([]entities.StreamerTier{{ID: 11, Rank: 0, Name: "Rookie"}}, nil)
	mocks.ProfileRepo.On("GetOrInitialize", ctx, TestStreamerID, tierPtr(11)).
		Return(&entities.StreamerProfile{UserID: TestStreamerID, TierID: tierPtr(11)}, nil)
	mocks.ProfileRepo.On("AddMinutes", ctx, TestStreamerID, int64(45)).
		Return(&entities.StreamerProfile{UserID: TestStreamerID, AirtimeMinutes: 45, TierID: tierPtr(11)}, nil)

	result, err := svc.RecordSession(ctx, TestStreamerID, 45)
	require.NoError(t, err)
	assert.Equal(t, int64(45), result.Profile.AirtimeMinutes)
	assert.Nil(t, result.TierChange)

	_, err = svc.RecordSession(ctx, TestStreamerID, -1)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.RecordSession(ctx, TestViewerID, 10)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	mocks.AssertAllExpectations(t)
}
