package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockTierReconciler struct {
	mock.Mock
}

func (m *mockTierReconciler) StreamersWithStaleTiers(ctx context.Context, limit int) ([]int64, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *mockTierReconciler) RecalculateAudience(ctx context.Context, streamerID int64) (*CascadeResult, error) {
	args := m.Called(ctx, streamerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*CascadeResult), args.Error(1)
}

func TestTierReconciliationWorker_Reconcile(t *testing.T) {
	reconciler := &mockTierReconciler{}
	reconciler.On("StreamersWithStaleTiers", mock.Anything, staleStreamerSweepLimit).Return([]int64{1, 2, 3}, nil)
	reconciler.On("RecalculateAudience", mock.Anything, int64(1)).Return(&CascadeResult{StreamerID: 1, Changed: 4}, nil)
	reconciler.On("RecalculateAudience", mock.Anything, int64(2)).Return(nil, errors.New("store unavailable"))
	reconciler.On("RecalculateAudience", mock.Anything, int64(3)).Return(&CascadeResult{StreamerID: 3}, nil)

	worker := NewTierReconciliationWorker(reconciler, "@every 1h")
	reconciled, err := worker.Reconcile(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, reconciled)
	reconciler.AssertExpectations(t)
}

func TestTierReconciliationWorker_NothingStale(t *testing.T) {
	reconciler := &mockTierReconciler{}
	reconciler.On("StreamersWithStaleTiers", mock.Anything, staleStreamerSweepLimit).Return([]int64{}, nil)

	worker := NewTierReconciliationWorker(reconciler, "@every 1h")
	reconciled, err := worker.Reconcile(context.Background())

	require.NoError(t, err)
	assert.Zero(t, reconciled)
	reconciler.AssertNotCalled(t, "RecalculateAudience", mock.Anything, mock.Anything)
}

func TestTierReconciliationWorker_LookupFailure(t *testing.T) {
	reconciler := &mockTierReconciler{}
	reconciler.On("StreamersWithStaleTiers", mock.Anything, staleStreamerSweepLimit).Return(nil, errors.New("timeout"))

	worker := NewTierReconciliationWorker(reconciler, "@every 1h")
	_, err := worker.Reconcile(context.Background())

	assert.Error(t, err)
}

func TestTierReconciliationWorker_StartRejectsBadSchedule(t *testing.T) {
	worker := NewTierReconciliationWorker(&mockTierReconciler{}, "not a schedule")
	assert.Error(t, worker.Start(context.Background()))
}

func TestTierReconciliationWorker_StartAndStop(t *testing.T) {
	worker := NewTierReconciliationWorker(&mockTierReconciler{}, "@every 1h")
	require.NoError(t, worker.Start(context.Background()))
	worker.Stop()
}
