package application

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// staleStreamerSweepLimit caps how many streamers one sweep re-evaluates
const staleStreamerSweepLimit = 100

// TierReconciler is the part of the processor the sweep depends on
type TierReconciler interface {
	StreamersWithStaleTiers(ctx context.Context, limit int) ([]int64, error)
	RecalculateAudience(ctx context.Context, streamerID int64) (*CascadeResult, error)
}

// TierReconciliationWorker periodically re-runs the audience cascade for
// streamers whose stored viewer tiers no longer match their catalog, such as
// after a cascade that was interrupted by a store failure
type TierReconciliationWorker struct {
	reconciler TierReconciler
	schedule   string
	engine     *cron.Cron
	ctx        context.Context
}

// NewTierReconciliationWorker creates a worker that runs on a cron schedule
func NewTierReconciliationWorker(reconciler TierReconciler, schedule string) *TierReconciliationWorker {
	return &TierReconciliationWorker{
		reconciler: reconciler,
		schedule:   schedule,
		engine: cron.New(cron.WithChain(
			cron.Recover(cron.PrintfLogger(log.StandardLogger())),
			cron.SkipIfStillRunning(cron.PrintfLogger(log.StandardLogger())),
		)),
	}
}

// Start registers the sweep and starts the scheduler. Sweeps use ctx until Stop.
func (w *TierReconciliationWorker) Start(ctx context.Context) error {
	w.ctx = ctx
	if _, err := w.engine.AddJob(w.schedule, w); err != nil {
		return fmt.Errorf("failed to schedule tier reconciliation %q: %w", w.schedule, err)
	}

	log.WithField("schedule", w.schedule).Info("Tier reconciliation worker started")
	w.engine.Start()
	return nil
}

// Stop halts the scheduler and waits for a running sweep to finish
func (w *TierReconciliationWorker) Stop() {
	<-w.engine.Stop().Done()
	log.Info("Tier reconciliation worker stopped")
}

// Run implements cron.Job
func (w *TierReconciliationWorker) Run() {
	ctx := w.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	if ctx.Err() != nil {
		return
	}

	if _, err := w.Reconcile(ctx); err != nil {
		log.WithError(err).Error("Tier reconciliation sweep failed")
	}
}

// Reconcile runs one sweep and returns how many streamers were re-evaluated.
// A failing streamer is logged and the sweep moves on.
func (w *TierReconciliationWorker) Reconcile(ctx context.Context) (int, error) {
	streamerIDs, err := w.reconciler.StreamersWithStaleTiers(ctx, staleStreamerSweepLimit)
	if err != nil {
		return 0, fmt.Errorf("failed to find streamers with stale tiers: %w", err)
	}
	if len(streamerIDs) == 0 {
		log.Debug("No stale viewer tiers found")
		return 0, nil
	}

	reconciled := 0
	for _, streamerID := range streamerIDs {
		if ctx.Err() != nil {
			break
		}

		result, err := w.reconciler.RecalculateAudience(ctx, streamerID)
		if err != nil {
			log.WithError(err).WithField("streamerID", streamerID).Error("Failed to reconcile viewer tiers")
			continue
		}

		reconciled++
		log.WithFields(log.Fields{
			"streamerID": streamerID,
			"changed":    result.Changed,
		}).Info("Reconciled viewer tiers")
	}

	return reconciled, nil
}
