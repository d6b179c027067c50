// Package worker runs background jobs over the scoring state.
package worker

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"

	"github.com/vls-lab/ctf-server/internal/service"
)

// Reconciler periodically rebuilds the score totals from the submission
// ledger. The running totals are updated transactionally with every scoring
// write, so under normal operation the rebuild is a no-op; it exists to
// repair any divergence (manual data surgery, restored backups) because the
// ledger, not the cache, is the source of truth.
type Reconciler struct {
	leaderboard service.LeaderboardService
	interval    time.Duration
	log         *zap.Logger

	sched gocron.Scheduler
}

// NewReconciler constructs a reconciliation worker.
func NewReconciler(leaderboard service.LeaderboardService, interval time.Duration, log *zap.Logger) *Reconciler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reconciler{leaderboard: leaderboard, interval: interval, log: log}
}

// Start schedules the periodic rebuild. Call Stop to shut it down.
func (w *Reconciler) Start(ctx context.Context) error {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return err
	}
	w.sched = sched

	_, err = sched.NewJob(
		gocron.DurationJob(w.interval),
		gocron.NewTask(func() {
			jobCtx, cancel := context.WithTimeout(ctx, w.interval/2)
			defer cancel()
			if err := w.leaderboard.Rebuild(jobCtx); err != nil {
				w.log.Warn("score reconciliation failed", zap.Error(err))
			}
		}),
	)
	if err != nil {
		return err
	}

	sched.Start()
	w.log.Info("score reconciler started", zap.Duration("interval", w.interval))
	return nil
}

// Stop shuts the scheduler down, waiting for a running job to finish.
func (w *Reconciler) Stop() error {
	if w.sched == nil {
		return nil
	}
	return w.sched.Shutdown()
}
