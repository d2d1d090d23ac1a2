package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/holden/retroboard/pkg/util"
	"github.com/robfig/cron/v3"
)

// Sweeper runs one cleanup pass. CleanupService sweeps in-process; the
// task queue's enqueuer hands the pass to a worker instead.
type Sweeper interface {
	PerformScheduledCleanup(ctx context.Context, threshold time.Duration) error
}

// Scheduler triggers the expiry sweep on a recurring cron schedule. A
// failed sweep is logged and never stops future ticks.
type Scheduler struct {
	sweeper Sweeper
	logger  *slog.Logger
	cron    *cron.Cron
}

func NewScheduler(sweeper Sweeper, logger *slog.Logger) *Scheduler {
	return &Scheduler{sweeper: sweeper, logger: logger}
}

// Start validates the cron expression, registers the recurring sweep, and
// runs one sweep immediately so a restarted process does not wait a full
// interval for its first cleanup.
func (s *Scheduler) Start(cronExpr string, threshold time.Duration) error {
	if err := util.ValidateCronExpr(cronExpr); err != nil {
		return err
	}

	s.logger.Info("starting session cleanup scheduler",
		"cron", cronExpr,
		"threshold", threshold.String(),
	)

	c := cron.New(cron.WithLocation(time.UTC))
	_, err := c.AddFunc(cronExpr, func() {
		if err := s.sweeper.PerformScheduledCleanup(context.Background(), threshold); err != nil {
			s.logger.Error("scheduled session cleanup failed", "error", err)
		}
	})
	if err != nil {
		return err
	}

	s.cron = c
	c.Start()

	go func() {
		if err := s.sweeper.PerformScheduledCleanup(context.Background(), threshold); err != nil {
			s.logger.Error("initial session cleanup failed", "error", err)
		}
	}()

	return nil
}

// Stop cancels the recurring sweep. Safe to call if Start never ran.
func (s *Scheduler) Stop() {
	if s.cron == nil {
		return
	}
	s.logger.Info("stopping session cleanup scheduler")
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.cron = nil
}

// RunNow performs an on-demand sweep, independent of the schedule. Errors
// propagate to the caller.
func (s *Scheduler) RunNow(ctx context.Context, threshold time.Duration) error {
	return s.sweeper.PerformScheduledCleanup(ctx, threshold)
}
