package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/trimly/internal/billing/application/commands"
	"github.com/robfig/cron/v3"
)

// Scheduler runs the worker's periodic jobs: the overdue sweep and the
// outbox cleanup.
type Scheduler struct {
	cron      *cron.Cron
	container *Container
	logger    *slog.Logger
	ctx       context.Context
}

// NewScheduler registers the jobs enabled in the container's configuration.
// An unparsable schedule is an error.
func NewScheduler(c *Container) (*Scheduler, error) {
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		container: c,
		logger:    c.Logger.With("component", "scheduler"),
		ctx:       context.Background(),
	}

	if c.Config.OverdueSweepEnabled {
		if _, err := s.cron.AddFunc(c.Config.OverdueSweepSchedule, func() {
			_, _ = s.SweepOverdue(s.ctx)
		}); err != nil {
			return nil, fmt.Errorf("invalid overdue sweep schedule %q: %w", c.Config.OverdueSweepSchedule, err)
		}
	}

	if c.Config.OutboxCleanupSchedule != "" {
		if _, err := s.cron.AddFunc(c.Config.OutboxCleanupSchedule, func() {
			_, _ = s.CleanupOutbox(s.ctx)
		}); err != nil {
			return nil, fmt.Errorf("invalid outbox cleanup schedule %q: %w", c.Config.OutboxCleanupSchedule, err)
		}
	}

	return s, nil
}

// Jobs returns the number of registered jobs.
func (s *Scheduler) Jobs() int {
	return len(s.cron.Entries())
}

// Start begins running jobs in the background. Jobs receive ctx.
func (s *Scheduler) Start(ctx context.Context) {
	s.ctx = ctx
	s.cron.Start()
	s.logger.Info("scheduler started",
		"jobs", s.Jobs(),
		"overdue_sweep", s.container.Config.OverdueSweepSchedule,
		"outbox_cleanup", s.container.Config.OutboxCleanupSchedule,
	)
}

// Stop prevents new runs and waits for running jobs until ctx expires.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.logger.Warn("scheduler stop timed out")
	}
}

// SweepOverdue runs one overdue sweep as of now.
func (s *Scheduler) SweepOverdue(ctx context.Context) (*commands.SweepOverdueResult, error) {
	result, err := s.container.SweepOverdueHandler.Handle(ctx, commands.SweepOverdueCommand{})
	if err != nil {
		s.logger.Error("overdue sweep failed", "error", err)
		return nil, err
	}
	s.logger.Info("overdue sweep completed",
		"scanned", result.Scanned,
		"marked", result.Marked,
		"failed", result.Failed,
	)
	return result, nil
}

// CleanupOutbox deletes published outbox rows older than the configured retention.
func (s *Scheduler) CleanupOutbox(ctx context.Context) (int64, error) {
	deleted, err := s.container.OutboxProcessor.Cleanup(ctx, s.container.Config.OutboxRetention())
	if err != nil {
		s.logger.Error("outbox cleanup failed", "error", err)
		return 0, err
	}
	return deleted, nil
}
