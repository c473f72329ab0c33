package usecase

import (
	"context"
	"log/slog"

	"ElectionWatcher/internal/ports"
)

// Scheduler wires the interval driver with the poller use case.
type Scheduler struct {
	driver ports.Scheduler
	poller *Poller
	logger *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring poll cycles.
func NewScheduler(driver ports.Scheduler, poller *Poller, logger *slog.Logger) *Scheduler {
	return &Scheduler{driver: driver, poller: poller, logger: logger}
}

// Start registers the poll cycle with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.poller == nil {
		return nil
	}

	job := func(runCtx context.Context) {
		// failures are already logged per site; the next cycle retries
		if err := s.poller.RunCycle(runCtx); err != nil && s.logger != nil && runCtx.Err() == nil {
			s.logger.Debug("cycle completed with errors", "error", err)
		}
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
