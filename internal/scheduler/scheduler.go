// Package scheduler runs the periodic refresh job.
package scheduler

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

// Scheduler wraps a gocron scheduler running in UTC.
type Scheduler struct {
	scheduler *gocron.Scheduler
	logger    *slog.Logger
}

// New creates a stopped scheduler. Call Start to begin running jobs.
func New(logger *slog.Logger) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		logger:    logger,
	}
}

// Start registers the refresh job at the given interval and starts the
// scheduler in the background. SingletonMode ensures a slow refresh is never
// overlapped by the next tick.
func (s *Scheduler) Start(interval time.Duration, job func()) error {
	if _, err := s.scheduler.Every(interval).SingletonMode().Do(job); err != nil {
		return fmt.Errorf("schedule refresh job: %w", err)
	}
	s.scheduler.StartAsync()
	s.logger.Info("scheduler started", "interval", interval)
	return nil
}

// Stop halts the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
	s.logger.Info("scheduler stopped")
}
