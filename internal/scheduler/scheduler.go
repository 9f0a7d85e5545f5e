// Package scheduler repeats the ETL run on a fixed interval.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

// Job is one scheduled unit of work. The context is cancelled when the
// scheduler stops.
type Job func(ctx context.Context)

// Scheduler runs a Job immediately and then every interval. Runs never
// overlap.
type Scheduler struct {
	scheduler *gocron.Scheduler
	interval  time.Duration
	job       Job
	logger    *slog.Logger
	cancel    context.CancelFunc
}

// New creates a Scheduler. It does nothing until Start is called.
func New(interval time.Duration, job Job, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		interval:  interval,
		job:       job,
		logger:    logger,
	}
}

// Start registers the job and starts the scheduler in the background.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.interval <= 0 {
		return errors.New("scheduler interval must be positive")
	}

	ctx, s.cancel = context.WithCancel(ctx)
	_, err := s.scheduler.Every(s.interval).SingletonMode().Do(func() {
		if ctx.Err() != nil {
			return
		}
		s.logger.Debug("scheduled run starting")
		s.job(ctx)
	})
	if err != nil {
		s.cancel()
		return err
	}

	s.logger.Info("scheduler started", "interval", s.interval)
	s.scheduler.StartAsync()
	return nil
}

// Stop cancels the job context and stops future runs.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.scheduler.Stop()
	s.logger.Info("scheduler stopped")
}
