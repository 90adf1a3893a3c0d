// Package scheduler runs a job on a fixed interval until its context ends.
package scheduler

import (
	"context"
	"log/slog"
	"time"
)

// DefaultInterval matches the daily cleanup cadence.
const DefaultInterval = 24 * time.Hour

// Job is one scheduled run. The count is logged for observability only.
type Job interface {
	Run(ctx context.Context) (int, error)
}

type Scheduler struct {
	job        Job
	interval   time.Duration
	runOnStart bool
	logger     *slog.Logger
}

func New(job Job, interval time.Duration, runOnStart bool, logger *slog.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{
		job:        job,
		interval:   interval,
		runOnStart: runOnStart,
		logger:     logger.With("component", "Scheduler"),
	}
}

// Start blocks, running the job on every tick. A failed run is logged and
// the next tick proceeds as normal.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Scheduler started", "interval", s.interval.String())

	if s.runOnStart {
		s.tick(ctx)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Scheduler stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	n, err := s.job.Run(ctx)
	if err != nil {
		s.logger.Error("Scheduled run failed", "err", err)
		return
	}
	s.logger.Debug("Scheduled run complete", "count", n)
}
