package scheduler

import (
	"context"
	"log/slog"
	"time"
)

// Runner is the daily job the scheduler fires.
type Runner interface {
	Run(ctx context.Context, now time.Time) error
}

type Scheduler struct {
	runner   Runner
	hour     int
	location *time.Location
	logger   *slog.Logger
}

func NewScheduler(runner Runner, hour int, location *time.Location, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		runner:   runner,
		hour:     hour,
		location: location,
		logger:   logger,
	}
}

// nextRun returns the next occurrence of the configured hour strictly after
// now, in the scheduler's location.
func (s *Scheduler) nextRun(now time.Time) time.Time {
	now = now.In(s.location)
	next := time.Date(now.Year(), now.Month(), now.Day(), s.hour, 0, 0, 0, s.location)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("scheduler started", "hour", s.hour, "location", s.location.String())

	for {
		next := s.nextRun(time.Now())
		s.logger.Info("next digest scheduled", "at", next)

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case fireTime := <-timer.C:
			s.runJob(ctx, fireTime)
		}
	}
}

func (s *Scheduler) runJob(ctx context.Context, now time.Time) {
	jobCtx, cancel := context.WithTimeout(ctx, 10*time.Minute)
	defer cancel()

	if err := s.runner.Run(jobCtx, now); err != nil {
		s.logger.Error("digest run failed", "error", err)
	}
}
