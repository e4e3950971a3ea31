package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Pipelines is the subset of Service the scheduler drives. Extracted so
// scheduler tests can substitute a fake.
type Pipelines interface {
	RunTodaysNotifications(ctx context.Context) int
	RunUpcomingReminders(ctx context.Context) int
}

// Scheduler registers the two periodic triggers: a daily sweep at a fixed
// clinic-local hour and an hourly sweep on the hour. Start and Stop are
// idempotent; redundant calls log and return. Stop prevents future
// firings only — it does not cancel an in-flight run.
type Scheduler struct {
	pipelines Pipelines
	loc       *time.Location
	dailyHour int
	logger    *slog.Logger

	mu      sync.Mutex
	c       *cron.Cron
	running bool
}

// NewScheduler creates a stopped scheduler. dailyHour is the clinic-local
// wall-clock hour for the daily sweep.
func NewScheduler(p Pipelines, loc *time.Location, dailyHour int, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		pipelines: p,
		loc:       loc,
		dailyHour: dailyHour,
		logger:    logger,
	}
}

// Start registers both cron entries and begins firing. No-op when already
// running.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		s.logger.Info("Reminder scheduler already running")
		return nil
	}

	c := cron.New(cron.WithLocation(s.loc))

	dailySpec := fmt.Sprintf("0 %d * * *", s.dailyHour)
	if _, err := c.AddFunc(dailySpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()
		s.pipelines.RunTodaysNotifications(ctx)
	}); err != nil {
		return fmt.Errorf("register daily trigger: %w", err)
	}

	if _, err := c.AddFunc("0 * * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()
		s.pipelines.RunUpcomingReminders(ctx)
	}); err != nil {
		return fmt.Errorf("register hourly trigger: %w", err)
	}

	c.Start()
	s.c = c
	s.running = true
	s.logger.Info("Reminder scheduler started",
		"daily", dailySpec, "hourly", "0 * * * *", "timezone", s.loc.String())
	return nil
}

// Stop cancels all registered triggers. No-op when not running.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		s.logger.Info("Reminder scheduler not running")
		return
	}

	s.c.Stop()
	s.c = nil
	s.running = false
	s.logger.Info("Reminder scheduler stopped")
}

// Running reports the scheduler state.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// TriggerTodaysNotifications runs the daily pipeline synchronously outside
// the schedule, for ops and tests.
func (s *Scheduler) TriggerTodaysNotifications(ctx context.Context) int {
	return s.pipelines.RunTodaysNotifications(ctx)
}

// TriggerUpcomingReminders runs the hourly pipeline synchronously outside
// the schedule.
func (s *Scheduler) TriggerUpcomingReminders(ctx context.Context) int {
	return s.pipelines.RunUpcomingReminders(ctx)
}
