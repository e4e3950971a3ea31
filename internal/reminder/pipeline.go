package reminder

import (
	"context"
	"log/slog"
	"time"
)

// Service runs the reminder pipelines against a Store.
type Service struct {
	store  Store
	loc    *time.Location
	logger *slog.Logger

	// now is the clock; overridable in tests.
	now func() time.Time
}

// NewService creates a reminder service. loc is the clinic timezone used
// for day boundaries and time-of-day formatting.
func NewService(store Store, loc *time.Location, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		loc:    loc,
		logger: logger,
		now:    time.Now,
	}
}

// RunTodaysNotifications runs the daily pipeline over appointments in
// [start-of-day, start-of-next-day). Returns the number of notifications
// created. Store failures abort the run; they are logged, never returned.
func (s *Service) RunTodaysNotifications(ctx context.Context) int {
	now := s.now()
	from, to := TodayWindow(now, s.loc)
	return s.run(ctx, WindowToday, from, to, now)
}

// RunUpcomingReminders runs the hourly pipeline over appointments starting
// within the next 60 minutes. Candidates outside (0, 60] minutes at
// processing time are discarded by a defensive re-check.
func (s *Service) RunUpcomingReminders(ctx context.Context) int {
	now := s.now()
	from, to := SoonWindow(now)
	return s.run(ctx, WindowSoon, from, to, now)
}

func (s *Service) run(ctx context.Context, w Window, from, to time.Time, now time.Time) int {
	if s.store == nil {
		s.logger.Info("Reminder run skipped, store not configured")
		return 0
	}

	candidates, err := s.store.AppointmentsInWindow(ctx, reminderStatuses, from, to)
	if err != nil {
		s.logger.Error("Reminder run aborted, window query failed",
			"window", windowName(w), "error", err)
		return 0
	}
	if len(candidates) == 0 {
		s.logger.Info("No appointments in window",
			"window", windowName(w), "from", from, "to", to)
		return 0
	}

	startOfDay, _ := TodayWindow(now, s.loc)

	var batch []Notification
	skipped := 0
	for _, c := range candidates {
		if w == WindowSoon && !WithinSoonWindow(c.ScheduledAt, now) {
			skipped++
			continue
		}

		// One qualifying notification today for either party suppresses
		// the whole appointment. Check-then-write, not transactional.
		exists, err := s.store.ReminderExists(ctx, recipients(c), c.ID, reminderTypes, startOfDay)
		if err != nil {
			s.logger.Error("Reminder run aborted, duplicate check failed",
				"window", windowName(w), "appointment_id", c.ID, "error", err)
			return 0
		}
		if exists {
			s.logger.Info("Reminder already sent today, skipping",
				"appointment_id", c.ID)
			skipped++
			continue
		}

		batch = append(batch, BuildNotifications(c, w, s.loc, now)...)
	}

	if len(batch) == 0 {
		s.logger.Info("No reminders to create",
			"window", windowName(w), "candidates", len(candidates), "skipped", skipped)
		return 0
	}

	created, err := s.store.InsertBatch(ctx, batch)
	if err != nil {
		s.logger.Error("Reminder run aborted, batch insert failed",
			"window", windowName(w), "batch", len(batch), "error", err)
		return 0
	}

	s.logger.Info("Reminders created",
		"window", windowName(w),
		"candidates", len(candidates),
		"skipped", skipped,
		"created", created)
	return created
}

// recipients returns the party identifiers whose prior notifications
// suppress this appointment.
func recipients(c Candidate) []string {
	var ids []string
	if c.WorkerID != nil {
		ids = append(ids, *c.WorkerID)
	}
	if c.ClinicianID != nil {
		ids = append(ids, *c.ClinicianID)
	}
	return ids
}

func windowName(w Window) string {
	if w == WindowSoon {
		return "soon"
	}
	return "today"
}
