package reminder

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore records calls and serves canned appointments. Inserted rows
// feed back into ReminderExists so repeated runs observe their own writes.
type fakeStore struct {
	appointments []Candidate
	queryErr     error
	existsErr    error
	insertErr    error

	inserted     []Notification
	insertCalls  int
	existsChecks int
}

func (f *fakeStore) AppointmentsInWindow(ctx context.Context, statuses []string, from, to time.Time) ([]Candidate, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	var out []Candidate
	for _, c := range f.appointments {
		inStatus := false
		for _, s := range statuses {
			if c.Status == s {
				inStatus = true
			}
		}
		if inStatus && !c.ScheduledAt.Before(from) && c.ScheduledAt.Before(to) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeStore) ReminderExists(ctx context.Context, recipients []string, appointmentID string, types []string, since time.Time) (bool, error) {
	f.existsChecks++
	if f.existsErr != nil {
		return false, f.existsErr
	}
	for _, n := range f.inserted {
		if n.AppointmentID == nil || *n.AppointmentID != appointmentID {
			continue
		}
		for _, r := range recipients {
			if n.RecipientID == r {
				for _, ty := range types {
					if string(n.Type) == ty {
						return true, nil
					}
				}
			}
		}
	}
	return false, nil
}

func (f *fakeStore) InsertBatch(ctx context.Context, batch []Notification) (int, error) {
	f.insertCalls++
	if f.insertErr != nil {
		return 0, f.insertErr
	}
	f.inserted = append(f.inserted, batch...)
	return len(batch), nil
}

func testService(store Store, now time.Time) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(store, time.UTC, logger)
	svc.now = func() time.Time { return now }
	return svc
}

func TestTodayPipelineSelectsOnlyTodaysAppointments(t *testing.T) {
	now := time.Date(2026, 7, 4, 8, 0, 0, 0, time.UTC)

	inWindow := candidate()
	inWindow.ScheduledAt = time.Date(2026, 7, 4, 14, 0, 0, 0, time.UTC)

	tomorrow := candidate()
	tomorrow.ID = "apt-2"
	tomorrow.ScheduledAt = time.Date(2026, 7, 5, 9, 0, 0, 0, time.UTC)

	cancelled := candidate()
	cancelled.ID = "apt-3"
	cancelled.Status = "cancelled"

	store := &fakeStore{appointments: []Candidate{inWindow, tomorrow, cancelled}}
	created := testService(store, now).RunTodaysNotifications(context.Background())

	assert.Equal(t, 2, created) // worker + clinician, one appointment
	for _, n := range store.inserted {
		assert.Equal(t, "apt-1", *n.AppointmentID)
	}
}

func TestTodayPipelineIsIdempotentWithinADay(t *testing.T) {
	now := time.Date(2026, 7, 4, 8, 0, 0, 0, time.UTC)
	apt := candidate()
	apt.ScheduledAt = time.Date(2026, 7, 4, 14, 0, 0, 0, time.UTC)
	store := &fakeStore{appointments: []Candidate{apt}}
	svc := testService(store, now)

	first := svc.RunTodaysNotifications(context.Background())
	second := svc.RunTodaysNotifications(context.Background())

	assert.Equal(t, 2, first)
	assert.Equal(t, 0, second)
	assert.Len(t, store.inserted, 2)
}

func TestTodayPipelineSkipsWholeAppointmentOnExistingReminder(t *testing.T) {
	// A zoom_meeting_reminder already sent to the worker today suppresses
	// the clinician record too — full skip, not partial.
	now := time.Date(2026, 7, 4, 8, 0, 0, 0, time.UTC)
	apt := candidate()
	apt.ScheduledAt = time.Date(2026, 7, 4, 14, 0, 0, 0, time.UTC)

	aptID := apt.ID
	store := &fakeStore{
		appointments: []Candidate{apt},
		inserted: []Notification{{
			RecipientID:   "worker-1",
			Type:          TypeZoomMeetingReminder,
			AppointmentID: &aptID,
		}},
	}

	created := testService(store, now).RunTodaysNotifications(context.Background())

	assert.Equal(t, 0, created)
	assert.Len(t, store.inserted, 1) // only the pre-existing row
}

func TestTodayPipelineEndToEndScenario(t *testing.T) {
	now := time.Date(2026, 7, 4, 8, 0, 0, 0, time.UTC)
	apt := candidate()
	apt.ScheduledAt = time.Date(2026, 7, 4, 14, 0, 0, 0, time.UTC)
	store := &fakeStore{appointments: []Candidate{apt}}

	created := testService(store, now).RunTodaysNotifications(context.Background())

	require.Equal(t, 2, created)
	require.Len(t, store.inserted, 2)

	worker, clinician := store.inserted[0], store.inserted[1]
	assert.Equal(t, "worker-1", worker.RecipientID)
	assert.Equal(t, "Zoom Meeting Today", worker.Title)
	assert.Contains(t, worker.Message, "14:00")
	assert.Equal(t, PriorityHigh, worker.Priority)

	assert.Equal(t, "clinician-1", clinician.RecipientID)
	assert.Equal(t, "Zoom Meeting Today", clinician.Title)
	assert.Contains(t, clinician.Message, "Dana Whitfield")
	assert.Equal(t, PriorityHigh, clinician.Priority)
}

func TestUpcomingPipelineBoundaries(t *testing.T) {
	now := time.Date(2026, 7, 4, 14, 0, 0, 0, time.UTC)

	at60 := candidate()
	at60.ID = "apt-60"
	at60.ScheduledAt = now.Add(60 * time.Minute)

	at61 := candidate()
	at61.ID = "apt-61"
	at61.ScheduledAt = now.Add(61 * time.Minute)

	started := candidate()
	started.ID = "apt-started"
	started.ScheduledAt = now.Add(-1 * time.Minute)

	store := &fakeStore{appointments: []Candidate{at60, at61, started}}
	created := testService(store, now).RunUpcomingReminders(context.Background())

	assert.Equal(t, 2, created)
	for _, n := range store.inserted {
		assert.Equal(t, "apt-60", *n.AppointmentID)
		assert.Equal(t, PriorityUrgent, n.Priority)
	}
}

func TestPipelinePersistsOneBatchPerRun(t *testing.T) {
	now := time.Date(2026, 7, 4, 8, 0, 0, 0, time.UTC)

	var appointments []Candidate
	for _, id := range []string{"a", "b", "c"} {
		apt := candidate()
		apt.ID = id
		apt.ScheduledAt = time.Date(2026, 7, 4, 14, 0, 0, 0, time.UTC)
		appointments = append(appointments, apt)
	}
	store := &fakeStore{appointments: appointments}

	created := testService(store, now).RunTodaysNotifications(context.Background())

	assert.Equal(t, 6, created)
	assert.Equal(t, 1, store.insertCalls)
}

func TestPipelineSwallowsStoreErrors(t *testing.T) {
	now := time.Date(2026, 7, 4, 8, 0, 0, 0, time.UTC)

	t.Run("window query fails", func(t *testing.T) {
		store := &fakeStore{queryErr: errors.New("connection refused")}
		created := testService(store, now).RunTodaysNotifications(context.Background())
		assert.Equal(t, 0, created)
		assert.Zero(t, store.insertCalls)
	})

	t.Run("duplicate check fails", func(t *testing.T) {
		apt := candidate()
		apt.ScheduledAt = time.Date(2026, 7, 4, 14, 0, 0, 0, time.UTC)
		store := &fakeStore{appointments: []Candidate{apt}, existsErr: errors.New("timeout")}
		created := testService(store, now).RunTodaysNotifications(context.Background())
		assert.Equal(t, 0, created)
		assert.Zero(t, store.insertCalls)
	})

	t.Run("batch insert fails", func(t *testing.T) {
		apt := candidate()
		apt.ScheduledAt = time.Date(2026, 7, 4, 14, 0, 0, 0, time.UTC)
		store := &fakeStore{appointments: []Candidate{apt}, insertErr: errors.New("constraint")}
		created := testService(store, now).RunTodaysNotifications(context.Background())
		assert.Equal(t, 0, created)
	})
}

func TestPipelineWithoutStoreShortCircuits(t *testing.T) {
	now := time.Date(2026, 7, 4, 8, 0, 0, 0, time.UTC)
	svc := testService(nil, now)

	assert.Equal(t, 0, svc.RunTodaysNotifications(context.Background()))
	assert.Equal(t, 0, svc.RunUpcomingReminders(context.Background()))
}
