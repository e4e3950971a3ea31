// Package reminder scans the appointments table on a schedule and writes
// reminder rows into the notifications table.
//
// Pipeline: window query → duplicate suppression → batch build → persist.
// Two pipelines run on fixed cron schedules: a daily sweep over today's
// appointments and an hourly sweep over appointments starting within the
// next 60 minutes. Store failures are logged and swallowed per tick; the
// next tick retries the window query naturally.
package reminder

import (
	"context"
	"time"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	// LocationTelehealth marks remote appointments. Combined with a Zoom
	// join URL it selects the remote-meeting message templates.
	LocationTelehealth = "telehealth"

	soonWindow = 60 * time.Minute
	runTimeout = 2 * time.Minute
)

// Appointment statuses that receive reminders.
var reminderStatuses = []string{"scheduled", "confirmed"}

// NotificationType identifies the notification family.
type NotificationType string

const (
	TypeAppointmentReminder NotificationType = "appointment_reminder"
	TypeZoomMeetingReminder NotificationType = "zoom_meeting_reminder"
	TypeAppointmentUpdate   NotificationType = "appointment_update"
)

// reminderTypes is the type family checked during duplicate suppression.
var reminderTypes = []string{
	string(TypeAppointmentReminder),
	string(TypeZoomMeetingReminder),
}

// Priority is the notification urgency level.
type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// --------------------------------------------------------------------------
// Types
// --------------------------------------------------------------------------

// Candidate is an appointment row with the denormalized display fields
// needed for message templating.
type Candidate struct {
	ID          string
	ScheduledAt time.Time
	Status      string
	Kind        string
	Location    string
	ZoomJoinURL *string
	WorkerID    *string
	ClinicianID *string
	CaseID      *string

	WorkerName    *string
	ClinicianName *string
	CaseNumber    *string
}

// Remote reports whether the candidate uses the remote-meeting templates:
// telehealth location with meeting metadata present.
func (c Candidate) Remote() bool {
	return c.Location == LocationTelehealth && c.ZoomJoinURL != nil && *c.ZoomJoinURL != ""
}

// Notification is a reminder row ready for batch insertion. The store
// assigns id and created_at.
type Notification struct {
	RecipientID   string
	Type          NotificationType
	Title         string
	Message       string
	Priority      Priority
	ActionURL     *string
	AppointmentID *string
	CaseID        *string
}

// Store is the persistence boundary for the reminder pipelines.
type Store interface {
	// AppointmentsInWindow returns appointments with a status in statuses
	// whose scheduled timestamp falls in the half-open interval [from, to).
	AppointmentsInWindow(ctx context.Context, statuses []string, from, to time.Time) ([]Candidate, error)

	// ReminderExists reports whether any notification of the given types
	// was created at or after since, addressed to any of recipients and
	// related to appointmentID.
	ReminderExists(ctx context.Context, recipients []string, appointmentID string, types []string, since time.Time) (bool, error)

	// InsertBatch persists all notifications in a single round trip and
	// returns the number of rows written.
	InsertBatch(ctx context.Context, batch []Notification) (int, error)
}
