package reminder

import (
	"fmt"
	"time"
)

// Window selects which pipeline's templates and priority apply.
type Window int

const (
	WindowToday Window = iota // daily sweep, priority high
	WindowSoon                // hourly sweep, priority urgent
)

// BuildNotifications derives up to two notification records for one
// appointment: one for the worker (whenever a worker is associated) and
// one for the clinician (only when a clinician is associated and the
// worker's name resolved, since the clinician message interpolates it).
//
// loc is the clinic timezone used to format the start time; now is the
// reference time for minutes-remaining in the soon window.
func BuildNotifications(c Candidate, w Window, loc *time.Location, now time.Time) []Notification {
	title := buildTitle(c, w)
	priority := PriorityHigh
	if w == WindowSoon {
		priority = PriorityUrgent
	}

	notifType := TypeAppointmentReminder
	if c.Remote() {
		notifType = TypeZoomMeetingReminder
	}

	actionURL := "/appointments/" + c.ID
	apptID := c.ID

	var out []Notification

	if c.WorkerID != nil {
		out = append(out, Notification{
			RecipientID:   *c.WorkerID,
			Type:          notifType,
			Title:         title,
			Message:       workerMessage(c, w, loc, now),
			Priority:      priority,
			ActionURL:     &actionURL,
			AppointmentID: &apptID,
			CaseID:        c.CaseID,
		})
	}

	if c.ClinicianID != nil && c.WorkerName != nil && *c.WorkerName != "" {
		out = append(out, Notification{
			RecipientID:   *c.ClinicianID,
			Type:          notifType,
			Title:         title,
			Message:       clinicianMessage(c, w, loc, now),
			Priority:      priority,
			ActionURL:     &actionURL,
			AppointmentID: &apptID,
			CaseID:        c.CaseID,
		})
	}

	return out
}

func buildTitle(c Candidate, w Window) string {
	switch {
	case c.Remote() && w == WindowToday:
		return "Zoom Meeting Today"
	case c.Remote():
		return "Zoom Meeting Starting Soon"
	case w == WindowToday:
		return "Appointment Today"
	default:
		return "Appointment Starting Soon"
	}
}

func workerMessage(c Candidate, w Window, loc *time.Location, now time.Time) string {
	kind := "appointment"
	if c.Remote() {
		kind = "Zoom meeting"
	}
	if w == WindowToday {
		return fmt.Sprintf("You have a %s today at %s.", kind, startClock(c, loc))
	}
	return fmt.Sprintf("Your %s starts in %d minutes.", kind, MinutesUntil(c.ScheduledAt, now))
}

func clinicianMessage(c Candidate, w Window, loc *time.Location, now time.Time) string {
	kind := "Appointment"
	if c.Remote() {
		kind = "Zoom meeting"
	}

	with := *c.WorkerName
	if c.CaseNumber != nil && *c.CaseNumber != "" {
		with = fmt.Sprintf("%s (case %s)", with, *c.CaseNumber)
	}

	if w == WindowToday {
		return fmt.Sprintf("%s with %s today at %s.", kind, with, startClock(c, loc))
	}
	return fmt.Sprintf("%s with %s starts in %d minutes.", kind, with, MinutesUntil(c.ScheduledAt, now))
}

// startClock formats the appointment start as clinic-local time of day.
func startClock(c Candidate, loc *time.Location) string {
	return c.ScheduledAt.In(loc).Format("15:04")
}
