// Package listener provides a Postgres LISTEN/NOTIFY consumer for
// real-time appointment change processing. It holds a dedicated pgx
// connection (not from the pool) listening on the `appointment_events`
// channel.
//
// When the appointment-management subsystem confirms, cancels, or
// reschedules an appointment, its trigger fires pg_notify and this
// consumer writes update notifications for the worker and clinician.
package listener

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lumenrehab/casedata/internal/reminder"
)

const (
	channel          = "appointment_events"
	reconnectBackoff = 5 * time.Second
	maxReconnect     = 30 * time.Second
)

// AppointmentEvent is the JSON payload from pg_notify('appointment_events', ...).
type AppointmentEvent struct {
	AppointmentID string `json:"appointment_id"`
	Change        string `json:"change"` // confirmed | cancelled | rescheduled
	Timestamp     int64  `json:"ts"`
}

// Start opens a dedicated connection and listens on the appointment_events
// channel. It reconnects automatically on connection loss. Blocks until ctx
// is cancelled. Intended to be called with `go`.
func Start(ctx context.Context, dbURL string, pool *pgxpool.Pool, store reminder.Store, loc *time.Location, logger *slog.Logger) {
	backoff := reconnectBackoff

	for {
		err := listenLoop(ctx, dbURL, pool, store, loc, logger)
		if ctx.Err() != nil {
			logger.Info("Appointment listener stopped (context cancelled)")
			return
		}

		logger.Error("Appointment listener disconnected, reconnecting...",
			"error", err, "backoff", backoff)

		select {
		case <-time.After(backoff):
			backoff = min(backoff*2, maxReconnect)
		case <-ctx.Done():
			return
		}
	}
}

// listenLoop runs a single listen session. Returns when the connection
// drops or the context is cancelled.
func listenLoop(ctx context.Context, dbURL string, pool *pgxpool.Pool, store reminder.Store, loc *time.Location, logger *slog.Logger) error {
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(context.Background())

	_, err = conn.Exec(ctx, "LISTEN "+channel)
	if err != nil {
		return fmt.Errorf("LISTEN %s: %w", channel, err)
	}
	logger.Info("Appointment listener connected", "channel", channel)

	for {
		notification, err := conn.WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("wait for notification: %w", err)
		}

		var event AppointmentEvent
		if err := json.Unmarshal([]byte(notification.Payload), &event); err != nil {
			logger.Warn("Failed to parse appointment event",
				"payload", notification.Payload, "error", err)
			continue
		}

		logger.Info("Appointment event received",
			"appointment_id", event.AppointmentID, "change", event.Change)

		// Process asynchronously to avoid blocking the listener
		go handleChange(ctx, pool, store, event, loc, logger)
	}
}

// handleChange loads the appointment and writes one update notification
// per associated party.
func handleChange(ctx context.Context, pool *pgxpool.Pool, store reminder.Store, event AppointmentEvent, loc *time.Location, logger *slog.Logger) {
	c, err := getAppointment(ctx, pool, event.AppointmentID)
	if err != nil {
		logger.Warn("Failed to load appointment for change event",
			"appointment_id", event.AppointmentID, "error", err)
		return
	}

	batch := buildChangeNotifications(*c, event.Change, loc)
	if len(batch) == 0 {
		return
	}

	created, err := store.InsertBatch(ctx, batch)
	if err != nil {
		logger.Warn("Failed to write change notifications",
			"appointment_id", event.AppointmentID, "error", err)
		return
	}
	logger.Info("Change notifications created",
		"appointment_id", event.AppointmentID, "change", event.Change, "created", created)
}

// buildChangeNotifications derives the update records for one change event.
func buildChangeNotifications(c reminder.Candidate, change string, loc *time.Location) []reminder.Notification {
	when := c.ScheduledAt.In(loc).Format("Jan 2 at 15:04")

	var title, message string
	switch change {
	case "confirmed":
		title = "Appointment Confirmed"
		message = fmt.Sprintf("Your appointment on %s has been confirmed.", when)
	case "cancelled":
		title = "Appointment Cancelled"
		message = fmt.Sprintf("Your appointment on %s has been cancelled. Please contact the clinic to reschedule.", when)
	case "rescheduled":
		title = "Appointment Rescheduled"
		message = fmt.Sprintf("Your appointment has been moved to %s.", when)
	default:
		title = "Appointment Updated"
		message = "Your appointment details have been updated."
	}

	actionURL := "/appointments/" + c.ID
	apptID := c.ID

	var out []reminder.Notification
	for _, id := range []*string{c.WorkerID, c.ClinicianID} {
		if id == nil {
			continue
		}
		out = append(out, reminder.Notification{
			RecipientID:   *id,
			Type:          reminder.TypeAppointmentUpdate,
			Title:         title,
			Message:       message,
			Priority:      reminder.PriorityNormal,
			ActionURL:     &actionURL,
			AppointmentID: &apptID,
			CaseID:        c.CaseID,
		})
	}
	return out
}

func getAppointment(ctx context.Context, pool *pgxpool.Pool, id string) (*reminder.Candidate, error) {
	var c reminder.Candidate
	err := pool.QueryRow(ctx, "appointment_by_id", id).Scan(
		&c.ID, &c.ScheduledAt, &c.Status, &c.Kind, &c.Location,
		&c.ZoomJoinURL, &c.WorkerID, &c.ClinicianID, &c.CaseID,
		&c.WorkerName, &c.ClinicianName, &c.CaseNumber,
	)
	if err != nil {
		return nil, fmt.Errorf("get appointment %s: %w", id, err)
	}
	return &c, nil
}
