package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore implements Store on a pgxpool.Pool using the prepared statements
// registered in internal/db.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore creates a Postgres-backed reminder store.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// AppointmentsInWindow returns candidate appointments in [from, to) with
// worker/clinician/case display fields joined in.
func (s *PgStore) AppointmentsInWindow(ctx context.Context, statuses []string, from, to time.Time) ([]Candidate, error) {
	rows, err := s.pool.Query(ctx, "appointments_in_window", statuses, from, to)
	if err != nil {
		return nil, fmt.Errorf("appointments in window: %w", err)
	}
	defer rows.Close()

	var candidates []Candidate
	for rows.Next() {
		var c Candidate
		if err := rows.Scan(
			&c.ID, &c.ScheduledAt, &c.Status, &c.Kind, &c.Location,
			&c.ZoomJoinURL, &c.WorkerID, &c.ClinicianID, &c.CaseID,
			&c.WorkerName, &c.ClinicianName, &c.CaseNumber,
		); err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

// ReminderExists reports whether a qualifying notification already exists.
func (s *PgStore) ReminderExists(ctx context.Context, recipients []string, appointmentID string, types []string, since time.Time) (bool, error) {
	if len(recipients) == 0 {
		return false, nil
	}
	var n int
	err := s.pool.QueryRow(ctx, "reminder_exists", recipients, appointmentID, types, since).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("reminder exists: %w", err)
	}
	return n > 0, nil
}

// InsertBatch writes all notifications in one SendBatch round trip.
func (s *PgStore) InsertBatch(ctx context.Context, batch []Notification) (int, error) {
	if len(batch) == 0 {
		return 0, nil
	}

	b := &pgx.Batch{}
	for _, n := range batch {
		b.Queue(`
			INSERT INTO notifications (
				recipient_id, type, title, message, priority,
				action_url, appointment_id, case_id
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			n.RecipientID, string(n.Type), n.Title, n.Message, string(n.Priority),
			n.ActionURL, n.AppointmentID, n.CaseID,
		)
	}

	results := s.pool.SendBatch(ctx, b)
	defer results.Close()

	inserted := 0
	for range batch {
		if _, err := results.Exec(); err != nil {
			return inserted, fmt.Errorf("insert notification: %w", err)
		}
		inserted++
	}
	return inserted, nil
}
