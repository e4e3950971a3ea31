// Package db provides a pgxpool-based connection pool with prepared statement
// registration and health checking.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lumenrehab/casedata/internal/config"
)

// Pool wraps pgxpool.Pool with application-specific helpers.
type Pool struct {
	*pgxpool.Pool
}

// New creates and validates a new connection pool.
func New(ctx context.Context, cfg *config.Config) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MinConns = int32(cfg.DBPoolMinConns)
	poolCfg.MaxConns = int32(cfg.DBPoolMaxConns)
	poolCfg.MaxConnLifetime = cfg.DBPoolMaxLife
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	// Register prepared statements on every new connection.
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return registerPreparedStatements(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// Verify connectivity
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// HealthCheck runs a trivial query to verify the database is reachable.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var n int
	return p.QueryRow(ctx, "health_check").Scan(&n)
}

// registerPreparedStatements registers all statements the API and reminder
// layers use. Prepared statements eliminate parse overhead on every tick.
func registerPreparedStatements(ctx context.Context, conn *pgx.Conn) error {
	stmts := map[string]string{
		// Health
		"health_check": "SELECT 1",

		// Reminders: candidate appointments in a window, with display fields
		// for message templating. Half-open interval [from, to).
		"appointments_in_window": `
			SELECT a.id, a.scheduled_at, a.status, a.kind, a.location,
			       a.zoom_join_url, a.worker_id, a.clinician_id, a.case_id,
			       w.full_name, cl.full_name, cs.case_number
			FROM appointments a
			LEFT JOIN users w  ON w.id  = a.worker_id
			LEFT JOIN users cl ON cl.id = a.clinician_id
			LEFT JOIN cases cs ON cs.id = a.case_id
			WHERE a.status = ANY($1)
			  AND a.scheduled_at >= $2
			  AND a.scheduled_at < $3
			ORDER BY a.scheduled_at`,

		// Reminders: duplicate suppression pre-check
		"reminder_exists": `
			SELECT count(*) FROM notifications
			WHERE recipient_id = ANY($1)
			  AND appointment_id = $2
			  AND type = ANY($3)
			  AND created_at >= $4`,

		// API: recipient notification feed
		"notifications_for_recipient": `
			SELECT id, recipient_id, type, title, message, priority,
			       action_url, appointment_id, case_id, read, created_at
			FROM notifications
			WHERE recipient_id = $1
			ORDER BY created_at DESC
			LIMIT $2`,

		// API: unread count badge
		"unread_notification_count": `
			SELECT count(*) FROM notifications
			WHERE recipient_id = $1 AND read = false`,

		// Listener: appointment lookup for change events
		"appointment_by_id": `
			SELECT a.id, a.scheduled_at, a.status, a.kind, a.location,
			       a.zoom_join_url, a.worker_id, a.clinician_id, a.case_id,
			       w.full_name, cl.full_name, cs.case_number
			FROM appointments a
			LEFT JOIN users w  ON w.id  = a.worker_id
			LEFT JOIN users cl ON cl.id = a.clinician_id
			LEFT JOIN cases cs ON cs.id = a.case_id
			WHERE a.id = $1`,
	}

	for name, sql := range stmts {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return fmt.Errorf("prepare %q: %w", name, err)
		}
	}
	return nil
}
