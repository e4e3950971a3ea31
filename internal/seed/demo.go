package seed

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Fixed IDs so re-running the seed updates rows instead of duplicating them.
const (
	workerMarcusID  = "5f1c2d3e-0001-4a00-8000-000000000001"
	workerPriyaID   = "5f1c2d3e-0001-4a00-8000-000000000002"
	clinicianDanaID = "5f1c2d3e-0002-4a00-8000-000000000001"
	clinicianOmarID = "5f1c2d3e-0002-4a00-8000-000000000002"

	caseMarcusID = "5f1c2d3e-0003-4a00-8000-000000000001"
	casePriyaID  = "5f1c2d3e-0003-4a00-8000-000000000002"

	apptTodayClinicID = "5f1c2d3e-0004-4a00-8000-000000000001"
	apptSoonZoomID    = "5f1c2d3e-0004-4a00-8000-000000000002"
	apptTomorrowID    = "5f1c2d3e-0004-4a00-8000-000000000003"
	apptCancelledID   = "5f1c2d3e-0004-4a00-8000-000000000004"
	apptNoClinicianID = "5f1c2d3e-0004-4a00-8000-000000000005"
)

type demoUser struct {
	id, name, email, role string
}

type demoCase struct {
	id, number, workerID string
}

type demoAppointment struct {
	id          string
	scheduledAt time.Time
	status      string
	kind        string
	location    string
	zoomURL     *string
	workerID    *string
	clinicianID *string
	caseID      *string
}

// SeedDemo upserts a small, deterministic demo dataset: two workers, two
// clinicians, their cases, and appointments spread across the reminder
// windows (one later today, one starting within the hour over Zoom, one
// tomorrow, one cancelled).
func SeedDemo(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger) SeedResult {
	var result SeedResult
	now := time.Now().UTC()

	users := []demoUser{
		{workerMarcusID, "Marcus Bell", "marcus.bell@example.com", "worker"},
		{workerPriyaID, "Priya Nair", "priya.nair@example.com", "worker"},
		{clinicianDanaID, "Dana Whitfield", "dana.whitfield@example.com", "clinician"},
		{clinicianOmarID, "Omar Haddad", "omar.haddad@example.com", "clinician"},
	}

	logger.Info("Seeding demo users...")
	for _, u := range users {
		if err := upsertUser(ctx, pool, u); err != nil {
			result.AddErrorf("upsert user %s: %v", u.name, err)
		} else {
			result.UsersUpserted++
		}
	}

	cases := []demoCase{
		{caseMarcusID, "WC-2041", workerMarcusID},
		{casePriyaID, "WC-2078", workerPriyaID},
	}

	logger.Info("Seeding demo cases...")
	for _, c := range cases {
		if err := upsertCase(ctx, pool, c); err != nil {
			result.AddErrorf("upsert case %s: %v", c.number, err)
		} else {
			result.CasesUpserted++
		}
	}

	zoom := "https://zoom.us/j/981234567"
	appointments := []demoAppointment{
		{
			id:          apptTodayClinicID,
			scheduledAt: now.Add(5 * time.Hour),
			status:      "scheduled",
			kind:        "physical assessment",
			location:    "clinic",
			workerID:    strptr(workerMarcusID),
			clinicianID: strptr(clinicianDanaID),
			caseID:      strptr(caseMarcusID),
		},
		{
			id:          apptSoonZoomID,
			scheduledAt: now.Add(45 * time.Minute),
			status:      "confirmed",
			kind:        "progress review",
			location:    "telehealth",
			zoomURL:     &zoom,
			workerID:    strptr(workerPriyaID),
			clinicianID: strptr(clinicianOmarID),
			caseID:      strptr(casePriyaID),
		},
		{
			id:          apptTomorrowID,
			scheduledAt: now.Add(26 * time.Hour),
			status:      "scheduled",
			kind:        "functional capacity evaluation",
			location:    "clinic",
			workerID:    strptr(workerMarcusID),
			clinicianID: strptr(clinicianDanaID),
			caseID:      strptr(caseMarcusID),
		},
		{
			id:          apptCancelledID,
			scheduledAt: now.Add(3 * time.Hour),
			status:      "cancelled",
			kind:        "progress review",
			location:    "clinic",
			workerID:    strptr(workerPriyaID),
			clinicianID: strptr(clinicianOmarID),
			caseID:      strptr(casePriyaID),
		},
		{
			id:          apptNoClinicianID,
			scheduledAt: now.Add(7 * time.Hour),
			status:      "scheduled",
			kind:        "work hardening session",
			location:    "clinic",
			workerID:    strptr(workerMarcusID),
			caseID:      strptr(caseMarcusID),
		},
	}

	logger.Info("Seeding demo appointments...")
	for _, a := range appointments {
		if err := upsertAppointment(ctx, pool, a); err != nil {
			result.AddErrorf("upsert appointment %s: %v", a.id, err)
		} else {
			result.AppointmentsUpserted++
		}
	}

	logger.Info("Demo seed complete", "summary", result.Summary())
	return result
}

func upsertUser(ctx context.Context, pool *pgxpool.Pool, u demoUser) error {
	_, err := pool.Exec(ctx, `
		INSERT INTO users (id, full_name, email, role)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			full_name = EXCLUDED.full_name,
			email     = EXCLUDED.email,
			role      = EXCLUDED.role`,
		u.id, u.name, u.email, u.role)
	return err
}

func upsertCase(ctx context.Context, pool *pgxpool.Pool, c demoCase) error {
	_, err := pool.Exec(ctx, `
		INSERT INTO cases (id, case_number, worker_id, status)
		VALUES ($1, $2, $3, 'open')
		ON CONFLICT (id) DO UPDATE SET
			case_number = EXCLUDED.case_number,
			worker_id   = EXCLUDED.worker_id`,
		c.id, c.number, c.workerID)
	return err
}

func upsertAppointment(ctx context.Context, pool *pgxpool.Pool, a demoAppointment) error {
	_, err := pool.Exec(ctx, `
		INSERT INTO appointments
			(id, scheduled_at, status, kind, location, zoom_join_url,
			 worker_id, clinician_id, case_id, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
		ON CONFLICT (id) DO UPDATE SET
			scheduled_at  = EXCLUDED.scheduled_at,
			status        = EXCLUDED.status,
			kind          = EXCLUDED.kind,
			location      = EXCLUDED.location,
			zoom_join_url = EXCLUDED.zoom_join_url,
			worker_id     = EXCLUDED.worker_id,
			clinician_id  = EXCLUDED.clinician_id,
			case_id       = EXCLUDED.case_id,
			updated_at    = now()`,
		a.id, a.scheduledAt, a.status, a.kind, a.location, a.zoomURL,
		a.workerID, a.clinicianID, a.caseID)
	return err
}

func strptr(s string) *string { return &s }
