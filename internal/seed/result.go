// Package seed provides demo-data upsert orchestration for local and
// staging environments.
package seed

import "fmt"

// SeedResult tracks counts and errors from a seeding operation.
type SeedResult struct {
	UsersUpserted        int
	CasesUpserted        int
	AppointmentsUpserted int
	Errors               []string
}

// AddErrorf records a formatted error message.
func (r *SeedResult) AddErrorf(format string, args ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Summary returns a human-readable summary of the seed operation.
func (r *SeedResult) Summary() string {
	return fmt.Sprintf(
		"users=%d cases=%d appointments=%d errors=%d",
		r.UsersUpserted, r.CasesUpserted, r.AppointmentsUpserted,
		len(r.Errors),
	)
}
