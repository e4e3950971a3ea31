package reminder

import "time"

// TodayWindow returns the half-open interval [start of the current day,
// start of the next day) in loc. Appointments are stored in UTC; "today"
// is defined by the clinic's wall clock.
func TodayWindow(now time.Time, loc *time.Location) (from, to time.Time) {
	local := now.In(loc)
	from = time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	to = from.AddDate(0, 0, 1)
	return from, to
}

// SoonWindow returns the interval [now, now+60m]. The query uses a
// half-open upper bound, so a nanosecond is added to keep an appointment
// at exactly now+60m inside the window.
func SoonWindow(now time.Time) (from, to time.Time) {
	return now, now.Add(soonWindow + time.Nanosecond)
}

// WithinSoonWindow re-checks the remaining time against the fetched
// timestamp: strictly more than zero and at most 60 minutes. Guards
// against clock drift between the query boundary and processing time.
func WithinSoonWindow(scheduledAt, now time.Time) bool {
	d := scheduledAt.Sub(now)
	return d > 0 && d <= soonWindow
}

// MinutesUntil returns the whole minutes remaining until scheduledAt,
// used in the soon-window message text.
func MinutesUntil(scheduledAt, now time.Time) int {
	return int(scheduledAt.Sub(now).Minutes())
}
