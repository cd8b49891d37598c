package task

import (
	"strings"
	"time"
)

// DateLayout is the ISO calendar-date format carried by the REST API.
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD string into UTC midnight.
// Empty or malformed input reports false; it is never an error.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, false
	}

	return d, true
}

// FormatDate renders a date in the API's calendar-date format.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// Midnight drops the time-of-day and zone, keeping the calendar date seen in t's location.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
