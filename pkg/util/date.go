package util

import (
	"time"
)

// DayLayout is the canonical calendar-date layout used across bronze and
// silver tables (ingestion tags, trading dates, run dates).
const DayLayout = "2006-01-02"

// ParseDay parses a calendar date in DayLayout. Returns (t, true) if it worked.
func ParseDay(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(DayLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ParseDayDefault parses a calendar date or returns default if empty/invalid.
func ParseDayDefault(s string, def time.Time) time.Time {
	if t, ok := ParseDay(s); ok {
		return t
	}
	return def
}

// FormatDay formats t as a calendar date in DayLayout (UTC).
func FormatDay(t time.Time) string {
	return t.UTC().Format(DayLayout)
}

// Today returns today's calendar date in DayLayout (UTC).
func Today() string {
	return FormatDay(time.Now())
}

// ParseTime tries RFC3339, a space-separated datetime, then DayLayout.
// Returns (t, true) if any worked. News publish timestamps arrive in all three.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t, true
	}
	return ParseDay(s)
}
