package util

import (
	"testing"
	"time"
)

func TestParseDay(t *testing.T) {
	got, ok := ParseDay("2025-01-10")
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Year() != 2025 || got.Month() != time.January || got.Day() != 10 {
		t.Fatalf("unexpected date %v", got)
	}
}

func TestParseDayInvalid(t *testing.T) {
	if _, ok := ParseDay("10/01/2025"); ok {
		t.Fatalf("expected not ok")
	}
	if _, ok := ParseDay(""); ok {
		t.Fatalf("expected not ok for empty")
	}
}

func TestParseDayDefault(t *testing.T) {
	def := time.Date(2024, 10, 10, 0, 0, 0, 0, time.UTC)
	got := ParseDayDefault("", def)
	if !got.Equal(def) {
		t.Fatalf("expected default")
	}
}

func TestFormatDayRoundTrip(t *testing.T) {
	s := "2025-08-22"
	d, ok := ParseDay(s)
	if !ok {
		t.Fatalf("expected ok")
	}
	if FormatDay(d) != s {
		t.Fatalf("unexpected format %s", FormatDay(d))
	}
}

func TestParseTimeFormats(t *testing.T) {
	for _, s := range []string{"2025-08-22T14:30:00Z", "2025-08-22 14:30:00", "2025-08-22"} {
		if _, ok := ParseTime(s); !ok {
			t.Fatalf("expected ok for %q", s)
		}
	}
}
