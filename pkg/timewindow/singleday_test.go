package timewindow

import (
	"testing"
	"time"
)

func TestParseSingleDay(t *testing.T) {
	today := Date(2025, time.August, 30)

	tests := []struct {
		value string
		want  time.Time
	}{
		{"2025-08-14", Date(2025, 8, 14)},
		{"2025/08/14", Date(2025, 8, 14)},
		{"14 August 2025", Date(2025, 8, 14)},
		{"august 14 2025", Date(2025, 8, 14)},
		{"Aug 14, 2025", Date(2025, 8, 14)},
		{"5 August 2025", Date(2025, 8, 5)},
		{"14th August", Date(2025, 8, 14)},
		{"aug 14", Date(2025, 8, 14)},
		// A year-less date in the future resolves to last year.
		{"September 5", Date(2024, 9, 5)},
		// Bare months resolve to their first day, last year when future.
		{"march", Date(2025, 3, 1)},
		{"December", Date(2024, 12, 1)},
		{"March 2024", Date(2024, 3, 1)},
		// Day-first numeric fallback.
		{"14/08/2025", Date(2025, 8, 14)},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got, ok := ParseSingleDay(tt.value, today)
			if !ok {
				t.Fatalf("parse %q: no match", tt.value)
			}
			if !got.Equal(tt.want) {
				t.Fatalf("parse %q = %s, want %s",
					tt.value, got.Format("2006-01-02"), tt.want.Format("2006-01-02"))
			}
		})
	}
}

func TestParseSingleDayNoMatch(t *testing.T) {
	today := Date(2025, time.August, 30)
	for _, value := range []string{"", "   ", "notadate", "32 August 2025"} {
		if _, ok := ParseSingleDay(value, today); ok {
			t.Fatalf("parse %q: expected no match", value)
		}
	}
}

func TestResolveSingleDate(t *testing.T) {
	// Saturday.
	today := Date(2025, time.August, 30)

	tests := []struct {
		ref  string
		want time.Time
	}{
		{"", today},
		{"today", today},
		{"yesterday", Date(2025, 8, 29)},
		{"yday", Date(2025, 8, 29)},
		{"friday", Date(2025, 8, 29)},
		{"monday", Date(2025, 8, 25)},
		{"sunday", Date(2025, 8, 24)},
		{"2025-08-14", Date(2025, 8, 14)},
		// Unresolvable references fall back to today.
		{"sometime", today},
	}

	for _, tt := range tests {
		t.Run("ref="+tt.ref, func(t *testing.T) {
			got := ResolveSingleDate(tt.ref, today)
			if !got.Equal(tt.want) {
				t.Fatalf("resolve %q = %s, want %s",
					tt.ref, got.Format("2006-01-02"), tt.want.Format("2006-01-02"))
			}
		})
	}
}

func TestResolveSingleDateWeekdayNeverToday(t *testing.T) {
	// Asking for "monday" on a Monday means last Monday, not today.
	monday := Date(2025, time.August, 25)
	got := ResolveSingleDate("monday", monday)
	if !got.Equal(Date(2025, 8, 18)) {
		t.Fatalf("monday on a Monday = %s, want 2025-08-18", got.Format("2006-01-02"))
	}
}
