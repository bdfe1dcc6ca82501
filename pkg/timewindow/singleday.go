package timewindow

import (
	"regexp"
	"strings"
	"time"
)

var (
	ordinalRe    = regexp.MustCompile(`(?i)(\d+)(st|nd|rd|th)`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// monthAliases maps full and abbreviated month names to their index.
var monthAliases = func() map[string]time.Month {
	m := make(map[string]time.Month, 24)
	for month := time.January; month <= time.December; month++ {
		name := month.String()
		m[strings.ToLower(name)] = month
		m[strings.ToLower(name[:3])] = month
	}
	return m
}()

// Layouts tried in order for dates that carry an explicit year. Lenient
// day/month widths so "5 August 2025" and "05 August 2025" both parse.
var dayLayoutsWithYear = []string{
	"2006-1-2",
	"2006/1/2",
	"2 January 2006",
	"January 2 2006",
	"2 Jan 2006",
	"Jan 2 2006",
}

// Year-less forms; the year is inferred as the most recent occurrence not in
// the future.
var dayLayoutsWithoutYear = []string{
	"January 2",
	"Jan 2",
	"2 January",
	"2 Jan",
}

// ParseSingleDay parses one calendar-day reference such as "2025-08-14",
// "Aug 14", "14th August" or "March". It strips ordinal suffixes and
// normalizes whitespace and casing before matching. The second return is
// false when nothing matches; it never fails hard.
func ParseSingleDay(value string, today time.Time) (time.Time, bool) {
	cleaned := ordinalRe.ReplaceAllString(strings.TrimSpace(value), "$1")
	cleaned = strings.ReplaceAll(cleaned, ",", " ")
	cleaned = strings.TrimSpace(whitespaceRe.ReplaceAllString(cleaned, " "))
	if cleaned == "" {
		return time.Time{}, false
	}
	today = DateOf(today)
	normalized := titleWords(cleaned)

	for _, layout := range dayLayoutsWithYear {
		if t, err := time.Parse(layout, normalized); err == nil {
			return DateOf(t), true
		}
	}
	for _, layout := range dayLayoutsWithoutYear {
		if t, err := time.Parse(layout, normalized); err == nil {
			candidate := Date(today.Year(), t.Month(), t.Day())
			if candidate.After(today) {
				candidate = Date(today.Year()-1, t.Month(), t.Day())
			}
			return candidate, true
		}
	}
	if month, ok := monthAliases[strings.ToLower(normalized)]; ok {
		year := today.Year()
		if month > today.Month() {
			year--
		}
		return Date(year, month, 1), true
	}
	if m := monthYearRe.FindStringSubmatch(normalized); m != nil {
		if month, ok := monthAliases[strings.ToLower(m[1])]; ok {
			return Date(mustAtoi(m[2]), month, 1), true
		}
	}
	if t, err := time.Parse("2/1/2006", cleaned); err == nil {
		return DateOf(t), true
	}
	return time.Time{}, false
}

// ResolveSingleDate turns a single-day reference ("monday", "yesterday",
// "2025-08-14") into one calendar date. A weekday name resolves to its most
// recent past occurrence, never today. Unresolvable input falls back to
// today; this path is deliberately lenient and never errors.
func ResolveSingleDate(phrase string, today time.Time) time.Time {
	today = DateOf(today)
	ref := strings.ToLower(strings.TrimSpace(phrase))
	if ref == "" || ref == "today" {
		return today
	}
	if ref == "yesterday" || ref == "yday" {
		return today.AddDate(0, 0, -1)
	}
	weekdays := []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}
	for i, name := range weekdays {
		if ref != name {
			continue
		}
		delta := (daysSinceMonday(today) - i + 7) % 7
		if delta == 0 {
			delta = 7
		}
		return today.AddDate(0, 0, -delta)
	}
	if t, err := time.Parse("2006-01-02", ref); err == nil {
		return DateOf(t)
	}
	return today
}

// titleWords capitalizes the first letter of each space-separated word so
// month names match Go's case-sensitive time layouts.
func titleWords(s string) string {
	words := strings.Split(s, " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}
