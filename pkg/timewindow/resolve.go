package timewindow

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	lastWeeksRe  = regexp.MustCompile(`^(?:last|past)\s+(\d+)\s+weeks?\b`)
	lastDaysRe   = regexp.MustCompile(`^(?:last|past)\s+(\d+)\s+days?\b`)
	lastMonthsRe = regexp.MustCompile(`^(?:last|past)\s+(\d+)\s+months?\b`)
	rangeSplitRe = regexp.MustCompile(`\s*(?:to|through|until)\s*|\s*-\s*`)
	monthYearRe  = regexp.MustCompile(`^([A-Za-z]+)\s+(\d{4})$`)
)

// ResolveInterval turns a human time phrase into an inclusive date interval
// bounded by [today-horizonDays, today]. An empty phrase resolves to no
// interval (nil, nil); the caller should fall back to an unbounded
// recent-items query. Failures carry a *ResolveError.
func ResolveInterval(phrase string, today time.Time, horizonDays int) (*Interval, error) {
	original := strings.TrimSpace(phrase)
	if original == "" {
		return nil, nil
	}
	if horizonDays <= 0 {
		horizonDays = DefaultHorizonDays
	}
	today = DateOf(today)
	earliest := today.AddDate(0, 0, -horizonDays)
	tw := strings.ToLower(original)

	clamp := func(start, end time.Time) (*Interval, error) {
		if end.Before(earliest) {
			return nil, &ResolveError{Kind: ErrOutOfRange, Phrase: original, Horizon: horizonDays}
		}
		if start.Before(earliest) {
			start = earliest
		}
		if end.After(today) {
			end = today
		}
		if start.After(end) {
			return nil, &ResolveError{Kind: ErrUnresolvable, Phrase: original, Horizon: horizonDays, Collapsed: true}
		}
		return &Interval{Start: start, End: end}, nil
	}

	switch tw {
	case "today":
		return clamp(today, today)
	case "yesterday", "yday":
		day := today.AddDate(0, 0, -1)
		return clamp(day, day)
	case "this week":
		start := today.AddDate(0, 0, -daysSinceMonday(today))
		return clamp(start, today)
	case "last week":
		startOfThisWeek := today.AddDate(0, 0, -daysSinceMonday(today))
		end := startOfThisWeek.AddDate(0, 0, -1)
		return clamp(end.AddDate(0, 0, -6), end)
	case "this month":
		return clamp(Date(today.Year(), today.Month(), 1), today)
	case "last month":
		firstThisMonth := Date(today.Year(), today.Month(), 1)
		lastPrevMonth := firstThisMonth.AddDate(0, 0, -1)
		return clamp(Date(lastPrevMonth.Year(), lastPrevMonth.Month(), 1), lastPrevMonth)
	}

	if m := lastWeeksRe.FindStringSubmatch(tw); m != nil {
		n := clampInt(mustAtoi(m[1]), 1, 12)
		return clamp(today.AddDate(0, 0, -7*n), today)
	}
	if m := lastDaysRe.FindStringSubmatch(tw); m != nil {
		n := clampInt(mustAtoi(m[1]), 1, horizonDays)
		return clamp(today.AddDate(0, 0, -n), today)
	}
	if m := lastMonthsRe.FindStringSubmatch(tw); m != nil {
		n := clampInt(mustAtoi(m[1]), 1, 3)
		year, month := today.Year(), today.Month()
		for i := 0; i < n; i++ {
			month--
			if month == 0 {
				month = time.December
				year--
			}
		}
		start, _ := monthRange(month, year)
		return clamp(start, today)
	}

	if parts := splitRange(original); len(parts) == 2 {
		start, okStart := ParseSingleDay(parts[0], today)
		end, okEnd := ParseSingleDay(parts[1], today)
		if okStart && okEnd {
			if end.Before(start) {
				start, end = end, start
			}
			return clamp(start, end)
		}
	}

	if month, ok := monthAliases[tw]; ok {
		year := today.Year()
		if month > today.Month() {
			year--
		}
		start, end := monthRange(month, year)
		return clamp(start, end)
	}

	if m := monthYearRe.FindStringSubmatch(original); m != nil {
		if month, ok := monthAliases[strings.ToLower(m[1])]; ok {
			start, end := monthRange(month, mustAtoi(m[2]))
			return clamp(start, end)
		}
	}

	if day, ok := ParseSingleDay(original, today); ok {
		return clamp(day, day)
	}

	return nil, &ResolveError{Kind: ErrUnresolvable, Phrase: original, Horizon: horizonDays}
}

// monthRange returns the first and last day of a calendar month.
func monthRange(month time.Month, year int) (time.Time, time.Time) {
	first := Date(year, month, 1)
	last := first.AddDate(0, 1, -1)
	return first, last
}

// daysSinceMonday counts days back to the start of the ISO week.
func daysSinceMonday(d time.Time) int {
	return (int(d.Weekday()) + 6) % 7
}

func splitRange(s string) []string {
	var parts []string
	for _, p := range rangeSplitRe.Split(s, -1) {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

func clampInt(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

func mustAtoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
