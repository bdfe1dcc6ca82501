// Package timewindow resolves human time phrases ("yesterday", "last 3 weeks",
// "March 2025") into bounded absolute date intervals.
package timewindow

import (
	"fmt"
	"time"
)

// DefaultHorizonDays is how far back a resolved interval may reach.
const DefaultHorizonDays = 40

// Interval is an inclusive range of calendar dates. Both bounds are
// midnight-UTC dates with no time component. Start is never after End.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Date builds a calendar date at midnight UTC.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DateOf truncates t to its calendar date in UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return Date(y, m, d)
}

// Days returns the number of days spanned by the interval, inclusive.
func (iv Interval) Days() int {
	return int(iv.End.Sub(iv.Start).Hours()/24) + 1
}

// Contains reports whether the date falls inside the interval.
func (iv Interval) Contains(d time.Time) bool {
	d = DateOf(d)
	return !d.Before(iv.Start) && !d.After(iv.End)
}

func (iv Interval) String() string {
	return fmt.Sprintf("%s..%s", iv.Start.Format("2006-01-02"), iv.End.Format("2006-01-02"))
}

// ErrorKind tags resolution failures.
type ErrorKind string

const (
	// ErrUnresolvable means the phrase could not be parsed at all, or the
	// clamped interval collapsed.
	ErrUnresolvable ErrorKind = "unresolvable"
	// ErrOutOfRange means the whole interval predates the lookback horizon.
	ErrOutOfRange ErrorKind = "out_of_range"
)

// ResolveError reports why a time phrase could not be resolved. The message
// is user-facing.
type ResolveError struct {
	Kind    ErrorKind
	Phrase  string
	Horizon int
	// Collapsed marks an interval that parsed but emptied under clamping,
	// as opposed to a phrase nothing matched.
	Collapsed bool
}

func (e *ResolveError) Error() string {
	switch {
	case e.Kind == ErrOutOfRange:
		return fmt.Sprintf("I can only access emails from the last %d days.", e.Horizon)
	case e.Collapsed:
		return fmt.Sprintf("I couldn't resolve the time window '%s'.", e.Phrase)
	default:
		return fmt.Sprintf("I couldn't understand the time window '%s'. Try 'yesterday', 'last week', or a specific date like 'July 14'.", e.Phrase)
	}
}
