package calendar

import (
	"context"
	"time"
)

// Mock is a deterministic Service for tests.
type Mock struct {
	Events []Event
	Link   *Link
	Err    error

	// LastDate and LastWindow record the most recent lookup.
	LastDate   time.Time
	LastWindow Window
	LastKey    string
}

// ListEventsOn returns the canned events.
func (m *Mock) ListEventsOn(_ context.Context, date time.Time, window Window, _ *time.Location, key string) ([]Event, error) {
	m.LastDate = date
	m.LastWindow = window
	m.LastKey = key
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Events, nil
}

// CreateSchedulingLink returns the canned link.
func (m *Mock) CreateSchedulingLink(_ context.Context, key string) (*Link, error) {
	m.LastKey = key
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Link, nil
}
