// Package calendar defines the scheduling-provider interface the dispatcher
// consumes, plus the Calendly v2 REST implementation and a deterministic
// mock.
package calendar

import (
	"context"
	"time"
)

// Event is a hosted scheduled event with its invitees.
type Event struct {
	Name      string    `json:"name"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	Status    string    `json:"status"`
	Location  string    `json:"location"`
	Invitees  []Invitee `json:"invitees"`
}

// Invitee is one participant of a scheduled event.
type Invitee struct {
	Name                string `json:"name"`
	Email               string `json:"email"`
	QuestionsAndAnswers []QA   `json:"questions_and_answers"`
	Timezone            string `json:"timezone"`
}

// QA is one booking-form question with the invitee's answer.
type QA struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Link is a one-time scheduling link.
type Link struct {
	URL string `json:"url"`
}

// Window names a sub-range of a calendar day.
type Window string

const (
	Morning   Window = "morning"   // 08:00-12:00
	Afternoon Window = "afternoon" // 12:00-17:00
	Evening   Window = "evening"   // 17:00-21:00
	Day       Window = "day"       // 00:00-24:00
)

// Bounds returns the window's absolute start and end on a given date in the
// given timezone.
func (w Window) Bounds(date time.Time, loc *time.Location) (time.Time, time.Time) {
	y, m, d := date.Date()
	at := func(hour int) time.Time {
		return time.Date(y, m, d, hour, 0, 0, 0, loc)
	}
	switch w {
	case Morning:
		return at(8), at(12)
	case Afternoon:
		return at(12), at(17)
	case Evening:
		return at(17), at(21)
	default:
		return at(0), at(0).AddDate(0, 0, 1)
	}
}

// Service is the provider-agnostic scheduling interface.
type Service interface {
	// ListEventsOn returns events the key's owner hosts inside the window
	// on the given date.
	ListEventsOn(ctx context.Context, date time.Time, window Window, loc *time.Location, key string) ([]Event, error)

	// CreateSchedulingLink creates a one-time booking link.
	CreateSchedulingLink(ctx context.Context, key string) (*Link, error)
}
