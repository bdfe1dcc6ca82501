// Package intent defines the closed, typed representation of "what the user
// wants" and the extraction pipeline that turns classifier output into a
// valid instance.
package intent

import "fmt"

// Kind is the closed set of supported intents. Unrecognized values are
// rejected, never silently mapped.
type Kind string

const (
	KindSendEmail          Kind = "send_email"
	KindSummarizeEmails    Kind = "summarize_emails"
	KindCalendlyLookup     Kind = "calendly_lookup"
	KindSendSchedulingLink Kind = "send_scheduling_link"
	KindOther              Kind = "other"
)

// Valid reports whether k is a member of the closed enumeration.
func (k Kind) Valid() bool {
	switch k {
	case KindSendEmail, KindSummarizeEmails, KindCalendlyLookup, KindSendSchedulingLink, KindOther:
		return true
	}
	return false
}

// Daypart names a sub-range of a calendar day used to bound calendar
// lookups. Empty means unspecified.
type Daypart string

const (
	Morning   Daypart = "morning"
	Afternoon Daypart = "afternoon"
	Evening   Daypart = "evening"
	Day       Daypart = "day"
)

// Valid reports whether d is a member of the closed enumeration or empty.
func (d Daypart) Valid() bool {
	switch d {
	case "", Morning, Afternoon, Evening, Day:
		return true
	}
	return false
}

// Intent is the immutable classified form of an utterance. Every slot is
// optional; slots irrelevant to the kind are ignored by the dispatcher but
// still validated for type.
type Intent struct {
	Kind Kind `json:"kind"`

	// Common
	AccountEmail string `json:"account_email,omitempty"`

	// send_email
	To            []string `json:"to,omitempty"`
	Subject       string   `json:"subject,omitempty"`
	Message       string   `json:"message,omitempty"`
	Cc            []string `json:"cc,omitempty"`
	Bcc           []string `json:"bcc,omitempty"`
	InReplyToHint string   `json:"in_reply_to_hint,omitempty"` // subject/thread hint

	// summarize_emails
	TimeWindow string `json:"time_window,omitempty"` // e.g. "yesterday", "last 3 days"
	Query      string `json:"query,omitempty"`       // provider search query override
	Focus      string `json:"focus,omitempty"`       // e.g. "important", "unread"

	// calendly_lookup
	CalendlyKey string  `json:"calendly_key,omitempty"`
	DateRef     string  `json:"date_ref,omitempty"` // e.g. "monday", ISO date
	Daypart     Daypart `json:"daypart,omitempty"`
}

// ValidationError means the classifier output failed the Intent shape even
// after normalization. It indicates a classifier/schema mismatch, not a user
// input problem, and is fatal to the request.
type ValidationError struct {
	Field string
	Value any
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("intent validation failed: field %q has invalid value %v", e.Field, e.Value)
}

// Schema is the strict JSON Schema the classifier must produce, used with
// backends that support schema-validated output.
func Schema() map[string]any {
	nullableString := map[string]any{"type": []string{"string", "null"}}
	nullableList := map[string]any{
		"type":  []string{"array", "null"},
		"items": map[string]any{"type": "string"},
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"kind": map[string]any{
				"type": "string",
				"enum": []string{"send_email", "summarize_emails", "calendly_lookup", "send_scheduling_link", "other"},
			},
			"account_email":    nullableString,
			"to":               nullableList,
			"subject":          nullableString,
			"message":          nullableString,
			"cc":               nullableList,
			"bcc":              nullableList,
			"in_reply_to_hint": nullableString,
			"time_window":      nullableString,
			"query":            nullableString,
			"focus":            nullableString,
			"calendly_key":     nullableString,
			"date_ref":         nullableString,
			"daypart": map[string]any{
				"type": []string{"string", "null"},
				"enum": []any{"morning", "afternoon", "evening", "day", nil},
			},
		},
		"required": []string{"kind"},
	}
}
