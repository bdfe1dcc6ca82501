package intent

import (
	"errors"
	"reflect"
	"testing"
)

func TestNormalizeList(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want []string
	}{
		{"nil", nil, nil},
		{"list of strings", []any{"a@x.com", " b@x.com "}, []string{"a@x.com", "b@x.com"}},
		{"list with empties", []any{"a@x.com", "", "  "}, []string{"a@x.com"}},
		{"comma string", "a@x.com,b@x.com", []string{"a@x.com", "b@x.com"}},
		{"comma string with spaces", "a@x.com, b@x.com ; c@x.com", []string{"a@x.com", "b@x.com", "c@x.com"}},
		{"semicolon string", "a@x.com;b@x.com", []string{"a@x.com", "b@x.com"}},
		{"mixed separators", "a@x.com,;b@x.com", []string{"a@x.com", "b@x.com"}},
		// Whitespace is never a separator: display names stay intact.
		{"display name", "Jane Doe <jane@x.com>", []string{"Jane Doe <jane@x.com>"}},
		{"scalar", 42, []string{"42"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeList(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("normalizeList(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestFromRawBackfill(t *testing.T) {
	it, err := FromRaw(map[string]any{"kind": "summarize_emails"}, "me@example.com", "cal-key")
	if err != nil {
		t.Fatalf("from raw: %v", err)
	}
	if it.AccountEmail != "me@example.com" {
		t.Fatalf("account = %q, want back-filled default", it.AccountEmail)
	}
	if it.CalendlyKey != "cal-key" {
		t.Fatalf("calendly key = %q, want back-filled default", it.CalendlyKey)
	}
}

func TestFromRawClassifierValueWins(t *testing.T) {
	data := map[string]any{
		"kind":          "summarize_emails",
		"account_email": "explicit@example.com",
	}
	it, err := FromRaw(data, "default@example.com", "")
	if err != nil {
		t.Fatalf("from raw: %v", err)
	}
	if it.AccountEmail != "explicit@example.com" {
		t.Fatalf("account = %q, explicit value should win", it.AccountEmail)
	}
}

func TestFromRawBlankValueIsBackfilled(t *testing.T) {
	data := map[string]any{
		"kind":          "summarize_emails",
		"account_email": "  ",
	}
	it, err := FromRaw(data, "default@example.com", "")
	if err != nil {
		t.Fatalf("from raw: %v", err)
	}
	if it.AccountEmail != "default@example.com" {
		t.Fatalf("account = %q, blank value should be back-filled", it.AccountEmail)
	}
}

func TestFromRawFullIntent(t *testing.T) {
	data := map[string]any{
		"kind":             "send_email",
		"to":               "a@x.com, b@x.com",
		"cc":               []any{"c@x.com"},
		"subject":          " Subject ",
		"message":          "Body",
		"in_reply_to_hint": "invoices",
	}
	it, err := FromRaw(data, "", "")
	if err != nil {
		t.Fatalf("from raw: %v", err)
	}
	if it.Kind != KindSendEmail {
		t.Fatalf("kind = %q", it.Kind)
	}
	if !reflect.DeepEqual(it.To, []string{"a@x.com", "b@x.com"}) {
		t.Fatalf("to = %v", it.To)
	}
	if !reflect.DeepEqual(it.Cc, []string{"c@x.com"}) {
		t.Fatalf("cc = %v", it.Cc)
	}
	if it.Subject != "Subject" {
		t.Fatalf("subject = %q, want trimmed", it.Subject)
	}
	if it.InReplyToHint != "invoices" {
		t.Fatalf("hint = %q", it.InReplyToHint)
	}
}

func TestFromRawRejectsUnknownKind(t *testing.T) {
	_, err := FromRaw(map[string]any{"kind": "archive_everything"}, "", "")
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Field != "kind" {
		t.Fatalf("expected kind validation error, got %v", err)
	}
}

func TestFromRawRejectsMistypedSlot(t *testing.T) {
	_, err := FromRaw(map[string]any{"kind": "summarize_emails", "time_window": 7}, "", "")
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Field != "time_window" {
		t.Fatalf("expected time_window validation error, got %v", err)
	}
}

func TestFromRawDaypart(t *testing.T) {
	it, err := FromRaw(map[string]any{"kind": "calendly_lookup", "daypart": "Morning"}, "", "")
	if err != nil {
		t.Fatalf("from raw: %v", err)
	}
	if it.Daypart != Morning {
		t.Fatalf("daypart = %q, want lowercased morning", it.Daypart)
	}

	// "day" is a valid member, asking for the full day.
	it, err = FromRaw(map[string]any{"kind": "calendly_lookup", "daypart": "day"}, "", "")
	if err != nil {
		t.Fatalf("from raw: %v", err)
	}
	if it.Daypart != Day {
		t.Fatalf("daypart = %q, want day", it.Daypart)
	}

	_, err = FromRaw(map[string]any{"kind": "calendly_lookup", "daypart": "midnight"}, "", "")
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Field != "daypart" {
		t.Fatalf("expected daypart validation error, got %v", err)
	}
}

func TestKindAndDaypartValid(t *testing.T) {
	for _, k := range []Kind{KindSendEmail, KindSummarizeEmails, KindCalendlyLookup, KindSendSchedulingLink, KindOther} {
		if !k.Valid() {
			t.Fatalf("kind %q should be valid", k)
		}
	}
	if Kind("reschedule").Valid() {
		t.Fatalf("unknown kind should be invalid")
	}
	for _, d := range []Daypart{"", Morning, Afternoon, Evening, Day} {
		if !d.Valid() {
			t.Fatalf("daypart %q should be valid", d)
		}
	}
}
