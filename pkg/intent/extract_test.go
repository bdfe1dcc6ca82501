package intent

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/zen-systems/mailgate/pkg/classifier"
)

func newTestExtractor(mock *classifier.Mock) *Extractor {
	return NewExtractor(mock, zerolog.Nop())
}

func TestExtractHappyPath(t *testing.T) {
	mock := classifier.NewMock()
	mock.Responses["summarize my emails"] = `{"kind":"summarize_emails","time_window":"yesterday","focus":"important"}`

	it, err := newTestExtractor(mock).Extract(context.Background(), "summarize my emails", "me@example.com", "")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if it.Kind != KindSummarizeEmails {
		t.Fatalf("kind = %q", it.Kind)
	}
	if it.TimeWindow != "yesterday" || it.Focus != "important" {
		t.Fatalf("slots = %q/%q", it.TimeWindow, it.Focus)
	}
	if it.AccountEmail != "me@example.com" {
		t.Fatalf("account = %q, want back-filled default", it.AccountEmail)
	}
}

func TestExtractSendsContextLine(t *testing.T) {
	mock := classifier.NewMock()
	mock.DefaultResponse = `{"kind":"other"}`

	if _, err := newTestExtractor(mock).Extract(context.Background(), "hi", "me@example.com", "cal-key"); err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(mock.Calls) != 1 {
		t.Fatalf("calls = %d, want 1", len(mock.Calls))
	}
	req := mock.Calls[0]
	if req.Schema == nil || req.Schema.Name != "intent" {
		t.Fatalf("expected strict schema on first call")
	}
	last := req.Messages[len(req.Messages)-1]
	if last.Content != "account_email=me@example.com calendly_key=cal-key" {
		t.Fatalf("context line = %q", last.Content)
	}
}

func TestExtractRelaxedRetry(t *testing.T) {
	mock := classifier.NewMock()
	mock.FailStrict = true
	mock.DefaultResponse = `{"kind":"send_email","to":"a@x.com"}`

	it, err := newTestExtractor(mock).Extract(context.Background(), "email a@x.com", "", "")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(mock.Calls) != 2 {
		t.Fatalf("calls = %d, want strict attempt plus relaxed retry", len(mock.Calls))
	}
	if !mock.Calls[1].ForceJSON || mock.Calls[1].Schema != nil {
		t.Fatalf("second call should be the relaxed JSON contract")
	}
	if it.Kind != KindSendEmail || len(it.To) != 1 {
		t.Fatalf("intent = %+v", it)
	}
}

func TestExtractGarbageDefaultsToOther(t *testing.T) {
	mock := classifier.NewMock()
	mock.DefaultResponse = "sorry, I can't help with that"

	it, err := newTestExtractor(mock).Extract(context.Background(), "???", "", "")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if it.Kind != KindOther {
		t.Fatalf("kind = %q, want other for unparseable output", it.Kind)
	}
}

func TestExtractStripsCodeFences(t *testing.T) {
	mock := classifier.NewMock()
	mock.DefaultResponse = "```json\n{\"kind\":\"calendly_lookup\",\"date_ref\":\"monday\"}\n```"

	it, err := newTestExtractor(mock).Extract(context.Background(), "meetings monday", "", "")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if it.Kind != KindCalendlyLookup || it.DateRef != "monday" {
		t.Fatalf("intent = %+v", it)
	}
}

func TestExtractRepairsTruncatedJSON(t *testing.T) {
	mock := classifier.NewMock()
	mock.DefaultResponse = `{"kind":"summarize_emails","time_window":"last week"`

	it, err := newTestExtractor(mock).Extract(context.Background(), "summary", "", "")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if it.Kind != KindSummarizeEmails || it.TimeWindow != "last week" {
		t.Fatalf("intent = %+v", it)
	}
}

func TestExtractBothContractsFail(t *testing.T) {
	mock := classifier.NewMock()
	mock.Err = context.DeadlineExceeded

	if _, err := newTestExtractor(mock).Extract(context.Background(), "hi", "", ""); err == nil {
		t.Fatalf("expected error when both contracts fail")
	}
}
