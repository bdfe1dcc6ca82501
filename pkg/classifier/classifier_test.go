package classifier

import (
	"context"
	"strings"
	"testing"
)

func TestMockMatchesUserText(t *testing.T) {
	mock := NewMock()
	mock.Responses["weather"] = "sunny"

	got, err := mock.Complete(context.Background(), Request{
		Messages: []Message{
			User("what's the weather like?"),
			Assistant("weather is not something I said"),
		},
	})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if got != "sunny" {
		t.Fatalf("response = %q, want matched response", got)
	}
}

func TestMockIgnoresAssistantText(t *testing.T) {
	mock := NewMock()
	mock.Responses["onlyinassistant"] = "should not match"
	mock.DefaultResponse = "default"

	got, err := mock.Complete(context.Background(), Request{
		Messages: []Message{
			User("hello"),
			Assistant("onlyinassistant"),
		},
	})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if got != "default" {
		t.Fatalf("response = %q, assistant text must not match", got)
	}
}

func TestMockFailStrict(t *testing.T) {
	mock := NewMock()
	mock.FailStrict = true

	req := Request{
		Messages: []Message{User("hi")},
		Schema:   &Schema{Name: "intent", Definition: map[string]any{"type": "object"}},
	}
	if _, err := mock.Complete(context.Background(), req); err == nil {
		t.Fatalf("expected schema-carrying call to fail")
	}

	req.Schema = nil
	req.ForceJSON = true
	if _, err := mock.Complete(context.Background(), req); err != nil {
		t.Fatalf("relaxed call should succeed: %v", err)
	}
	if len(mock.Calls) != 2 {
		t.Fatalf("calls = %d, want both recorded", len(mock.Calls))
	}
}

func TestPromptPreambleWithSchema(t *testing.T) {
	req := Request{
		System: "You classify things.",
		Schema: &Schema{Name: "intent", Definition: map[string]any{"type": "object"}},
	}
	got := promptPreamble(req)
	if !strings.HasPrefix(got, "You classify things.") {
		t.Fatalf("preamble = %q, want system text first", got)
	}
	if !strings.Contains(got, `{"type":"object"}`) {
		t.Fatalf("preamble = %q, want inlined schema", got)
	}
	if !strings.Contains(got, "Return ONLY a single JSON object conforming") {
		t.Fatalf("preamble = %q, want schema instruction", got)
	}
}

func TestPromptPreambleForceJSON(t *testing.T) {
	got := promptPreamble(Request{ForceJSON: true})
	if !strings.Contains(got, "Return ONLY a single JSON object.") {
		t.Fatalf("preamble = %q", got)
	}
}

func TestFlattenPrompt(t *testing.T) {
	req := Request{
		System: "sys",
		Messages: []Message{
			User("first"),
			Assistant("second"),
			User("third"),
		},
	}
	got := flattenPrompt(req)
	wantOrder := []string{"sys", "User: first", "Assistant: second", "User: third"}
	idx := -1
	for _, part := range wantOrder {
		next := strings.Index(got, part)
		if next < 0 || next < idx {
			t.Fatalf("flattened prompt out of order, missing %q:\n%s", part, got)
		}
		idx = next
	}
}
