// Package dispatch routes classified intents to mail and calendar actions
// and wraps every outcome, success or failure, in a uniform reply envelope.
package dispatch

import (
	"reflect"

	"github.com/zen-systems/mailgate/pkg/intent"
	"github.com/zen-systems/mailgate/pkg/plaintext"
)

// Status summarizes the outcome of a dispatched request.
type Status string

const (
	StatusOK         Status = "ok"
	StatusSent       Status = "sent"
	StatusCreated    Status = "created"
	StatusSummarized Status = "summarized"
	StatusEmpty      Status = "empty"
	StatusPending    Status = "pending"
	StatusError      Status = "error"
)

// Envelope is the uniform reply shape returned for every request. Text is
// the plain rendering of TextMarkdown; clients that render markdown use the
// latter.
type Envelope struct {
	Text         string         `json:"text"`
	TextMarkdown string         `json:"text_markdown"`
	Kind         intent.Kind    `json:"kind"`
	Intent       *intent.Intent `json:"intent"`
	Details      map[string]any `json:"details"`
	Timestamp    string         `json:"timestamp"`
	Status       Status         `json:"status"`
}

// newEnvelope assembles the reply. Details entries holding nil are pruned
// and an all-nil map collapses to nil; the envelope status mirrors the
// details status when one is set.
func newEnvelope(reply string, it *intent.Intent, details map[string]any, timestamp string) *Envelope {
	pruned := pruneNil(details)
	status := StatusOK
	if s, ok := pruned["status"].(Status); ok && s != "" {
		status = s
	}
	return &Envelope{
		Text:         plaintext.Strip(reply),
		TextMarkdown: reply,
		Kind:         it.Kind,
		Intent:       it,
		Details:      pruned,
		Timestamp:    timestamp,
		Status:       status,
	}
}

// pruneNil drops nil-valued entries, returning nil when nothing remains.
func pruneNil(details map[string]any) map[string]any {
	out := make(map[string]any, len(details))
	for k, v := range details {
		if isNil(v) {
			continue
		}
		out[k] = v
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

// put adds a detail unless the value is empty.
func put(details map[string]any, key, value string) {
	if value != "" {
		details[key] = value
	}
}

// putList adds a list detail unless the list is empty.
func putList(details map[string]any, key string, values []string) {
	if len(values) > 0 {
		details[key] = values
	}
}
