// Package classifier abstracts the LLM call behind a small completion
// interface with interchangeable provider backends, so everything above it
// can be tested against a deterministic mock.
package classifier

import "context"

// Message is one turn of a chat exchange.
type Message struct {
	Role    string // "user" or "assistant"
	Content string
}

// Schema asks the backend for strict schema-validated JSON output. Backends
// without native structured output fold it into the prompt.
type Schema struct {
	Name       string
	Definition map[string]any
}

// Request describes one completion call.
type Request struct {
	System      string
	Messages    []Message
	Schema      *Schema
	ForceJSON   bool // relaxed free-form-JSON contract, no schema validation
	Temperature float64
	Seed        int64 // best-effort determinism; 0 means unset
}

// Classifier produces one text completion per request.
type Classifier interface {
	// Name returns the backend identifier.
	Name() string

	// Complete sends the request and returns the raw response text.
	Complete(ctx context.Context, req Request) (string, error)
}

// User builds a user message.
func User(content string) Message {
	return Message{Role: "user", Content: content}
}

// Assistant builds an assistant message.
func Assistant(content string) Message {
	return Message{Role: "assistant", Content: content}
}
