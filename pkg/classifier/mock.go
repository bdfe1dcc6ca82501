package classifier

import (
	"context"
	"fmt"
	"strings"
)

// Mock returns deterministic responses for local runs and tests. Responses
// are matched by substring against the concatenated user messages so test
// tables stay short.
type Mock struct {
	Responses       map[string]string
	DefaultResponse string

	// Err, when set, fails every call.
	Err error
	// FailStrict fails only calls that carry a schema, exercising the
	// relaxed-contract retry path.
	FailStrict bool

	// Calls records every request received.
	Calls []Request
}

// NewMock creates a mock classifier with a default response.
func NewMock() *Mock {
	return &Mock{
		Responses:       make(map[string]string),
		DefaultResponse: "mock response",
	}
}

// Name returns the backend identifier.
func (c *Mock) Name() string {
	return "mock"
}

// Complete returns a canned response for the request.
func (c *Mock) Complete(_ context.Context, req Request) (string, error) {
	c.Calls = append(c.Calls, req)
	if c.Err != nil {
		return "", c.Err
	}
	if c.FailStrict && req.Schema != nil {
		return "", fmt.Errorf("mock: strict schema contract not supported")
	}
	joined := userText(req)
	for key, response := range c.Responses {
		if strings.Contains(joined, key) {
			return response, nil
		}
	}
	if c.DefaultResponse != "" {
		return c.DefaultResponse, nil
	}
	return fmt.Sprintf("mock response:\n%s", joined), nil
}

func userText(req Request) string {
	var parts []string
	for _, m := range req.Messages {
		if m.Role != "assistant" {
			parts = append(parts, m.Content)
		}
	}
	return strings.Join(parts, "\n")
}
