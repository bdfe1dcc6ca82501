package mail

import "context"

// Mock is a deterministic Service for tests. It serves canned messages and
// records sends.
type Mock struct {
	Recent        []Message
	SearchResults map[string][]Message // keyed by exact query; nil falls back to Recent
	SendErr       error
	ListErr       error

	Sent        []Outgoing
	LastQuery   string
	LastLimit   int
	LastAccount string
}

// ListRecent returns the canned recent messages.
func (m *Mock) ListRecent(_ context.Context, limit int, account string) ([]Message, error) {
	m.LastLimit = limit
	m.LastAccount = account
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	return m.Recent, nil
}

// Search returns the canned result for the query, falling back to Recent.
func (m *Mock) Search(_ context.Context, query string, limit int, account string) ([]Message, error) {
	m.LastQuery = query
	m.LastLimit = limit
	m.LastAccount = account
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	if res, ok := m.SearchResults[query]; ok {
		return res, nil
	}
	return m.Recent, nil
}

// Send records the outgoing message and returns a fixed result.
func (m *Mock) Send(_ context.Context, out Outgoing) (*SendResult, error) {
	if m.SendErr != nil {
		return nil, m.SendErr
	}
	m.Sent = append(m.Sent, out)
	return &SendResult{ID: "msg-1", ThreadID: "thread-1"}, nil
}
