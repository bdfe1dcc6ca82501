// Package mail defines the narrow mail-provider interface the dispatcher
// consumes, plus the Gmail REST implementation and a deterministic mock.
package mail

import "context"

// Message is a compact view of a provider message. The core only reads
// InternalDate (milliseconds since epoch, as the provider reports it) to
// filter and sort; everything else is passthrough metadata.
type Message struct {
	ID           string `json:"id"`
	ThreadID     string `json:"threadId,omitempty"`
	InternalDate string `json:"internalDate,omitempty"`
	Snippet      string `json:"snippet,omitempty"`
	From         string `json:"from,omitempty"`
	To           string `json:"to,omitempty"`
	Cc           string `json:"cc,omitempty"`
	Date         string `json:"date,omitempty"`
	Subject      string `json:"subject,omitempty"`
	MessageID    string `json:"message-id,omitempty"`
}

// Outgoing describes one message to send.
type Outgoing struct {
	To      []string
	Cc      []string
	Bcc     []string
	Subject string
	Body    string
	// Account selects whose credentials to send with.
	Account string
	// InReplyTo is a provider message ID; when set the send threads onto
	// that message's conversation.
	InReplyTo string
}

// SendResult identifies the sent message.
type SendResult struct {
	ID       string `json:"id"`
	ThreadID string `json:"threadId,omitempty"`
}

// Service is the provider-agnostic mail interface.
type Service interface {
	// ListRecent returns the newest inbox messages without any filter.
	ListRecent(ctx context.Context, limit int, account string) ([]Message, error)

	// Search returns messages matching a provider search query.
	Search(ctx context.Context, query string, limit int, account string) ([]Message, error)

	// Send delivers one message and returns its identifiers.
	Send(ctx context.Context, out Outgoing) (*SendResult, error)
}
