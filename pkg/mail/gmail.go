package mail

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const defaultGmailBaseURL = "https://gmail.googleapis.com/gmail/v1/users/me"

// metadataHeaders are the only message headers the core reads.
var metadataHeaders = []string{"From", "To", "Cc", "Date", "Subject", "Message-Id"}

// TokenProvider resolves the stored OAuth token for an account. Token
// refresh and consent are collaborator concerns.
type TokenProvider interface {
	MailToken(account string) (*oauth2.Token, error)
}

// Gmail implements Service against the Gmail REST API.
type Gmail struct {
	baseURL        string
	tokens         TokenProvider
	defaultAccount string
	timeout        time.Duration
	// dryRun suppresses outbound sends and reports a placeholder ID.
	dryRun bool
}

// GmailOption configures a Gmail client.
type GmailOption func(*Gmail)

// WithGmailBaseURL overrides the API endpoint, mainly for tests.
func WithGmailBaseURL(base string) GmailOption {
	return func(g *Gmail) {
		g.baseURL = base
	}
}

// WithDefaultAccount sets the account used when a call passes none.
func WithDefaultAccount(account string) GmailOption {
	return func(g *Gmail) {
		g.defaultAccount = account
	}
}

// WithDryRun suppresses outbound sends.
func WithDryRun(dryRun bool) GmailOption {
	return func(g *Gmail) {
		g.dryRun = dryRun
	}
}

// NewGmail creates a Gmail-backed mail service.
func NewGmail(tokens TokenProvider, opts ...GmailOption) *Gmail {
	g := &Gmail{
		baseURL: defaultGmailBaseURL,
		tokens:  tokens,
		timeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// ListRecent returns the newest inbox messages.
func (g *Gmail) ListRecent(ctx context.Context, limit int, account string) ([]Message, error) {
	params := url.Values{
		"labelIds":   {"INBOX"},
		"maxResults": {fmt.Sprint(limit)},
	}
	return g.listAndHydrate(ctx, params, account)
}

// Search returns messages matching a Gmail search query.
func (g *Gmail) Search(ctx context.Context, query string, limit int, account string) ([]Message, error) {
	params := url.Values{
		"q":          {query},
		"maxResults": {fmt.Sprint(limit)},
	}
	return g.listAndHydrate(ctx, params, account)
}

// Send delivers one message, threading onto an existing conversation when
// Outgoing.InReplyTo is set.
func (g *Gmail) Send(ctx context.Context, out Outgoing) (*SendResult, error) {
	if len(out.To) == 0 {
		return nil, fmt.Errorf("at least one recipient is required")
	}
	if g.dryRun {
		return &SendResult{ID: "dry-run"}, nil
	}
	client, err := g.client(ctx, out.Account)
	if err != nil {
		return nil, err
	}

	var inReplyTo, references, threadID string
	if out.InReplyTo != "" {
		orig, err := g.getMessage(ctx, client, out.InReplyTo, []string{"Message-Id", "References"})
		if err != nil {
			return nil, fmt.Errorf("failed to load reply target %s: %w", out.InReplyTo, err)
		}
		hdrs := headerMap(orig)
		if mid := hdrs["message-id"]; mid != "" {
			inReplyTo = mid
			references = strings.TrimSpace(hdrs["references"] + " " + mid)
		}
		threadID, _ = orig["threadId"].(string)
	}

	raw := buildRFC822(out, inReplyTo, references)
	payload := map[string]any{
		"raw": base64.URLEncoding.EncodeToString([]byte(raw)),
	}
	if threadID != "" {
		payload["threadId"] = threadID
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/messages/send", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	sent, err := doJSON(client, req)
	if err != nil {
		return nil, err
	}
	res := &SendResult{}
	res.ID, _ = sent["id"].(string)
	res.ThreadID, _ = sent["threadId"].(string)
	return res, nil
}

// listAndHydrate lists message IDs then fetches compact metadata for each,
// sequentially, preserving provider order.
func (g *Gmail) listAndHydrate(ctx context.Context, params url.Values, account string) ([]Message, error) {
	client, err := g.client(ctx, account)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/messages?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	listing, err := doJSON(client, req)
	if err != nil {
		return nil, err
	}

	refs, _ := listing["messages"].([]any)
	out := make([]Message, 0, len(refs))
	for _, ref := range refs {
		m, ok := ref.(map[string]any)
		if !ok {
			continue
		}
		id, _ := m["id"].(string)
		if id == "" {
			continue
		}
		full, err := g.getMessage(ctx, client, id, metadataHeaders)
		if err != nil {
			return nil, err
		}
		out = append(out, compactMessage(full))
	}
	return out, nil
}

func (g *Gmail) getMessage(ctx context.Context, client *http.Client, id string, headers []string) (map[string]any, error) {
	params := url.Values{"format": {"metadata"}}
	for _, h := range headers {
		params.Add("metadataHeaders", h)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/messages/"+url.PathEscape(id)+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	return doJSON(client, req)
}

func (g *Gmail) client(ctx context.Context, account string) (*http.Client, error) {
	if account == "" {
		account = g.defaultAccount
	}
	if account == "" {
		return nil, fmt.Errorf("no account specified and no default account configured")
	}
	tok, err := g.tokens.MailToken(account)
	if err != nil {
		return nil, err
	}
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(tok))
	client.Timeout = g.timeout
	return client, nil
}

// compactMessage flattens a provider message into the core's view.
func compactMessage(m map[string]any) Message {
	hdrs := headerMap(m)
	out := Message{
		From:      hdrs["from"],
		To:        hdrs["to"],
		Cc:        hdrs["cc"],
		Date:      hdrs["date"],
		Subject:   hdrs["subject"],
		MessageID: hdrs["message-id"],
	}
	out.ID, _ = m["id"].(string)
	out.ThreadID, _ = m["threadId"].(string)
	out.InternalDate, _ = m["internalDate"].(string)
	out.Snippet, _ = m["snippet"].(string)
	return out
}

func headerMap(m map[string]any) map[string]string {
	out := make(map[string]string)
	payload, _ := m["payload"].(map[string]any)
	if payload == nil {
		return out
	}
	headers, _ := payload["headers"].([]any)
	for _, h := range headers {
		hm, ok := h.(map[string]any)
		if !ok {
			continue
		}
		name, _ := hm["name"].(string)
		value, _ := hm["value"].(string)
		out[strings.ToLower(name)] = value
	}
	return out
}

// buildRFC822 renders a plain-text message with optional reply headers.
func buildRFC822(out Outgoing, inReplyTo, references string) string {
	var sb strings.Builder
	sb.WriteString("To: " + strings.Join(out.To, ", ") + "\r\n")
	if len(out.Cc) > 0 {
		sb.WriteString("Cc: " + strings.Join(out.Cc, ", ") + "\r\n")
	}
	if len(out.Bcc) > 0 {
		sb.WriteString("Bcc: " + strings.Join(out.Bcc, ", ") + "\r\n")
	}
	sb.WriteString("Subject: " + out.Subject + "\r\n")
	if inReplyTo != "" {
		sb.WriteString("In-Reply-To: " + inReplyTo + "\r\n")
		sb.WriteString("References: " + references + "\r\n")
	}
	sb.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(out.Body)
	return sb.String()
}

func doJSON(client *http.Client, req *http.Request) (map[string]any, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gmail request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("gmail %s %s: status %d: %s", req.Method, req.URL.Path, resp.StatusCode, body)
	}
	var data map[string]any
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("gmail returned invalid JSON: %w", err)
	}
	return data, nil
}
