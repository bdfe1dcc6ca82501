package mail

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/oauth2"
)

type staticTokens struct{}

func (staticTokens) MailToken(account string) (*oauth2.Token, error) {
	return &oauth2.Token{AccessToken: "test-token"}, nil
}

func gmailTestServer(t *testing.T, sent *map[string]any) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/messages", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"messages": []map[string]any{{"id": "m1"}, {"id": "m2"}},
		})
	})
	metadata := func(id, subject, mid string) map[string]any {
		return map[string]any{
			"id":           id,
			"threadId":     "t-" + id,
			"internalDate": "1756464000000",
			"snippet":      "snippet " + id,
			"payload": map[string]any{
				"headers": []map[string]any{
					{"name": "From", "value": "alice@example.com"},
					{"name": "Subject", "value": subject},
					{"name": "Message-Id", "value": mid},
				},
			},
		}
	}
	mux.HandleFunc("/messages/m1", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(metadata("m1", "First", "<mid-1@mail>"))
	})
	mux.HandleFunc("/messages/m2", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(metadata("m2", "Second", "<mid-2@mail>"))
	})
	mux.HandleFunc("/messages/send", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if sent != nil {
			*sent = payload
		}
		json.NewEncoder(w).Encode(map[string]any{"id": "sent-1", "threadId": "t-sent"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestGmailListRecent(t *testing.T) {
	srv := gmailTestServer(t, nil)
	g := NewGmail(staticTokens{}, WithGmailBaseURL(srv.URL), WithDefaultAccount("me@example.com"))

	msgs, err := g.ListRecent(context.Background(), 10, "")
	if err != nil {
		t.Fatalf("list recent: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("messages = %d, want 2", len(msgs))
	}
	if msgs[0].ID != "m1" || msgs[0].Subject != "First" || msgs[0].From != "alice@example.com" {
		t.Fatalf("message = %+v", msgs[0])
	}
	if msgs[0].InternalDate != "1756464000000" {
		t.Fatalf("internal date = %q", msgs[0].InternalDate)
	}
	if msgs[0].MessageID != "<mid-1@mail>" {
		t.Fatalf("message id = %q", msgs[0].MessageID)
	}
}

func TestGmailSearch(t *testing.T) {
	srv := gmailTestServer(t, nil)
	g := NewGmail(staticTokens{}, WithGmailBaseURL(srv.URL))

	msgs, err := g.Search(context.Background(), "subject:First", 5, "me@example.com")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("messages = %d, want 2", len(msgs))
	}
}

func TestGmailSend(t *testing.T) {
	var sent map[string]any
	srv := gmailTestServer(t, &sent)
	g := NewGmail(staticTokens{}, WithGmailBaseURL(srv.URL))

	res, err := g.Send(context.Background(), Outgoing{
		To:      []string{"bob@example.com"},
		Subject: "Hello",
		Body:    "Body text",
		Account: "me@example.com",
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if res.ID != "sent-1" || res.ThreadID != "t-sent" {
		t.Fatalf("result = %+v", res)
	}

	rawB64, _ := sent["raw"].(string)
	raw, err := base64.URLEncoding.DecodeString(rawB64)
	if err != nil {
		t.Fatalf("decode raw: %v", err)
	}
	msg := string(raw)
	if !strings.Contains(msg, "To: bob@example.com\r\n") {
		t.Fatalf("raw message missing To header:\n%s", msg)
	}
	if !strings.Contains(msg, "Subject: Hello\r\n") {
		t.Fatalf("raw message missing Subject header:\n%s", msg)
	}
	if !strings.HasSuffix(msg, "\r\nBody text") {
		t.Fatalf("raw message missing body:\n%s", msg)
	}
	if _, ok := sent["threadId"]; ok {
		t.Fatalf("fresh send should not carry a threadId")
	}
}

func TestGmailSendReplyThreading(t *testing.T) {
	var sent map[string]any
	srv := gmailTestServer(t, &sent)
	g := NewGmail(staticTokens{}, WithGmailBaseURL(srv.URL))

	_, err := g.Send(context.Background(), Outgoing{
		To:        []string{"alice@example.com"},
		Subject:   "Re: First",
		Body:      "Reply body",
		Account:   "me@example.com",
		InReplyTo: "m1",
	})
	if err != nil {
		t.Fatalf("send reply: %v", err)
	}
	if sent["threadId"] != "t-m1" {
		t.Fatalf("threadId = %v, want original thread", sent["threadId"])
	}
	raw, _ := base64.URLEncoding.DecodeString(sent["raw"].(string))
	msg := string(raw)
	if !strings.Contains(msg, "In-Reply-To: <mid-1@mail>\r\n") {
		t.Fatalf("raw message missing In-Reply-To:\n%s", msg)
	}
	if !strings.Contains(msg, "References: <mid-1@mail>\r\n") {
		t.Fatalf("raw message missing References:\n%s", msg)
	}
}

func TestGmailSendDryRun(t *testing.T) {
	g := NewGmail(staticTokens{}, WithDryRun(true))

	res, err := g.Send(context.Background(), Outgoing{
		To:      []string{"bob@example.com"},
		Body:    "never sent",
		Account: "me@example.com",
	})
	if err != nil {
		t.Fatalf("dry-run send: %v", err)
	}
	if res.ID != "dry-run" {
		t.Fatalf("result = %+v, want dry-run placeholder", res)
	}
}

func TestGmailSendRequiresRecipient(t *testing.T) {
	g := NewGmail(staticTokens{}, WithDryRun(true))
	if _, err := g.Send(context.Background(), Outgoing{Body: "x"}); err == nil {
		t.Fatalf("expected error without recipients")
	}
}

func TestGmailRequiresAccount(t *testing.T) {
	g := NewGmail(staticTokens{})
	if _, err := g.ListRecent(context.Background(), 10, ""); err == nil {
		t.Fatalf("expected error without an account or default")
	}
}
