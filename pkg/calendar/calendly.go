package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const defaultBaseURL = "https://api.calendly.com"

// TokenProvider resolves the personal access token for a scheduling key. An
// empty key selects the default account.
type TokenProvider interface {
	CalendarToken(key string) (string, error)
}

// Calendly implements Service against the Calendly v2 API.
type Calendly struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenProvider
	// fallbackPAT is used when the token store has no entry for the key.
	fallbackPAT string
}

// CalendlyOption configures a Calendly client.
type CalendlyOption func(*Calendly)

// WithBaseURL overrides the API endpoint, mainly for tests.
func WithBaseURL(base string) CalendlyOption {
	return func(c *Calendly) {
		c.baseURL = base
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) CalendlyOption {
	return func(c *Calendly) {
		c.httpClient = client
	}
}

// WithFallbackPAT sets a default personal access token used when the store
// has none for the requested key.
func WithFallbackPAT(pat string) CalendlyOption {
	return func(c *Calendly) {
		c.fallbackPAT = pat
	}
}

// NewCalendly creates a Calendly-backed calendar service.
func NewCalendly(tokens TokenProvider, opts ...CalendlyOption) *Calendly {
	c := &Calendly{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		tokens:     tokens,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListEventsOn fetches hosted events inside the window, enriched with their
// invitees.
func (c *Calendly) ListEventsOn(ctx context.Context, date time.Time, window Window, loc *time.Location, key string) ([]Event, error) {
	pat, err := c.pat(key)
	if err != nil {
		return nil, err
	}
	start, end := window.Bounds(date, loc)

	me, err := c.get(ctx, pat, "/users/me", nil)
	if err != nil {
		return nil, err
	}
	org, _ := dig(me, "resource", "current_organization").(string)
	if org == "" {
		return nil, fmt.Errorf("calendly /users/me returned no organization")
	}

	raw, err := c.followPages(ctx, pat, "/scheduled_events", url.Values{
		"organization":   {org},
		"min_start_time": {start.Format(time.RFC3339)},
		"max_start_time": {end.Format(time.RFC3339)},
		"count":          {"100"},
	})
	if err != nil {
		return nil, err
	}

	events := make([]Event, 0, len(raw))
	for _, item := range raw {
		ev := Event{
			Name:      str(item["name"]),
			StartTime: str(item["start_time"]),
			EndTime:   str(item["end_time"]),
			Status:    str(item["status"]),
		}
		if locMap, ok := item["location"].(map[string]any); ok {
			ev.Location = str(locMap["location"])
		}
		uri := str(item["uri"])
		if uri != "" {
			invitees, err := c.followPages(ctx, pat, "/scheduled_events/invitees", url.Values{
				"event": {uri},
				"count": {"100"},
			})
			if err != nil {
				return nil, err
			}
			for _, inv := range invitees {
				ev.Invitees = append(ev.Invitees, Invitee{
					Name:                str(inv["name"]),
					Email:               str(inv["email"]),
					Timezone:            str(inv["timezone"]),
					QuestionsAndAnswers: parseQAs(inv["questions_and_answers"]),
				})
			}
		}
		events = append(events, ev)
	}
	return events, nil
}

// CreateSchedulingLink creates a single-use booking link for the key
// owner's first active event type.
func (c *Calendly) CreateSchedulingLink(ctx context.Context, key string) (*Link, error) {
	pat, err := c.pat(key)
	if err != nil {
		return nil, err
	}
	me, err := c.get(ctx, pat, "/users/me", nil)
	if err != nil {
		return nil, err
	}
	userURI, _ := dig(me, "resource", "uri").(string)
	if userURI == "" {
		return nil, fmt.Errorf("calendly /users/me returned no user URI")
	}

	eventTypeURI, err := c.pickEventType(ctx, pat, userURI)
	if err != nil {
		return nil, err
	}

	payload := map[string]any{
		"owner":           eventTypeURI,
		"owner_type":      "EventType",
		"max_event_count": 1,
	}
	resp, err := c.post(ctx, pat, "/scheduling_links", payload)
	if err != nil {
		return nil, err
	}
	resource, _ := resp["resource"].(map[string]any)
	link := str(resource["booking_url"])
	if link == "" {
		link = str(resource["url"])
	}
	if link == "" {
		return nil, nil
	}
	return &Link{URL: link}, nil
}

// pickEventType returns the first active event type owned by the user.
func (c *Calendly) pickEventType(ctx context.Context, pat, userURI string) (string, error) {
	data, err := c.get(ctx, pat, "/event_types", url.Values{"user": {userURI}, "count": {"100"}})
	if err != nil {
		return "", err
	}
	collection, _ := data["collection"].([]any)
	if len(collection) == 0 {
		return "", fmt.Errorf("no calendly event types found for this user")
	}
	for _, item := range collection {
		et, ok := item.(map[string]any)
		if !ok {
			continue
		}
		active, hasActive := et["active"].(bool)
		if (!hasActive || active) && et["deleted_at"] == nil {
			if uri := str(et["uri"]); uri != "" {
				return uri, nil
			}
		}
	}
	if et, ok := collection[0].(map[string]any); ok {
		return str(et["uri"]), nil
	}
	return "", fmt.Errorf("no usable calendly event type")
}

func (c *Calendly) pat(key string) (string, error) {
	if key != "" && c.tokens != nil {
		if pat, err := c.tokens.CalendarToken(key); err == nil {
			return pat, nil
		}
	}
	if c.fallbackPAT != "" {
		return c.fallbackPAT, nil
	}
	return "", fmt.Errorf("no calendly token found for key %q", key)
}

// followPages walks the collection pagination until exhausted.
func (c *Calendly) followPages(ctx context.Context, pat, path string, params url.Values) ([]map[string]any, error) {
	var items []map[string]any
	nextURL := c.baseURL + path
	if len(params) > 0 {
		nextURL += "?" + params.Encode()
	}
	for nextURL != "" {
		data, err := c.getURL(ctx, pat, nextURL)
		if err != nil {
			return nil, err
		}
		if collection, ok := data["collection"].([]any); ok {
			for _, item := range collection {
				if m, ok := item.(map[string]any); ok {
					items = append(items, m)
				}
			}
		}
		nextURL, _ = dig(data, "pagination", "next_page").(string)
	}
	return items, nil
}

func (c *Calendly) get(ctx context.Context, pat, path string, params url.Values) (map[string]any, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return c.getURL(ctx, pat, u)
}

func (c *Calendly) getURL(ctx context.Context, pat, u string) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+pat)
	return c.do(req)
}

func (c *Calendly) post(ctx context.Context, pat, path string, payload any) (map[string]any, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+pat)
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Calendly) do(req *http.Request) (map[string]any, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calendly request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("calendly %s %s: status %d: %s", req.Method, req.URL.Path, resp.StatusCode, body)
	}
	var data map[string]any
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("calendly returned invalid JSON: %w", err)
	}
	return data, nil
}

func parseQAs(v any) []QA {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	var qas []QA
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			qas = append(qas, QA{Question: str(m["question"]), Answer: str(m["answer"])})
		}
	}
	return qas
}

func dig(m map[string]any, keys ...string) any {
	var cur any = m
	for _, k := range keys {
		mm, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = mm[k]
	}
	return cur
}

func str(v any) string {
	s, _ := v.(string)
	return s
}
