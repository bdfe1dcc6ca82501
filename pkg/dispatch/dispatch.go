package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/zen-systems/mailgate/pkg/calendar"
	"github.com/zen-systems/mailgate/pkg/classifier"
	"github.com/zen-systems/mailgate/pkg/intent"
	"github.com/zen-systems/mailgate/pkg/mail"
	"github.com/zen-systems/mailgate/pkg/mailquery"
	"github.com/zen-systems/mailgate/pkg/timewindow"
)

const (
	// fetchLimitWindowed over-fetches when a date interval will filter the
	// results afterwards; fetchLimitRecent applies otherwise.
	fetchLimitWindowed = 120
	fetchLimitRecent   = 60
	// summaryCap bounds how many messages reach the summarizer.
	summaryCap = 40
	// payloadCap bounds the serialized JSON handed to the summarizer.
	payloadCap = 100000
)

const summaryPrompt = "You summarize recent emails for the user. Output up to 5 bullets. " +
	"Each bullet: [Sender] - Subject - 1-sentence gist - (date/time). " +
	"End with 'Key actions:' and up to 3 bullets of next steps (if any). " +
	"Respect any time window or focus the user asked for. Be concise (<= 1200 chars)."

const calendarSummaryPrompt = "Summarize hosted Calendly events for the requested date/daypart. " +
	"Output up to 5 bullets with: Who (names, emails) - When (local time) - Topic/Type - Notable Q&A - Follow-ups. " +
	"If none, reply: 'No hosted events on <date> (<window>)'. Keep <= 600 chars."

// hintQueryRe detects hints that are already search expressions rather than
// bare subjects.
var hintQueryRe = regexp.MustCompile(`:|\(|\)|\s`)

// Dispatcher classifies one utterance and executes the resulting intent
// against the mail and calendar services.
type Dispatcher struct {
	extractor *intent.Extractor
	llm       classifier.Classifier
	mail      mail.Service
	calendar  calendar.Service

	horizon   int
	tz        string
	loc       *time.Location
	signature string
	log       zerolog.Logger
	now       func() time.Time
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithHorizonDays bounds how far back time windows may resolve.
func WithHorizonDays(days int) Option {
	return func(d *Dispatcher) {
		if days > 0 {
			d.horizon = days
		}
	}
}

// WithTimezone sets the local zone calendar lookups and summaries are
// phrased in.
func WithTimezone(name string, loc *time.Location) Option {
	return func(d *Dispatcher) {
		d.tz = name
		d.loc = loc
	}
}

// WithSignature sets the signature appended to drafted emails.
func WithSignature(sig string) Option {
	return func(d *Dispatcher) {
		d.signature = sig
	}
}

// WithLogger sets the dispatcher's logger.
func WithLogger(log zerolog.Logger) Option {
	return func(d *Dispatcher) {
		d.log = log
	}
}

// WithClock overrides the time source, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		d.now = now
	}
}

// New creates a dispatcher over the given services.
func New(extractor *intent.Extractor, llm classifier.Classifier, mailSvc mail.Service, calSvc calendar.Service, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		extractor: extractor,
		llm:       llm,
		mail:      mailSvc,
		calendar:  calSvc,
		horizon:   timewindow.DefaultHorizonDays,
		tz:        "UTC",
		loc:       time.UTC,
		log:       zerolog.Nop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Handle classifies the utterance and executes the resulting intent. User
// input problems (missing recipient, unresolvable time window) come back as
// error-status envelopes; infrastructure failures are returned as errors.
func (d *Dispatcher) Handle(ctx context.Context, utterance, accountEmail, calendlyKey string) (*Envelope, error) {
	timestamp := d.now().UTC().Format(time.RFC3339)

	it, err := d.extractor.Extract(ctx, utterance, accountEmail, calendlyKey)
	if err != nil {
		return nil, err
	}
	d.log.Debug().Str("kind", string(it.Kind)).Msg("handling request")

	var (
		reply   string
		details map[string]any
	)
	switch it.Kind {
	case intent.KindSendEmail:
		reply, details, err = d.sendEmail(ctx, it, utterance, accountEmail)
	case intent.KindSummarizeEmails:
		reply, details, err = d.summarizeEmails(ctx, it, utterance, accountEmail)
	case intent.KindSendSchedulingLink:
		reply, details, err = d.sendSchedulingLink(ctx, it, accountEmail, calendlyKey)
	case intent.KindCalendlyLookup:
		reply, details, err = d.calendlyLookup(ctx, it, calendlyKey)
	default:
		reply, details, err = d.freeform(ctx, utterance)
	}
	if err != nil {
		return nil, err
	}
	return newEnvelope(reply, it, details, timestamp), nil
}

func (d *Dispatcher) sendEmail(ctx context.Context, it *intent.Intent, utterance, accountEmail string) (string, map[string]any, error) {
	acct := firstNonEmpty(it.AccountEmail, accountEmail)
	if len(it.To) == 0 {
		details := map[string]any{"action": "send_email", "status": StatusError}
		put(details, "account_email", acct)
		return "I couldn't find a recipient. Please include an email address.", details, nil
	}

	subject, body, err := d.draft(ctx, it.Subject, firstNonEmpty(it.Message, utterance), it.To)
	if err != nil {
		return "", nil, err
	}

	res, err := d.mail.Send(ctx, mail.Outgoing{
		To:        it.To,
		Cc:        it.Cc,
		Bcc:       it.Bcc,
		Subject:   subject,
		Body:      body,
		Account:   acct,
		InReplyTo: d.resolveReplyTarget(ctx, it.InReplyToHint, acct),
	})
	if err != nil {
		return "", nil, err
	}

	details := map[string]any{
		"action": "send_email",
		"status": StatusSent,
		"to":     it.To,
	}
	put(details, "account_email", acct)
	putList(details, "cc", it.Cc)
	putList(details, "bcc", it.Bcc)
	put(details, "subject", subject)
	put(details, "message_id", res.ID)
	put(details, "thread_id", res.ThreadID)
	return fmt.Sprintf("Sent! id=%s thread=%s", res.ID, res.ThreadID), details, nil
}

// resolveReplyTarget finds the message the user wants to reply to. A bare
// hint is searched as a quoted subject; a hint that already looks like a
// search expression is used verbatim. Lookup failures downgrade the send to
// a fresh thread.
func (d *Dispatcher) resolveReplyTarget(ctx context.Context, hint, account string) string {
	hint = strings.TrimSpace(hint)
	if hint == "" {
		return ""
	}
	query := hint
	if !hintQueryRe.MatchString(hint) {
		query = fmt.Sprintf("subject:%q", hint)
	}
	hits, err := d.mail.Search(ctx, query, 1, account)
	if err != nil {
		d.log.Warn().Err(err).Str("hint", hint).Msg("failed to resolve reply thread")
		return ""
	}
	if len(hits) == 0 {
		return ""
	}
	return hits[0].ID
}

func (d *Dispatcher) summarizeEmails(ctx context.Context, it *intent.Intent, utterance, accountEmail string) (string, map[string]any, error) {
	acct := firstNonEmpty(it.AccountEmail, accountEmail)

	interval, err := timewindow.ResolveInterval(it.TimeWindow, timewindow.DateOf(d.now()), d.horizon)
	if err != nil {
		var rerr *timewindow.ResolveError
		if !errors.As(err, &rerr) {
			return "", nil, err
		}
		details := map[string]any{"action": "summarize_emails", "status": StatusError}
		put(details, "account_email", acct)
		put(details, "time_window", it.TimeWindow)
		put(details, "focus", it.Focus)
		return err.Error(), details, nil
	}

	query := mailquery.Compose(it.Query, interval, it.Focus)
	fetchLimit := fetchLimitRecent
	if interval != nil {
		fetchLimit = fetchLimitWindowed
	}
	var raw []mail.Message
	if query != "" {
		raw, err = d.mail.Search(ctx, query, fetchLimit, acct)
	} else {
		raw, err = d.mail.ListRecent(ctx, fetchLimit, acct)
	}
	if err != nil {
		return "", nil, err
	}
	messages := mailquery.FilterByInterval(raw, interval)

	if len(messages) == 0 {
		text := "I couldn't find any emails that match that request."
		if interval != nil {
			text = fmt.Sprintf("I couldn't find emails between %s and %s within the last %d days.",
				interval.Start.Format("2006-01-02"), interval.End.Format("2006-01-02"), d.horizon)
		}
		details := map[string]any{
			"action":              "summarize_emails",
			"status":              StatusEmpty,
			"messages_considered": 0,
		}
		put(details, "account_email", acct)
		put(details, "query", query)
		put(details, "time_window", it.TimeWindow)
		put(details, "focus", it.Focus)
		putDateRange(details, interval)
		return text, details, nil
	}

	summaryInput := messages
	if len(summaryInput) > summaryCap {
		summaryInput = summaryInput[:summaryCap]
	}
	payload, err := json.Marshal(summaryInput)
	if err != nil {
		return "", nil, err
	}
	if len(payload) > payloadCap {
		payload = payload[:payloadCap]
	}

	reply, err := d.llm.Complete(ctx, classifier.Request{
		System: summaryPrompt,
		Messages: []classifier.Message{
			classifier.User("User request: " + utterance),
			classifier.User("Local timezone: " + d.tz),
			classifier.User("Recent emails (JSON array):"),
			classifier.User(string(payload)),
		},
		Temperature: 0.2,
		Seed:        42,
	})
	if err != nil {
		return "", nil, err
	}

	details := map[string]any{
		"action":              "summarize_emails",
		"status":              StatusSummarized,
		"messages_considered": len(messages),
	}
	put(details, "account_email", acct)
	put(details, "query", query)
	put(details, "focus", it.Focus)
	putDateRange(details, interval)
	preview := summaryInput
	if len(preview) > 5 {
		preview = preview[:5]
	}
	details["messages_preview"] = preview
	return reply, details, nil
}

func (d *Dispatcher) sendSchedulingLink(ctx context.Context, it *intent.Intent, accountEmail, calendlyKey string) (string, map[string]any, error) {
	acct := firstNonEmpty(it.AccountEmail, accountEmail)
	key := firstNonEmpty(it.CalendlyKey, calendlyKey)

	details := map[string]any{"action": "send_scheduling_link", "status": StatusPending}
	put(details, "account_email", acct)
	put(details, "calendly_key", key)
	putList(details, "to", it.To)

	link, err := d.calendar.CreateSchedulingLink(ctx, key)
	if err != nil {
		return "", nil, err
	}
	if link == nil || link.URL == "" {
		details["status"] = StatusError
		details["error"] = "Calendly did not return a link"
		return "I couldn't generate a Calendly scheduling link.", details, nil
	}
	details["link"] = link

	if len(it.To) == 0 {
		details["status"] = StatusCreated
		return "Scheduling link: " + link.URL, details, nil
	}

	res, err := d.mail.Send(ctx, mail.Outgoing{
		To:      it.To,
		Subject: firstNonEmpty(it.Subject, "Schedule a time"),
		Body:    firstNonEmpty(it.Message, "Here is my Calendly link to book a time: "+link.URL),
		Account: acct,
	})
	if err != nil {
		return "", nil, err
	}
	details["status"] = StatusSent
	put(details, "message_id", res.ID)
	put(details, "thread_id", res.ThreadID)
	text := fmt.Sprintf("Sent scheduling link (%s) to %s. id=%s", link.URL, strings.Join(it.To, ", "), res.ID)
	return text, details, nil
}

func (d *Dispatcher) calendlyLookup(ctx context.Context, it *intent.Intent, calendlyKey string) (string, map[string]any, error) {
	date := timewindow.ResolveSingleDate(it.DateRef, timewindow.DateOf(d.now()))
	dateISO := date.Format("2006-01-02")
	window := calendar.Day
	if it.Daypart != "" {
		window = calendar.Window(it.Daypart)
	}
	key := firstNonEmpty(it.CalendlyKey, calendlyKey)

	events, err := d.calendar.ListEventsOn(ctx, date, window, d.loc, key)
	if err != nil {
		return "", nil, err
	}
	if events == nil {
		events = []calendar.Event{}
	}

	details := map[string]any{
		"action": "calendly_lookup",
		"status": StatusOK,
		"date":   dateISO,
		"window": string(window),
		"events": events,
	}
	put(details, "calendly_key", key)

	if len(events) == 0 {
		details["status"] = StatusEmpty
		return fmt.Sprintf("No hosted Calendly events found on %s (%s).", dateISO, window), details, nil
	}

	payload, err := json.Marshal(events)
	if err != nil {
		return "", nil, err
	}
	if len(payload) > payloadCap {
		payload = payload[:payloadCap]
	}
	reply, err := d.llm.Complete(ctx, classifier.Request{
		System: calendarSummaryPrompt,
		Messages: []classifier.Message{
			classifier.User(fmt.Sprintf("Date: %s  Window: %s  TZ: %s", dateISO, window, d.tz)),
			classifier.User(string(payload)),
		},
		Temperature: 0.2,
		Seed:        42,
	})
	if err != nil {
		return "", nil, err
	}
	return reply, details, nil
}

// freeform answers anything that is not a supported action.
func (d *Dispatcher) freeform(ctx context.Context, utterance string) (string, map[string]any, error) {
	reply, err := d.llm.Complete(ctx, classifier.Request{
		Messages: []classifier.Message{classifier.User(utterance)},
	})
	if err != nil {
		return "", nil, err
	}
	return reply, map[string]any{"action": "freeform", "status": StatusOK}, nil
}

func putDateRange(details map[string]any, interval *timewindow.Interval) {
	if interval == nil {
		return
	}
	details["date_range"] = map[string]string{
		"start": interval.Start.Format("2006-01-02"),
		"end":   interval.End.Format("2006-01-02"),
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
