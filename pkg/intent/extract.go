package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
	"github.com/rs/zerolog"

	"github.com/zen-systems/mailgate/pkg/classifier"
)

// systemPrompt fixes the extraction contract. Classification drift is the
// dominant failure mode without the worked examples below, so both travel
// with every call.
const systemPrompt = `You convert user requests into a STRICT JSON intent.
Rules:
- Allowed kinds: send_email | summarize_emails | calendly_lookup | send_scheduling_link | other
- Never invent email addresses or names. If a field is unknown, set it to null (or [] for list fields).
- Keep subject short and neutral. Use the user's wording for message when provided; otherwise draft a brief, professional first version.
- For summarize_emails, infer time_window (e.g., "yesterday", "last 3 days") and optional query/focus from the user's words. Do not guess specifics.
- For calendly_lookup, infer date_ref (e.g., "monday", ISO date) and daypart (morning/afternoon/evening) only if the user implies it.
- Output ONLY JSON matching the schema; no commentary.`

// fewShots are worked examples that fix the expected shape and tone.
var fewShots = []classifier.Message{
	classifier.User("send an email to john@example.com saying I can't join tomorrow's standup"),
	classifier.Assistant(`{"kind":"send_email","to":["john@example.com"],"subject":"About tomorrow's standup","message":"Hi John, I won't be able to join tomorrow's standup.","cc":null,"bcc":null,"account_email":null,"in_reply_to_hint":null,"time_window":null,"query":null,"focus":null,"calendly_key":null,"date_ref":null,"daypart":null}`),
	classifier.User("summarize my important emails from yesterday about invoices"),
	classifier.Assistant(`{"kind":"summarize_emails","time_window":"yesterday","query":null,"focus":"invoices","to":null,"subject":null,"message":null,"cc":null,"bcc":null,"account_email":null,"in_reply_to_hint":null,"calendly_key":null,"date_ref":null,"daypart":null}`),
	classifier.User("who did I meet on Calendly on Monday afternoon?"),
	classifier.Assistant(`{"kind":"calendly_lookup","date_ref":"monday","daypart":"afternoon","to":null,"subject":null,"message":null,"cc":null,"bcc":null,"account_email":null,"in_reply_to_hint":null,"time_window":null,"query":null,"focus":null,"calendly_key":null}`),
	classifier.User("share a Calendly link with jane@example.com"),
	classifier.Assistant(`{"kind":"send_scheduling_link","to":["jane@example.com"],"subject":"Schedule a time","message":"Here is my Calendly link to book a time.","cc":null,"bcc":null,"account_email":null,"in_reply_to_hint":null,"time_window":null,"query":null,"focus":null,"calendly_key":null,"date_ref":null,"daypart":null}`),
	classifier.User("hi"),
	classifier.Assistant(`{"kind":"other","to":null,"subject":null,"message":null,"cc":null,"bcc":null,"account_email":null,"in_reply_to_hint":null,"time_window":null,"query":null,"focus":null,"calendly_key":null,"date_ref":null,"daypart":null}`),
}

// Extractor invokes the classifier and repairs its output into a valid
// Intent.
type Extractor struct {
	llm classifier.Classifier
	log zerolog.Logger
}

// NewExtractor creates an extractor bound to a classifier backend.
func NewExtractor(llm classifier.Classifier, log zerolog.Logger) *Extractor {
	return &Extractor{llm: llm, log: log}
}

// Extract classifies one utterance. The strict schema-validated contract is
// tried first; any failure there falls back once to a relaxed free-form-JSON
// contract. A JSON parse failure after repair yields the default "other"
// intent instead of an error, because classification must never hard-fail
// the request. A shape failure after normalization is fatal.
func (e *Extractor) Extract(ctx context.Context, utterance, accountEmail, calendlyKey string) (*Intent, error) {
	msgs := make([]classifier.Message, 0, len(fewShots)+2)
	msgs = append(msgs, fewShots...)
	msgs = append(msgs,
		classifier.User(utterance),
		classifier.User(fmt.Sprintf("account_email=%s calendly_key=%s", accountEmail, calendlyKey)),
	)

	req := classifier.Request{
		System:      systemPrompt,
		Messages:    msgs,
		Schema:      &classifier.Schema{Name: "intent", Definition: Schema()},
		Temperature: 0.0,
		Seed:        42,
	}
	raw, err := e.llm.Complete(ctx, req)
	if err != nil {
		e.log.Warn().Err(err).Msg("structured intent extraction failed; falling back to free-form JSON")
		req.Schema = nil
		req.ForceJSON = true
		raw, err = e.llm.Complete(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("intent classification failed: %w", err)
		}
	}

	data := parseIntentJSON(raw, e.log)
	return FromRaw(data, accountEmail, calendlyKey)
}

// parseIntentJSON parses classifier output, repairing malformed JSON when
// possible and defaulting to the unclassified intent when not.
func parseIntentJSON(raw string, log zerolog.Logger) map[string]any {
	cleaned := stripFences(raw)
	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err == nil {
		return data
	}
	repaired, err := jsonrepair.JSONRepair(cleaned)
	if err == nil {
		if err := json.Unmarshal([]byte(repaired), &data); err == nil {
			return data
		}
	}
	log.Error().Str("raw", raw).Msg("failed to parse intent JSON; defaulting to other")
	return map[string]any{"kind": string(KindOther)}
}

// stripFences removes markdown code fences some models wrap JSON in.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
