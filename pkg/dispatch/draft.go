package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/zen-systems/mailgate/pkg/classifier"
)

const draftSystemPrompt = "You are an expert communications assistant. Write a concise, professional email based on a short instruction. " +
	"Tone: respectful, clear, and empathetic when the topic is sensitive (e.g., employment changes). " +
	"Avoid slang or harsh phrasing. Do not include legal advice or confidential details. " +
	"Prefer neutral wording (e.g., 'We regret to inform you...'). " +
	"Return ONLY JSON with subject and body_text."

func draftSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"subject":   map[string]any{"type": "string"},
			"body_text": map[string]any{"type": "string"},
		},
		"required": []string{"subject", "body_text"},
	}
}

// draft expands a terse instruction into a professional subject and body.
// The strict schema contract is tried first with a relaxed retry behind it;
// a parse failure falls back to the literal instruction so a send never
// dies on a malformed draft. The configured signature is appended when the
// body does not already carry it.
func (d *Dispatcher) draft(ctx context.Context, subjectHint, instruction string, to []string) (string, string, error) {
	user := fmt.Sprintf(
		"Instruction: %s\nRecipient(s): %s\nSubject hint: %s\nSignature: %s\n"+
			"Constraints: <= 180 words. If no recipient name is known, use a generic greeting (e.g., 'Hello').",
		instruction,
		orPlaceholder(strings.Join(to, ", "), "(not specified)"),
		orPlaceholder(subjectHint, "(none)"),
		orPlaceholder(d.signature, "(none)"),
	)

	req := classifier.Request{
		System:      draftSystemPrompt,
		Messages:    []classifier.Message{classifier.User(user)},
		Schema:      &classifier.Schema{Name: "email_draft", Definition: draftSchema()},
		Temperature: 0.2,
		Seed:        42,
	}
	raw, err := d.llm.Complete(ctx, req)
	if err != nil {
		d.log.Warn().Err(err).Msg("draft email schema call failed; using relaxed format")
		req.Schema = nil
		req.ForceJSON = true
		raw, err = d.llm.Complete(ctx, req)
		if err != nil {
			return "", "", fmt.Errorf("email drafting failed: %w", err)
		}
	}

	var parsed struct {
		Subject  string `json:"subject"`
		BodyText string `json:"body_text"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		d.log.Error().Err(err).Msg("failed to parse drafted email JSON")
		parsed.Subject, parsed.BodyText = subjectHint, instruction
	}

	subject := strings.TrimSpace(firstNonEmpty(parsed.Subject, subjectHint))
	body := strings.TrimSpace(firstNonEmpty(parsed.BodyText, instruction))
	if d.signature != "" && !strings.Contains(body, d.signature) {
		if !strings.HasSuffix(body, "\n") {
			body += "\n"
		}
		body += "\n" + d.signature
	}
	return subject, body, nil
}

func orPlaceholder(s, placeholder string) string {
	if s == "" {
		return placeholder
	}
	return s
}
