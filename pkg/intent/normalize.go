package intent

import (
	"fmt"
	"regexp"
	"strings"
)

// listSplitRe splits on commas and semicolons only, never on whitespace, so
// "Name <email@x>" tokens stay intact.
var listSplitRe = regexp.MustCompile(`[;,]+`)

// FromRaw runs the two-stage repair pipeline: field-by-field normalization
// of a loosely-typed map, then strict validation into an Intent. Caller
// defaults back-fill account_email and calendly_key only when the classifier
// left them empty; an explicit classifier value always wins.
func FromRaw(data map[string]any, defaultAccount, defaultCalendlyKey string) (*Intent, error) {
	for _, field := range []string{"to", "cc", "bcc"} {
		if v, ok := data[field]; ok {
			data[field] = normalizeList(v)
		}
	}
	if defaultAccount != "" && isEmpty(data["account_email"]) {
		data["account_email"] = defaultAccount
	}
	if defaultCalendlyKey != "" && isEmpty(data["calendly_key"]) {
		data["calendly_key"] = defaultCalendlyKey
	}
	return validate(data)
}

// normalizeList coerces a slot value into a clean list of strings. Literal
// lists are trimmed and filtered to non-empty strings; a string is split on
// commas/semicolons; anything else becomes a single-element list.
func normalizeList(v any) []string {
	switch x := v.(type) {
	case nil:
		return nil
	case []string:
		return cleanStrings(x)
	case []any:
		var out []string
		for _, item := range x {
			if s, ok := item.(string); ok {
				if s = strings.TrimSpace(s); s != "" {
					out = append(out, s)
				}
			}
		}
		return out
	case string:
		var out []string
		for _, part := range listSplitRe.Split(strings.TrimSpace(x), -1) {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	default:
		return []string{fmt.Sprintf("%v", x)}
	}
}

func cleanStrings(items []string) []string {
	var out []string
	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}

// validate converts the normalized map into a strict Intent, rejecting
// unknown kinds and mistyped slots.
func validate(data map[string]any) (*Intent, error) {
	kindStr, err := stringField(data, "kind")
	if err != nil {
		return nil, err
	}
	kind := Kind(kindStr)
	if !kind.Valid() {
		return nil, &ValidationError{Field: "kind", Value: data["kind"]}
	}

	out := &Intent{Kind: kind}
	fields := []struct {
		name string
		dst  *string
	}{
		{"account_email", &out.AccountEmail},
		{"subject", &out.Subject},
		{"message", &out.Message},
		{"in_reply_to_hint", &out.InReplyToHint},
		{"time_window", &out.TimeWindow},
		{"query", &out.Query},
		{"focus", &out.Focus},
		{"calendly_key", &out.CalendlyKey},
		{"date_ref", &out.DateRef},
	}
	for _, f := range fields {
		s, err := stringField(data, f.name)
		if err != nil {
			return nil, err
		}
		*f.dst = s
	}

	daypart, err := stringField(data, "daypart")
	if err != nil {
		return nil, err
	}
	out.Daypart = Daypart(strings.ToLower(daypart))
	if !out.Daypart.Valid() {
		return nil, &ValidationError{Field: "daypart", Value: data["daypart"]}
	}

	out.To = listField(data, "to")
	out.Cc = listField(data, "cc")
	out.Bcc = listField(data, "bcc")
	return out, nil
}

func stringField(data map[string]any, name string) (string, error) {
	v, ok := data[name]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", &ValidationError{Field: name, Value: v}
	}
	return strings.TrimSpace(s), nil
}

func listField(data map[string]any, name string) []string {
	if v, ok := data[name].([]string); ok {
		return v
	}
	return nil
}
