package classifier

import (
	"encoding/json"
	"strings"
)

// promptPreamble renders the system text plus any structured-output contract
// as plain prompt text, for backends without native response formats.
func promptPreamble(req Request) string {
	var sb strings.Builder
	if req.System != "" {
		sb.WriteString(req.System)
	}
	if req.Schema != nil {
		def, err := json.Marshal(req.Schema.Definition)
		if err == nil {
			if sb.Len() > 0 {
				sb.WriteString("\n\n")
			}
			sb.WriteString("Return ONLY a single JSON object conforming to this JSON Schema (no commentary, no code fences):\n")
			sb.Write(def)
		}
	} else if req.ForceJSON {
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString("Return ONLY a single JSON object. No commentary, no code fences.")
	}
	return sb.String()
}

// flattenPrompt folds a conversation into one prompt string for single-shot
// backends.
func flattenPrompt(req Request) string {
	var sb strings.Builder
	if preamble := promptPreamble(req); preamble != "" {
		sb.WriteString(preamble)
		sb.WriteString("\n\n")
	}
	for _, m := range req.Messages {
		switch m.Role {
		case "assistant":
			sb.WriteString("Assistant: ")
		default:
			sb.WriteString("User: ")
		}
		sb.WriteString(m.Content)
		sb.WriteString("\n")
	}
	return strings.TrimSpace(sb.String())
}
