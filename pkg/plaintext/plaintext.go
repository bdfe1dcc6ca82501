// Package plaintext strips lightweight markup from model-authored prose for
// plain-text consumers such as voice and SMS surfaces.
package plaintext

import (
	"regexp"
	"strings"
)

var (
	boldRe   = regexp.MustCompile(`\*\*(.*?)\*\*`)
	italicRe = regexp.MustCompile(`_(.*?)_`)
	bulletRe = regexp.MustCompile(`(?m)^[-*]\s+`)
	numberRe = regexp.MustCompile(`(?m)^(\d+)\.\s+`)
)

// Strip removes bold/italic markers, normalizes bullet and numbered-list
// markers to plain prefixes and drops inline code backticks. Applying it
// twice yields the same output as once.
func Strip(text string) string {
	if text == "" {
		return ""
	}
	cleaned := boldRe.ReplaceAllString(text, "$1")
	cleaned = italicRe.ReplaceAllString(cleaned, "$1")
	cleaned = bulletRe.ReplaceAllString(cleaned, "- ")
	cleaned = numberRe.ReplaceAllString(cleaned, "$1) ")
	cleaned = strings.ReplaceAll(cleaned, "`", "")
	return strings.TrimSpace(cleaned)
}
