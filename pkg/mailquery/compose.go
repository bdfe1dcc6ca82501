// Package mailquery builds provider search queries from resolved date
// intervals and user filters, and re-checks fetched messages against those
// bounds locally.
package mailquery

import (
	"strconv"
	"strings"
	"time"

	"github.com/zen-systems/mailgate/pkg/mail"
	"github.com/zen-systems/mailgate/pkg/timewindow"
)

// tokenDateFormat is the provider's date-token format for after:/before:.
const tokenDateFormat = "2006/01/02"

// Compose assembles a provider search query from the user's literal query
// fragment, an optional resolved interval and a coarse focus hint. Interval
// bounds become exclusive after:/before: tokens padded one day each side.
// Tokens are deduplicated by exact string, first seen wins. The empty string
// means no query at all; the caller should list recent messages instead.
func Compose(userQuery string, interval *timewindow.Interval, focus string) string {
	var parts []string
	if q := strings.TrimSpace(userQuery); q != "" {
		parts = append(parts, q)
	}
	if interval != nil {
		after := interval.Start.AddDate(0, 0, -1).Format(tokenDateFormat)
		before := interval.End.AddDate(0, 0, 1).Format(tokenDateFormat)
		parts = append(parts, "after:"+after, "before:"+before)
	}
	if focus != "" {
		focusLower := strings.ToLower(focus)
		if strings.Contains(focusLower, "important") {
			parts = append(parts, "label:important")
		}
		if strings.Contains(focusLower, "unread") {
			parts = append(parts, "is:unread")
		}
	}
	if len(parts) == 0 {
		return ""
	}
	seen := make(map[string]bool, len(parts))
	unique := parts[:0]
	for _, p := range parts {
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		unique = append(unique, p)
	}
	return strings.Join(unique, " ")
}

// FilterByInterval drops messages whose internal timestamp falls outside
// [start 00:00:00, end 23:59:59.999] UTC. Remote search tokens are
// best-effort, so this runs after every fetch. Messages with an unparseable
// timestamp are kept rather than silently dropped. No-op without an interval.
func FilterByInterval(messages []mail.Message, interval *timewindow.Interval) []mail.Message {
	if interval == nil {
		return messages
	}
	startMs := interval.Start.UnixMilli()
	endMs := interval.End.AddDate(0, 0, 1).UnixMilli() - 1
	filtered := make([]mail.Message, 0, len(messages))
	for _, msg := range messages {
		ts, err := strconv.ParseInt(msg.InternalDate, 10, 64)
		if err != nil {
			filtered = append(filtered, msg)
			continue
		}
		if ts >= startMs && ts <= endMs {
			filtered = append(filtered, msg)
		}
	}
	return filtered
}

// TokenDate formats a date the way the provider's query mini-language
// expects.
func TokenDate(d time.Time) string {
	return d.Format(tokenDateFormat)
}
