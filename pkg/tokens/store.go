// Package tokens manages per-account credential files: OAuth tokens for the
// mail provider and personal access tokens for the calendar provider.
// Obtaining credentials in the first place (consent flows, refresh) is a
// collaborator concern; this store only reads and writes what they produce.
package tokens

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/oauth2"
)

var slugRe = regexp.MustCompile(`[^a-zA-Z0-9_.+-]+`)

// Store is a directory of credential files, one per account.
type Store struct {
	Dir string
}

// NewStore creates the token directory if needed. An empty dir defaults to
// ~/.mailgate/tokens.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(home, ".mailgate", "tokens")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}
	return &Store{Dir: dir}, nil
}

// Slug sanitizes an account identifier for use in a filename.
func Slug(s string) string {
	return slugRe.ReplaceAllString(strings.TrimSpace(s), "_")
}

// MailToken loads the stored OAuth token for an account.
func (s *Store) MailToken(account string) (*oauth2.Token, error) {
	path := s.mailTokenPath(account)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("no mail token for %s: %w", account, err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("mail token for %s is corrupt: %w", account, err)
	}
	return &tok, nil
}

// SaveMailToken persists an OAuth token for an account.
func (s *Store) SaveMailToken(account string, tok *oauth2.Token) error {
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.mailTokenPath(account), data, 0600)
}

// CalendarToken loads the stored personal access token for a scheduling key.
func (s *Store) CalendarToken(key string) (string, error) {
	path := filepath.Join(s.Dir, fmt.Sprintf("calendly-%s.txt", Slug(key)))
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("no calendar token for %s: %w", key, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// SaveCalendarToken persists a personal access token for a scheduling key.
func (s *Store) SaveCalendarToken(key, pat string) error {
	path := filepath.Join(s.Dir, fmt.Sprintf("calendly-%s.txt", Slug(key)))
	return os.WriteFile(path, []byte(pat+"\n"), 0600)
}

func (s *Store) mailTokenPath(account string) string {
	return filepath.Join(s.Dir, fmt.Sprintf("gmail-%s.json", Slug(account)))
}
