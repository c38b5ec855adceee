package session

import (
	"encoding/json"
	"fmt"
)

// Session is the decoded key/value bag.  It is owned by one request and is
// not safe for concurrent use.
type Session struct {
	values map[string]string
}

func newSession() *Session { return &Session{values: map[string]string{}} }

// NewSession returns an empty session, for handlers that build one from
// scratch.
func NewSession() *Session { return newSession() }

// Get returns the value for key or "".
func (s *Session) Get(key string) string { return s.values[key] }

// Has reports whether key is set to a non-empty value.
func (s *Session) Has(key string) bool { return s.values[key] != "" }

// Set stores value under key.  An empty value removes the key.
func (s *Session) Set(key, value string) {
	if value == "" {
		delete(s.values, key)
		return
	}
	s.values[key] = value
}

// Unset removes key.
func (s *Session) Unset(key string) { delete(s.values, key) }

// Len returns the number of stored keys.
func (s *Session) Len() int { return len(s.values) }

// GetJSON decodes the JSON stored under key into v.  ok is false when the
// key is absent; err reports a malformed value.
func (s *Session) GetJSON(key string, v any) (ok bool, err error) {
	raw, found := s.values[key]
	if !found || raw == "" {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return false, fmt.Errorf("session: decode %s: %w", key, err)
	}
	return true, nil
}

// SetJSON stores v under key as JSON.
func (s *Session) SetJSON(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("session: encode %s: %w", key, err)
	}
	s.values[key] = string(raw)
	return nil
}
