package state

import (
	"errors"
	"time"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrNilSession      = errors.New("session is nil")
	ErrInvalidSession  = errors.New("session id is empty")
)

// Session is the per-conversation flag map. Sessions are never hard
// deleted within the process lifetime; eviction is out of scope.
type Session struct {
	SessionID string         `json:"session_id"`
	Data      map[string]any `json:"data"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func NewSession(sessionID string, now time.Time) *Session {
	return &Session{
		SessionID: sessionID,
		Data:      make(map[string]any, 4),
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
}

func (s *Session) Touch(now time.Time) {
	s.UpdatedAt = now.UTC()
}

// Merge shallow-merges patch keys into the session map. Merging the
// same patch twice is idempotent.
func (s *Session) Merge(patch map[string]any) {
	if s.Data == nil {
		s.Data = make(map[string]any, len(patch))
	}
	for k, v := range patch {
		s.Data[k] = v
	}
}

// Flag reads a boolean flag, treating missing or non-bool values as false.
func (s *Session) Flag(key string) bool {
	if s == nil || s.Data == nil {
		return false
	}
	v, ok := s.Data[key].(bool)
	return ok && v
}

// SearchWindow records the entity identifiers one executed search
// surfaced to the user. Windows are append-only; old ones are purged by
// the tracker on insert.
type SearchWindow struct {
	SessionID string    `json:"session_id"`
	Query     string    `json:"query"`
	Results   []string  `json:"results"`
	Category  string    `json:"category,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
