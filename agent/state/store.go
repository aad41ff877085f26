package state

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	upstashx "github.com/shopstream/discovery-agent/pkg/upstash"
)

const (
	defaultStoreKeyPrefix = "pda:session:"
	defaultStoreTTL       = 24 * time.Hour
)

// Store is the session/window persistence contract used by the context
// tracker and the orchestrator.
type Store interface {
	LoadSession(ctx context.Context, sessionID string) (*Session, error)
	SaveSession(ctx context.Context, s *Session) error

	AppendWindow(ctx context.Context, w *SearchWindow) error
	// WindowsSince returns windows created at or after cutoff, newest first.
	WindowsSince(ctx context.Context, sessionID string, cutoff time.Time) ([]SearchWindow, error)
	PurgeWindowsBefore(ctx context.Context, sessionID string, cutoff time.Time) error
}

// StoreOption customizes UpstashRedisStore.
type StoreOption func(*UpstashRedisStore)

func WithKeyPrefix(prefix string) StoreOption {
	return func(s *UpstashRedisStore) {
		trimmed := strings.TrimSpace(prefix)
		if trimmed != "" {
			s.keyPrefix = trimmed
		}
	}
}

func WithTTL(ttl time.Duration) StoreOption {
	return func(s *UpstashRedisStore) {
		s.ttl = ttl
	}
}

// UpstashRedisStore persists sessions and search windows in Upstash
// Redis via REST. The window list for a session lives under one key and
// is rewritten on purge; fine at single-consumer cardinality.
type UpstashRedisStore struct {
	client    *upstashx.Client
	keyPrefix string
	ttl       time.Duration
}

func NewUpstashRedisStore(client *upstashx.Client, opts ...StoreOption) (*UpstashRedisStore, error) {
	if client == nil {
		return nil, errors.New("upstash client is required")
	}

	store := &UpstashRedisStore{
		client:    client,
		keyPrefix: defaultStoreKeyPrefix,
		ttl:       defaultStoreTTL,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}
	if store.ttl < 0 {
		return nil, errors.New("ttl must be >= 0")
	}
	return store, nil
}

func (s *UpstashRedisStore) LoadSession(ctx context.Context, sessionID string) (*Session, error) {
	key, err := s.sessionKey(sessionID)
	if err != nil {
		return nil, err
	}

	var sess Session
	found, err := s.getJSON(ctx, key, &sess)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrSessionNotFound
	}
	if sess.Data == nil {
		sess.Data = make(map[string]any)
	}
	return &sess, nil
}

func (s *UpstashRedisStore) SaveSession(ctx context.Context, sess *Session) error {
	if sess == nil {
		return ErrNilSession
	}
	key, err := s.sessionKey(sess.SessionID)
	if err != nil {
		return err
	}
	if sess.UpdatedAt.IsZero() {
		sess.UpdatedAt = time.Now().UTC()
	}
	return s.setJSON(ctx, key, sess)
}

func (s *UpstashRedisStore) AppendWindow(ctx context.Context, w *SearchWindow) error {
	if w == nil {
		return errors.New("search window is nil")
	}
	key, err := s.windowsKey(w.SessionID)
	if err != nil {
		return err
	}

	var windows []SearchWindow
	if _, err := s.getJSON(ctx, key, &windows); err != nil {
		return err
	}
	windows = append(windows, *w)
	return s.setJSON(ctx, key, windows)
}

func (s *UpstashRedisStore) WindowsSince(ctx context.Context, sessionID string, cutoff time.Time) ([]SearchWindow, error) {
	key, err := s.windowsKey(sessionID)
	if err != nil {
		return nil, err
	}

	var windows []SearchWindow
	if _, err := s.getJSON(ctx, key, &windows); err != nil {
		return nil, err
	}

	recent := make([]SearchWindow, 0, len(windows))
	for i := len(windows) - 1; i >= 0; i-- { // newest first
		if !windows[i].CreatedAt.Before(cutoff) {
			recent = append(recent, windows[i])
		}
	}
	return recent, nil
}

func (s *UpstashRedisStore) PurgeWindowsBefore(ctx context.Context, sessionID string, cutoff time.Time) error {
	key, err := s.windowsKey(sessionID)
	if err != nil {
		return err
	}

	var windows []SearchWindow
	found, err := s.getJSON(ctx, key, &windows)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}

	kept := windows[:0]
	for _, w := range windows {
		if !w.CreatedAt.Before(cutoff) {
			kept = append(kept, w)
		}
	}
	return s.setJSON(ctx, key, kept)
}

func (s *UpstashRedisStore) sessionKey(sessionID string) (string, error) {
	if strings.TrimSpace(sessionID) == "" {
		return "", ErrInvalidSession
	}
	return s.keyPrefix + sessionID, nil
}

func (s *UpstashRedisStore) windowsKey(sessionID string) (string, error) {
	key, err := s.sessionKey(sessionID)
	if err != nil {
		return "", err
	}
	return key + ":windows", nil
}

// getJSON reads and decodes one key. Upstash returns GET results as a
// JSON-encoded string, so the payload is decoded twice.
func (s *UpstashRedisStore) getJSON(ctx context.Context, key string, out any) (bool, error) {
	result, err := s.client.Do(ctx, []any{"GET", key})
	if err != nil {
		return false, err
	}

	trimmed := bytes.TrimSpace(result)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return false, nil
	}

	var encoded string
	if err := json.Unmarshal(trimmed, &encoded); err != nil {
		return false, fmt.Errorf("decode payload for key=%s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(encoded), out); err != nil {
		return false, fmt.Errorf("unmarshal payload for key=%s: %w", key, err)
	}
	return true, nil
}

func (s *UpstashRedisStore) setJSON(ctx context.Context, key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal payload for key=%s: %w", key, err)
	}

	cmd := []any{"SET", key, string(payload)}
	if s.ttl > 0 {
		cmd = append(cmd, "EX", ttlSeconds(s.ttl))
	}
	_, err = s.client.Do(ctx, cmd)
	return err
}

func ttlSeconds(ttl time.Duration) int64 {
	seconds := ttl / time.Second
	if seconds <= 0 {
		return 1
	}
	if ttl%time.Second != 0 {
		seconds++
	}
	return int64(seconds)
}
