package state

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is the in-process Store used in tests and in single-node
// deployments without Redis.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
	windows  map[string][]SearchWindow
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]Session),
		windows:  make(map[string][]SearchWindow),
	}
}

func (m *MemoryStore) LoadSession(_ context.Context, sessionID string) (*Session, error) {
	if sessionID == "" {
		return nil, ErrInvalidSession
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	sess, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	out := sess
	out.Data = copyData(sess.Data)
	return &out, nil
}

func (m *MemoryStore) SaveSession(_ context.Context, s *Session) error {
	if s == nil {
		return ErrNilSession
	}
	if s.SessionID == "" {
		return ErrInvalidSession
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	stored := *s
	stored.Data = copyData(s.Data)
	m.sessions[s.SessionID] = stored
	return nil
}

func (m *MemoryStore) AppendWindow(_ context.Context, w *SearchWindow) error {
	if w == nil || w.SessionID == "" {
		return ErrInvalidSession
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	stored := *w
	stored.Results = append([]string(nil), w.Results...)
	m.windows[w.SessionID] = append(m.windows[w.SessionID], stored)
	return nil
}

func (m *MemoryStore) WindowsSince(_ context.Context, sessionID string, cutoff time.Time) ([]SearchWindow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := m.windows[sessionID]
	recent := make([]SearchWindow, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- { // newest first
		if !all[i].CreatedAt.Before(cutoff) {
			recent = append(recent, all[i])
		}
	}
	return recent, nil
}

func (m *MemoryStore) PurgeWindowsBefore(_ context.Context, sessionID string, cutoff time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	all := m.windows[sessionID]
	if len(all) == 0 {
		return nil
	}
	kept := all[:0]
	for _, w := range all {
		if !w.CreatedAt.Before(cutoff) {
			kept = append(kept, w)
		}
	}
	m.windows[sessionID] = kept
	return nil
}

func copyData(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = v
	}
	return out
}
