package state

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	upstashx "github.com/shopstream/discovery-agent/pkg/upstash"
)

// fakeRedis is a map-backed stand-in for the Upstash REST endpoint. It
// understands just the commands the store issues.
type fakeRedis struct {
	mu   sync.Mutex
	data map[string]string
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: make(map[string]string)}
}

func (f *fakeRedis) handler(t *testing.T) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		var cmd []any
		if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
			t.Errorf("decode command: %v", err)
			http.Error(w, "bad command", http.StatusBadRequest)
			return
		}
		if len(cmd) < 2 {
			http.Error(w, "short command", http.StatusBadRequest)
			return
		}
		name, _ := cmd[0].(string)
		key, _ := cmd[1].(string)

		f.mu.Lock()
		defer f.mu.Unlock()
		switch name {
		case "SET":
			value, _ := cmd[2].(string)
			f.data[key] = value
			json.NewEncoder(w).Encode(map[string]any{"result": "OK"})
		case "GET":
			value, ok := f.data[key]
			if !ok {
				json.NewEncoder(w).Encode(map[string]any{"result": nil})
				return
			}
			json.NewEncoder(w).Encode(map[string]any{"result": value})
		default:
			json.NewEncoder(w).Encode(map[string]any{"error": "unknown command " + name})
		}
	}
}

func newTestStore(t *testing.T, opts ...StoreOption) (*UpstashRedisStore, *fakeRedis) {
	t.Helper()

	fake := newFakeRedis()
	server := httptest.NewServer(fake.handler(t))
	t.Cleanup(server.Close)

	client, err := upstashx.NewClient(upstashx.Config{
		URL:   server.URL,
		Token: "test-token",
	})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	client.WithHTTPClient(server.Client())

	store, err := NewUpstashRedisStore(client, opts...)
	if err != nil {
		t.Fatalf("NewUpstashRedisStore() error = %v", err)
	}
	return store, fake
}

func TestUpstashStoreSessionRoundTrip(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	sess := NewSession("sess-1", now)
	sess.Merge(map[string]any{"welcome_sent": true})
	if err := store.SaveSession(ctx, sess); err != nil {
		t.Fatalf("SaveSession() error = %v", err)
	}

	loaded, err := store.LoadSession(ctx, "sess-1")
	if err != nil {
		t.Fatalf("LoadSession() error = %v", err)
	}
	if !loaded.Flag("welcome_sent") {
		t.Fatal("welcome_sent flag lost in round trip")
	}
	if !loaded.CreatedAt.Equal(now) {
		t.Fatalf("CreatedAt = %v, want %v", loaded.CreatedAt, now)
	}
}

func TestUpstashStoreMissingSession(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	_, err := store.LoadSession(context.Background(), "nope")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("LoadSession() error = %v, want ErrSessionNotFound", err)
	}
}

func TestUpstashStoreRejectsEmptySessionID(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	if _, err := store.LoadSession(context.Background(), "  "); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("LoadSession() error = %v, want ErrInvalidSession", err)
	}
	if err := store.SaveSession(context.Background(), nil); !errors.Is(err, ErrNilSession) {
		t.Fatalf("SaveSession(nil) error = %v, want ErrNilSession", err)
	}
}

func TestUpstashStoreKeyPrefixOption(t *testing.T) {
	t.Parallel()

	store, fake := newTestStore(t, WithKeyPrefix("custom:"))
	ctx := context.Background()

	sess := NewSession("sess-9", time.Now())
	if err := store.SaveSession(ctx, sess); err != nil {
		t.Fatalf("SaveSession() error = %v", err)
	}

	fake.mu.Lock()
	_, ok := fake.data["custom:sess-9"]
	fake.mu.Unlock()
	if !ok {
		t.Fatal("session not stored under custom prefix")
	}
}

func TestUpstashStoreWindowsSinceNewestFirst(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, q := range []string{"first", "second", "third"} {
		w := &SearchWindow{
			SessionID: "sess-2",
			Query:     q,
			Results:   []string{"prod_001"},
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := store.AppendWindow(ctx, w); err != nil {
			t.Fatalf("AppendWindow(%q) error = %v", q, err)
		}
	}

	windows, err := store.WindowsSince(ctx, "sess-2", base)
	if err != nil {
		t.Fatalf("WindowsSince() error = %v", err)
	}
	if len(windows) != 3 {
		t.Fatalf("len(windows) = %d, want 3", len(windows))
	}
	if windows[0].Query != "third" || windows[2].Query != "first" {
		t.Fatalf("windows not newest first: %q, %q, %q",
			windows[0].Query, windows[1].Query, windows[2].Query)
	}
}

func TestUpstashStorePurgeWindowsBefore(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	old := &SearchWindow{SessionID: "sess-3", Query: "stale", CreatedAt: base.Add(-3 * time.Hour)}
	fresh := &SearchWindow{SessionID: "sess-3", Query: "fresh", CreatedAt: base}
	for _, w := range []*SearchWindow{old, fresh} {
		if err := store.AppendWindow(ctx, w); err != nil {
			t.Fatalf("AppendWindow() error = %v", err)
		}
	}

	if err := store.PurgeWindowsBefore(ctx, "sess-3", base.Add(-2*time.Hour)); err != nil {
		t.Fatalf("PurgeWindowsBefore() error = %v", err)
	}

	windows, err := store.WindowsSince(ctx, "sess-3", base.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("WindowsSince() error = %v", err)
	}
	if len(windows) != 1 || windows[0].Query != "fresh" {
		t.Fatalf("windows after purge = %+v, want only fresh", windows)
	}
}

func TestMemoryStoreIsolation(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()

	sess := NewSession("sess-4", time.Now())
	sess.Merge(map[string]any{"welcome_sent": true})
	if err := store.SaveSession(ctx, sess); err != nil {
		t.Fatalf("SaveSession() error = %v", err)
	}

	// Mutating the caller's copy must not leak into the store.
	sess.Data["welcome_sent"] = false

	loaded, err := store.LoadSession(ctx, "sess-4")
	if err != nil {
		t.Fatalf("LoadSession() error = %v", err)
	}
	if !loaded.Flag("welcome_sent") {
		t.Fatal("stored session mutated through caller's map")
	}
}

func TestMemoryStoreWindowsLifecycle(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		w := &SearchWindow{
			SessionID: "sess-5",
			Query:     "q",
			CreatedAt: base.Add(time.Duration(i-2) * time.Hour),
		}
		if err := store.AppendWindow(ctx, w); err != nil {
			t.Fatalf("AppendWindow() error = %v", err)
		}
	}

	if err := store.PurgeWindowsBefore(ctx, "sess-5", base.Add(-90*time.Minute)); err != nil {
		t.Fatalf("PurgeWindowsBefore() error = %v", err)
	}
	windows, err := store.WindowsSince(ctx, "sess-5", base.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("WindowsSince() error = %v", err)
	}
	if len(windows) != 2 {
		t.Fatalf("len(windows) = %d, want 2 after purge", len(windows))
	}
}
