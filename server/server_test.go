package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	catalogx "github.com/shopstream/discovery-agent/agent/catalog"
	executorx "github.com/shopstream/discovery-agent/agent/executor"
	"github.com/shopstream/discovery-agent/agent/narrator"
	orchestratorx "github.com/shopstream/discovery-agent/agent/orchestrator"
	statex "github.com/shopstream/discovery-agent/agent/state"
	trackerx "github.com/shopstream/discovery-agent/agent/tracker"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	tr, err := trackerx.New(statex.NewMemoryStore())
	if err != nil {
		t.Fatalf("tracker.New() error = %v", err)
	}
	exec, err := executorx.New(catalogx.NewMemoryCatalog(nil), catalogx.NewMemoryCartStore(), tr)
	if err != nil {
		t.Fatalf("executor.New() error = %v", err)
	}
	orch, err := orchestratorx.New(tr, exec, narrator.NewCanned(narrator.CannedConfig{}), orchestratorx.Config{})
	if err != nil {
		t.Fatalf("orchestrator.New() error = %v", err)
	}
	srv, err := New(orch, Config{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return srv
}

func createSession(t *testing.T, srv *Server) string {
	t.Helper()

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/sessions", nil))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create session status = %d, want 201", rec.Code)
	}

	var body struct {
		SessionID string `json:"session_id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode session response: %v", err)
	}
	if body.SessionID == "" {
		t.Fatal("session_id empty")
	}
	return body.SessionID
}

func TestHealth(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestPostMessageUnknownSession(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/chat/ghost/message",
		strings.NewReader(`{"message":"hello"}`))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestPostMessageBadPayload(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	sessionID := createSession(t, srv)

	for _, payload := range []string{`{`, `{"message":""}`} {
		req := httptest.NewRequest(http.MethodPost, "/api/chat/"+sessionID+"/message",
			strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")

		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("payload %q status = %d, want 400", payload, rec.Code)
		}
	}
}

func TestPostMessageWithoutStream(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	sessionID := createSession(t, srv)

	req := httptest.NewRequest(http.MethodPost, "/api/chat/"+sessionID+"/message",
		strings.NewReader(`{"message":"search laptops"}`))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409 without an open stream", rec.Code)
	}
}

func TestSessionContext(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	sessionID := createSession(t, srv)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions/"+sessionID+"/context", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions/ghost/context", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 for unknown session", rec.Code)
	}
}

func TestStreamUnknownSession(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stream/ghost", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestStreamEmitsWelcomeFrames(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	sessionID := createSession(t, srv)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/stream/"+sessionID, nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()
	srv.Handler().ServeHTTP(rec, req)

	body := rec.Body.String()
	if !strings.Contains(body, "event: connection\n") {
		t.Fatalf("body missing connection event:\n%s", body)
	}
	if !strings.Contains(body, "event: text_chunk\n") {
		t.Fatalf("body missing welcome chunks:\n%s", body)
	}
	if !strings.Contains(body, "event: completion\n") {
		t.Fatalf("body missing welcome completion:\n%s", body)
	}

	// Field order inside a frame: event, data, id.
	idx := strings.Index(body, "event: connection\n")
	frame := body[idx:]
	dataIdx := strings.Index(frame, "\ndata: ")
	idIdx := strings.Index(frame, "\nid: ")
	if dataIdx < 0 || idIdx < 0 || dataIdx > idIdx {
		t.Fatalf("frame fields out of order:\n%s", frame[:120])
	}
	if rec.Header().Get("Content-Type") != "text/event-stream" {
		t.Fatalf("content type = %q", rec.Header().Get("Content-Type"))
	}
}

func TestSSEEmitterNumbersEvents(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	emitter, err := newSSEEmitter(rec)
	if err != nil {
		t.Fatalf("newSSEEmitter() error = %v", err)
	}

	ctx := context.Background()
	if err := emitter.Emit(ctx, "ping", map[string]any{"n": 1}); err != nil {
		t.Fatalf("Emit() error = %v", err)
	}
	if err := emitter.Emit(ctx, "ping", map[string]any{"n": 2}); err != nil {
		t.Fatalf("Emit() error = %v", err)
	}

	body := rec.Body.String()
	if !strings.Contains(body, "id: 1\n\n") || !strings.Contains(body, "id: 2\n\n") {
		t.Fatalf("events not numbered sequentially:\n%s", body)
	}
}
