package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
)

// sseEmitter writes server-sent events with the exact field order
// clients parse: event, data, id, blank line. Events are numbered per
// stream starting at 1.
type sseEmitter struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	flusher http.Flusher
	nextID  int
}

func newSSEEmitter(w http.ResponseWriter) (*sseEmitter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("response writer %T does not support flushing", w)
	}
	return &sseEmitter{w: w, flusher: flusher, nextID: 1}, nil
}

func (e *sseEmitter) Emit(ctx context.Context, eventType string, data any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", eventType, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := fmt.Fprintf(e.w, "event: %s\ndata: %s\nid: %d\n\n", eventType, payload, e.nextID); err != nil {
		return fmt.Errorf("write %s event: %w", eventType, err)
	}
	e.nextID++
	e.flusher.Flush()
	return nil
}
