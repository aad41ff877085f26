package orchestrator

import (
	"errors"
	"sync"
)

var (
	ErrStreamActive   = errors.New("a stream is already open for this session")
	ErrStreamNotFound = errors.New("no open stream for this session")
	ErrQueueFull      = errors.New("session message queue is full")
)

// Inbound is one message posted to a session. A non-empty Function
// bypasses intent parsing.
type Inbound struct {
	Text       string         `json:"message"`
	Function   string         `json:"function,omitempty"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// streamRegistry hands each open stream its bounded inbound queue. One
// stream per session; a second open is rejected rather than splitting
// events across consumers.
type streamRegistry struct {
	mu        sync.Mutex
	queues    map[string]chan Inbound
	queueSize int
}

func newStreamRegistry(queueSize int) *streamRegistry {
	if queueSize <= 0 {
		queueSize = 32
	}
	return &streamRegistry{
		queues:    make(map[string]chan Inbound),
		queueSize: queueSize,
	}
}

func (r *streamRegistry) open(sessionID string) (chan Inbound, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, active := r.queues[sessionID]; active {
		return nil, ErrStreamActive
	}
	queue := make(chan Inbound, r.queueSize)
	r.queues[sessionID] = queue
	return queue, nil
}

// close drops the queue; buffered messages of a disconnected client are
// discarded, not replayed.
func (r *streamRegistry) close(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.queues, sessionID)
}

func (r *streamRegistry) push(sessionID string, msg Inbound) error {
	r.mu.Lock()
	queue, active := r.queues[sessionID]
	r.mu.Unlock()

	if !active {
		return ErrStreamNotFound
	}
	select {
	case queue <- msg:
		return nil
	default:
		return ErrQueueFull
	}
}
