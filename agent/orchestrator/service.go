// Package orchestrator owns the session event loop: one SSE stream per
// session, a welcome narration on first connect, heartbeats while idle,
// and a compiled graph run per inbound message.
package orchestrator

import (
	"context"
	"errors"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	contractx "github.com/shopstream/discovery-agent/agent/contract"
	"github.com/shopstream/discovery-agent/agent/narrator"
	turnnode "github.com/shopstream/discovery-agent/agent/nodes/turn"
	trackerx "github.com/shopstream/discovery-agent/agent/tracker"
)

// WelcomeSentKey is the session flag that keeps the greeting to one per
// session across reconnects.
const WelcomeSentKey = "welcome_sent"

// Config is read from the environment with the ORCHESTRATOR prefix.
type Config struct {
	HeartbeatInterval time.Duration `envconfig:"HEARTBEAT_INTERVAL" split_words:"true" default:"15s"`
	QueueSize         int           `envconfig:"QUEUE_SIZE" split_words:"true" default:"32"`
}

type Orchestrator struct {
	tracker  *trackerx.Tracker
	executor contractx.Executor
	narrator contractx.Narrator

	graphRunner compose.Runnable[turnnode.TurnInput, turnnode.TurnOutput]
	streams     *streamRegistry

	heartbeat time.Duration
	now       func() time.Time
}

func New(tracker *trackerx.Tracker, executor contractx.Executor, narrate contractx.Narrator, cfg Config) (*Orchestrator, error) {
	if tracker == nil {
		return nil, errors.New("context tracker is required")
	}
	if executor == nil {
		return nil, errors.New("executor is required")
	}
	if narrate == nil {
		return nil, errors.New("narrator is required")
	}

	heartbeat := cfg.HeartbeatInterval
	if heartbeat <= 0 {
		heartbeat = 15 * time.Second
	}

	o := &Orchestrator{
		tracker:   tracker,
		executor:  executor,
		narrator:  narrate,
		streams:   newStreamRegistry(cfg.QueueSize),
		heartbeat: heartbeat,
		now:       time.Now,
	}

	graphRunner, err := o.compileTurnGraph(context.Background())
	if err != nil {
		return nil, err
	}
	o.graphRunner = graphRunner
	return o, nil
}

// OpenSession creates a fresh session and returns its id.
func (o *Orchestrator) OpenSession(ctx context.Context) (string, error) {
	sessionID := uuid.NewString()
	if err := o.tracker.CreateSession(ctx, sessionID); err != nil {
		return "", err
	}
	log.Info().Str("session_id", sessionID).Msg("session created")
	return sessionID, nil
}

func (o *Orchestrator) SessionExists(ctx context.Context, sessionID string) (bool, error) {
	return o.tracker.SessionExists(ctx, sessionID)
}

func (o *Orchestrator) SessionContext(ctx context.Context, sessionID string) (map[string]any, error) {
	return o.tracker.GetContext(ctx, sessionID)
}

// Push queues one message for the session's open stream.
func (o *Orchestrator) Push(sessionID string, msg Inbound) error {
	return o.streams.push(sessionID, msg)
}

// Run drives one session stream until the client disconnects or the
// emitter fails. Loop shape: connection ack, welcome once, then wait for
// a message with a heartbeat ping at every idle interval.
func (o *Orchestrator) Run(ctx context.Context, sessionID string, emitter contractx.Emitter) error {
	queue, err := o.streams.open(sessionID)
	if err != nil {
		return err
	}
	defer o.streams.close(sessionID)

	if err := emitter.Emit(ctx, contractx.EventConnection, map[string]any{
		"session_id": sessionID,
		"status":     "connected",
	}); err != nil {
		return err
	}

	if err := o.sendWelcome(ctx, sessionID, emitter); err != nil {
		return err
	}

	idle := time.NewTimer(o.heartbeat)
	defer idle.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("session_id", sessionID).Msg("stream closed by client")
			return nil

		case msg := <-queue:
			if err := o.handleTurn(ctx, sessionID, msg, emitter); err != nil {
				return err
			}

		case <-idle.C:
			if err := emitter.Emit(ctx, contractx.EventPing, map[string]any{
				"timestamp": o.now().UTC().Format(time.RFC3339),
			}); err != nil {
				return err
			}
		}

		if !idle.Stop() {
			select {
			case <-idle.C:
			default:
			}
		}
		idle.Reset(o.heartbeat)
	}
}

func (o *Orchestrator) handleTurn(ctx context.Context, sessionID string, msg Inbound, emitter contractx.Emitter) error {
	_, err := o.graphRunner.Invoke(ctx, turnnode.TurnInput{
		SessionID:  sessionID,
		Text:       msg.Text,
		Function:   msg.Function,
		Parameters: msg.Parameters,
		Emitter:    emitter,
	})
	if err == nil {
		return nil
	}

	// Bad input gets an error event and the stream lives on; anything
	// else terminates after a best-effort error event.
	emitErr := emitter.Emit(ctx, contractx.EventError, map[string]any{
		"error":      err.Error(),
		"session_id": sessionID,
	})
	if errors.Is(err, turnnode.ErrInvalidMessage) && emitErr == nil {
		return nil
	}
	log.Error().Err(err).Str("session_id", sessionID).Msg("turn failed, closing stream")
	return err
}

// sendWelcome streams the greeting exactly once per session. The
// completion here intentionally carries no function name.
func (o *Orchestrator) sendWelcome(ctx context.Context, sessionID string, emitter contractx.Emitter) error {
	sent, err := o.tracker.Flag(ctx, sessionID, WelcomeSentKey)
	if err != nil {
		return err
	}
	if sent {
		return nil
	}

	for _, chunk := range narrator.WelcomeChunks {
		if err := emitter.Emit(ctx, contractx.EventTextChunk, map[string]any{
			"content": chunk,
			"partial": true,
		}); err != nil {
			return err
		}
	}
	if err := emitter.Emit(ctx, contractx.EventCompletion, map[string]any{
		"turn_id": uuid.NewString(),
		"status":  "complete",
	}); err != nil {
		return err
	}
	return o.tracker.UpdateContext(ctx, sessionID, map[string]any{WelcomeSentKey: true})
}
