// Package turnnode holds the per-message pipeline steps the
// orchestrator composes into its graph. Each step is a pure function
// over TurnState plus the collaborator it needs.
package turnnode

import (
	"errors"
	"strings"
	"time"

	contractx "github.com/shopstream/discovery-agent/agent/contract"
)

var (
	ErrInvalidMessage = errors.New("message is empty")
	ErrInvalidSession = errors.New("session id is empty")
)

// TurnInput is one inbound user message. Function may name an explicit
// action, or FunctionInfer to derive one from Text.
type TurnInput struct {
	SessionID  string
	Text       string
	Function   string
	Parameters map[string]any
	Emitter    contractx.Emitter
}

// TurnOutput summarizes the handled turn.
type TurnOutput struct {
	Function string
	Narrated bool
	Executed bool
}

type TurnState struct {
	SessionID string
	Text      string
	Now       time.Time
	Emitter   contractx.Emitter

	Plan     *contractx.Plan
	Envelope *contractx.Envelope
	Narrated bool
}

// ValidateTurn rejects blank sessions and blank free-text turns.
// Explicit function calls may carry empty text.
func ValidateTurn(in TurnInput, nowFn func() time.Time) (*TurnState, error) {
	sessionID := strings.TrimSpace(in.SessionID)
	if sessionID == "" {
		return nil, ErrInvalidSession
	}
	if in.Emitter == nil {
		return nil, errors.New("emitter is required")
	}

	text := strings.TrimSpace(in.Text)
	explicit := in.Function != "" && in.Function != contractx.FunctionInfer
	if text == "" && !explicit {
		return nil, ErrInvalidMessage
	}

	state := &TurnState{
		SessionID: sessionID,
		Text:      text,
		Now:       nowFn().UTC(),
		Emitter:   in.Emitter,
	}
	if explicit {
		params := in.Parameters
		if params == nil {
			params = map[string]any{}
		}
		state.Plan = &contractx.Plan{Function: in.Function, Parameters: params}
	}
	return state, nil
}
