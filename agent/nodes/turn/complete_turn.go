package turnnode

import (
	"context"

	"github.com/google/uuid"

	contractx "github.com/shopstream/discovery-agent/agent/contract"
)

// CompleteTurn closes the turn with a completion event. Message turns
// carry the executed function name; the welcome flow emits its
// completion without one, and clients tolerate both shapes.
func CompleteTurn(ctx context.Context, state *TurnState) (TurnOutput, error) {
	data := map[string]any{
		"turn_id": uuid.NewString(),
		"status":  "complete",
	}
	if state.Envelope != nil {
		data["function"] = state.Envelope.Function
	}
	if err := state.Emitter.Emit(ctx, contractx.EventCompletion, data); err != nil {
		return TurnOutput{}, err
	}

	out := TurnOutput{Narrated: state.Narrated, Executed: state.Envelope != nil}
	if state.Envelope != nil {
		out.Function = state.Envelope.Function
	}
	return out, nil
}
