package turnnode

import (
	"context"

	contractx "github.com/shopstream/discovery-agent/agent/contract"
)

const clarificationText = "I didn't catch that. You can search the catalog, ask for product details, or manage your cart."

// NarrateIntent streams narration chunks ahead of execution. Silent
// functions are direct cart confirmations and skip narration entirely;
// a turn with no plan streams a clarification instead.
func NarrateIntent(ctx context.Context, state *TurnState, narrator contractx.Narrator) (*TurnState, error) {
	emit := func(chunk string) error {
		return state.Emitter.Emit(ctx, contractx.EventTextChunk, map[string]any{
			"content": chunk,
			"partial": true,
		})
	}

	if state.Plan == nil {
		if err := emit(clarificationText); err != nil {
			return nil, err
		}
		state.Narrated = true
		return state, nil
	}
	if contractx.SilentFunctions[state.Plan.Function] {
		return state, nil
	}

	if err := narrator.Narrate(ctx, state.Text, emit); err != nil {
		return nil, err
	}
	state.Narrated = true
	return state, nil
}
