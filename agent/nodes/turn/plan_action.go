package turnnode

import (
	"github.com/rs/zerolog/log"

	"github.com/shopstream/discovery-agent/agent/intent"
)

// PlanAction derives a plan from free text unless the turn carried an
// explicit one. A panicking parser degrades to "no plan"; the turn then
// completes with a clarification instead of crashing the stream.
func PlanAction(state *TurnState) (*TurnState, error) {
	if state.Plan != nil {
		return state, nil
	}

	func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Any("panic", r).Str("text", state.Text).Msg("intent parsing panicked")
				state.Plan = nil
			}
		}()
		state.Plan = intent.Parse(state.Text)
	}()
	return state, nil
}
