package turnnode

import (
	"context"

	contractx "github.com/shopstream/discovery-agent/agent/contract"
)

// ExecuteAction runs the planned function and emits the envelope as a
// function_call event. Execution failures ride inside the envelope; the
// only errors returned here are emitter failures.
func ExecuteAction(ctx context.Context, state *TurnState, executor contractx.Executor) (*TurnState, error) {
	if state.Plan == nil {
		return state, nil
	}

	env, err := executor.Execute(ctx, *state.Plan, state.SessionID)
	if err != nil {
		env = contractx.Envelope{
			Function:   state.Plan.Function,
			Parameters: state.Plan.Parameters,
			Result:     contractx.ErrorResult{Error: err.Error(), Code: "execution_failed"},
		}
	}
	state.Envelope = &env

	if err := state.Emitter.Emit(ctx, contractx.EventFunctionCall, env); err != nil {
		return nil, err
	}
	return state, nil
}
