package orchestrator

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"

	turnnode "github.com/shopstream/discovery-agent/agent/nodes/turn"
)

func (o *Orchestrator) compileTurnGraph(
	ctx context.Context,
) (compose.Runnable[turnnode.TurnInput, turnnode.TurnOutput], error) {
	graph := compose.NewGraph[turnnode.TurnInput, turnnode.TurnOutput]()

	if err := graph.AddLambdaNode("validate_turn",
		compose.InvokableLambda(func(ctx context.Context, in turnnode.TurnInput) (*turnnode.TurnState, error) {
			return turnnode.ValidateTurn(in, o.now)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node validate_turn: %w", err)
	}

	if err := graph.AddLambdaNode("plan_action",
		compose.InvokableLambda(func(ctx context.Context, in *turnnode.TurnState) (*turnnode.TurnState, error) {
			return turnnode.PlanAction(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node plan_action: %w", err)
	}

	if err := graph.AddLambdaNode("narrate_intent",
		compose.InvokableLambda(func(ctx context.Context, in *turnnode.TurnState) (*turnnode.TurnState, error) {
			return turnnode.NarrateIntent(ctx, in, o.narrator)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node narrate_intent: %w", err)
	}

	if err := graph.AddLambdaNode("execute_action",
		compose.InvokableLambda(func(ctx context.Context, in *turnnode.TurnState) (*turnnode.TurnState, error) {
			return turnnode.ExecuteAction(ctx, in, o.executor)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node execute_action: %w", err)
	}

	if err := graph.AddLambdaNode("complete_turn",
		compose.InvokableLambda(func(ctx context.Context, in *turnnode.TurnState) (turnnode.TurnOutput, error) {
			return turnnode.CompleteTurn(ctx, in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node complete_turn: %w", err)
	}

	edges := [][2]string{
		{compose.START, "validate_turn"},
		{"validate_turn", "plan_action"},
		{"plan_action", "narrate_intent"},
		{"narrate_intent", "execute_action"},
		{"execute_action", "complete_turn"},
		{"complete_turn", compose.END},
	}

	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("orchestrator.handle_turn"))
	if err != nil {
		return nil, fmt.Errorf("compile turn graph: %w", err)
	}
	return runner, nil
}
