// Package executor runs planned catalog actions. Whatever happens
// inside an action, the caller gets back the uniform envelope; failures
// travel as error results, not Go errors.
package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog/log"

	contractx "github.com/shopstream/discovery-agent/agent/contract"
	trackerx "github.com/shopstream/discovery-agent/agent/tracker"
)

const (
	defaultCacheTTL  = time.Minute
	searchCacheSize  = 256
	corpusCacheKey   = "corpus"
	corpusMinTokenLn = 4
)

// Option customizes an Executor.
type Option func(*Executor)

// WithCacheTTL overrides the 60s result cache TTL. Used by tests.
func WithCacheTTL(ttl time.Duration) Option {
	return func(e *Executor) {
		if ttl > 0 {
			e.cacheTTL = ttl
		}
	}
}

// Executor wires the catalog, the cart store and the context tracker
// behind the seven planned actions.
type Executor struct {
	catalog  contractx.Catalog
	cart     contractx.CartStore
	tracker  *trackerx.Tracker
	cacheTTL time.Duration

	searchCache *expirable.LRU[string, contractx.SearchResult]
	corpusCache *expirable.LRU[string, []string]
}

func New(catalog contractx.Catalog, cart contractx.CartStore, tracker *trackerx.Tracker, opts ...Option) (*Executor, error) {
	if catalog == nil {
		return nil, errors.New("catalog is required")
	}
	if cart == nil {
		return nil, errors.New("cart store is required")
	}
	if tracker == nil {
		return nil, errors.New("context tracker is required")
	}

	e := &Executor{
		catalog:  catalog,
		cart:     cart,
		tracker:  tracker,
		cacheTTL: defaultCacheTTL,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}

	e.searchCache = expirable.NewLRU[string, contractx.SearchResult](searchCacheSize, nil, e.cacheTTL)
	e.corpusCache = expirable.NewLRU[string, []string](1, nil, e.cacheTTL)
	return e, nil
}

// Execute dispatches one plan. The envelope always echoes the plan's
// function and parameters so the client can correlate request and
// result.
func (e *Executor) Execute(ctx context.Context, plan contractx.Plan, sessionID string) (contractx.Envelope, error) {
	env := contractx.Envelope{
		Function:   plan.Function,
		Parameters: plan.Parameters,
	}

	var (
		result any
		err    error
	)
	switch plan.Function {
	case contractx.FunctionSearchProducts:
		result, err = e.searchProducts(ctx, plan.Parameters, sessionID)
	case contractx.FunctionShowProductDetails:
		env, err = e.showProductDetails(ctx, plan.Parameters, sessionID)
		return env, err
	case contractx.FunctionAddToCart:
		result, err = e.addToCart(ctx, plan.Parameters, sessionID)
	case contractx.FunctionRemoveFromCart:
		result, err = e.removeFromCart(ctx, plan.Parameters, sessionID)
	case contractx.FunctionUpdateCart:
		result, err = e.updateCart(ctx, plan.Parameters, sessionID)
	case contractx.FunctionGetRecommendations:
		result, err = e.getRecommendations(ctx, plan.Parameters, sessionID)
	case contractx.FunctionGetCart:
		result, err = e.getCart(ctx, sessionID)
	default:
		env.Result = contractx.ErrorResult{
			Error: fmt.Sprintf("unknown function %q", plan.Function),
			Code:  "unknown_function",
		}
		return env, nil
	}

	if err != nil {
		log.Error().Err(err).
			Str("function", plan.Function).
			Str("session_id", sessionID).
			Msg("action failed")
		env.Result = contractx.ErrorResult{Error: err.Error(), Code: "execution_failed"}
		return env, nil
	}

	env.Result = result
	return env, nil
}

/* ---------------------------- param helpers ---------------------------- */

func stringParam(params map[string]any, key string) string {
	v, _ := params[key].(string)
	return v
}

func intParam(params map[string]any, key string, fallback int) int {
	switch v := params[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return fallback
}

func floatParam(params map[string]any, key string) *float64 {
	switch v := params[key].(type) {
	case float64:
		return &v
	case int:
		f := float64(v)
		return &f
	}
	return nil
}

func boolParam(params map[string]any, key string) bool {
	v, _ := params[key].(bool)
	return v
}
