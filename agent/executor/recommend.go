package executor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	contractx "github.com/shopstream/discovery-agent/agent/contract"
)

// getRecommendations resolves the based_on value through a chain: an
// entity identifier recommends by id, a known category name recommends
// by category, anything else is free text searched for a best match.
// A value that resolves to nothing yields an empty list, not an error.
func (e *Executor) getRecommendations(ctx context.Context, params map[string]any, sessionID string) (any, error) {
	maxResults := intParam(params, "max_results", 5)
	if maxResults < 1 {
		maxResults = 5
	}
	basedOn := strings.TrimSpace(stringParam(params, "based_on"))

	recCtx := map[string]any{"based_on": basedOn}
	empty := contractx.RecommendationsResult{
		Recommendations:       []contractx.Product{},
		RecommendationContext: recCtx,
	}

	switch {
	case strings.HasPrefix(strings.ToLower(basedOn), contractx.EntityIDPrefix):
		recCtx["source"] = "product"
		recommendations, err := e.catalog.SimilarByProduct(ctx, basedOn, maxResults)
		if errors.Is(err, contractx.ErrProductNotFound) {
			return empty, nil
		}
		if err != nil {
			return nil, fmt.Errorf("recommend by product: %w", err)
		}
		return contractx.RecommendationsResult{Recommendations: recommendations, RecommendationContext: recCtx}, nil

	case basedOn != "":
		if category, ok := contractx.ParseCategory(basedOn); ok {
			recCtx["source"] = "category"
			recCtx["category"] = string(category)
			recommendations, err := e.catalog.SimilarByCategory(ctx, category, maxResults)
			if err != nil {
				return nil, fmt.Errorf("recommend by category: %w", err)
			}
			return contractx.RecommendationsResult{Recommendations: recommendations, RecommendationContext: recCtx}, nil
		}

		resolved, err := e.resolveAnchor(ctx, basedOn)
		if err != nil {
			return nil, err
		}
		if resolved == "" {
			return empty, nil
		}
		recCtx["source"] = "text"
		recCtx["resolved_product"] = resolved
		recommendations, err := e.catalog.SimilarByProduct(ctx, resolved, maxResults)
		if errors.Is(err, contractx.ErrProductNotFound) {
			return empty, nil
		}
		if err != nil {
			return nil, fmt.Errorf("recommend by resolved text: %w", err)
		}
		return contractx.RecommendationsResult{Recommendations: recommendations, RecommendationContext: recCtx}, nil

	default:
		return empty, nil
	}
}

// resolveAnchor searches free text for the best-matching product,
// retrying a plural query in singular form.
func (e *Executor) resolveAnchor(ctx context.Context, text string) (string, error) {
	lowered := strings.ToLower(text)
	products, err := e.catalog.Search(ctx, contractx.SearchQuery{Text: lowered, Limit: 1})
	if err != nil {
		return "", fmt.Errorf("resolve anchor: %w", err)
	}
	if len(products) == 0 {
		if singular := strings.TrimSuffix(lowered, "s"); singular != lowered && singular != "" {
			products, err = e.catalog.Search(ctx, contractx.SearchQuery{Text: singular, Limit: 1})
			if err != nil {
				return "", fmt.Errorf("resolve anchor singular: %w", err)
			}
		}
	}
	if len(products) == 0 {
		return "", nil
	}
	return products[0].ID, nil
}
