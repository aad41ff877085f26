// Package intent maps free user text to a structured Plan through a
// fixed-priority rule cascade. Parsing is pure and deterministic: no
// I/O, no state, first matching rule wins.
package intent

import (
	"strings"

	contractx "github.com/shopstream/discovery-agent/agent/contract"
)

// rule pairs a match predicate with a plan builder. The cascade below is
// evaluated in slice order; priority is the data structure, not code
// order inside a conditional.
type rule struct {
	name    string
	matches func(raw, lower string) bool
	build   func(raw, lower string) *contractx.Plan
}

var cascade = []rule{
	{
		name:    "search",
		matches: func(_, lower string) bool { return strings.Contains(lower, "search") },
		build:   buildSearch,
	},
	{
		name:    "details",
		matches: func(_, lower string) bool { return strings.Contains(lower, "detail") },
		build:   buildDetails,
	},
	{
		name: "add_to_cart",
		matches: func(_, lower string) bool {
			return strings.Contains(lower, "add") && strings.Contains(lower, "cart")
		},
		build: buildAddToCart,
	},
	{
		name:    "recommendations",
		matches: func(_, lower string) bool { return strings.Contains(lower, "recommend") },
		build:   buildRecommendations,
	},
	{
		name:    "view_cart",
		matches: matchesCartView,
		build: func(_, _ string) *contractx.Plan {
			return inferred(contractx.FunctionGetCart, map[string]any{})
		},
	},
	{
		name:    "remove_from_cart",
		matches: matchesRemoval,
		build:   buildRemoveFromCart,
	},
	{
		name:    "update_cart",
		matches: func(_, lower string) bool { return strings.Contains(lower, "update cart") },
		build:   buildUpdateCart,
	},
	{
		name:    "fallback_search",
		matches: func(raw, _ string) bool { return strings.TrimSpace(raw) != "" },
		build:   buildFallbackSearch,
	},
}

// Parse runs the cascade and returns nil when no rule matches (empty
// input). Parse itself never panics on well-formed strings; callers
// still recover defensively because a planning failure must degrade to
// "no plan", never surface.
func Parse(text string) *contractx.Plan {
	lower := strings.ToLower(text)
	for _, r := range cascade {
		if r.matches(text, lower) {
			return r.build(text, lower)
		}
	}
	return nil
}

func inferred(function string, params map[string]any) *contractx.Plan {
	return &contractx.Plan{Function: function, Parameters: params, Inferred: true}
}

/* ------------------------------ builders ------------------------------ */

func buildSearch(raw, lower string) *contractx.Plan {
	_, after, _ := strings.Cut(lower, "search")
	terms := parseSearchTerms(strings.TrimSpace(after))

	query := terms.Query
	if query == "" {
		query = raw
	}
	return inferred(contractx.FunctionSearchProducts, searchParams(query, terms))
}

func buildFallbackSearch(raw, _ string) *contractx.Plan {
	terms := parseSearchTerms(raw)
	return inferred(contractx.FunctionSearchProducts, searchParams(terms.Query, terms))
}

func searchParams(query string, terms searchTerms) map[string]any {
	params := map[string]any{
		"query":     query,
		"limit":     10,
		"price_min": nil,
		"price_max": nil,
		"category":  nil,
	}
	if terms.PriceMin != nil {
		params["price_min"] = *terms.PriceMin
	}
	if terms.PriceMax != nil {
		params["price_max"] = *terms.PriceMax
	}
	if terms.Category != nil {
		params["category"] = string(*terms.Category)
	}
	return params
}

var detailMarkers = []string{
	"details of", "detail of", "details for", "detail for", "details", "detail",
}

func buildDetails(raw, lower string) *contractx.Plan {
	params := map[string]any{"include_recommendations": true}

	// An explicit identifier token always beats a derived query.
	if pid := extractProductID(raw); pid != "" {
		params["product_id"] = pid
		return inferred(contractx.FunctionShowProductDetails, params)
	}
	for _, marker := range detailMarkers {
		if idx := strings.Index(lower, marker); idx >= 0 {
			if q := strings.TrimSpace(lower[idx+len(marker):]); q != "" {
				params["query"] = q
			}
			break
		}
	}
	return inferred(contractx.FunctionShowProductDetails, params)
}

func buildAddToCart(raw, _ string) *contractx.Plan {
	pid := extractProductID(raw)
	if pid == "" {
		pid = contractx.DefaultProductID
	}
	return inferred(contractx.FunctionAddToCart, map[string]any{
		"product_id": pid,
		"quantity":   1,
	})
}

func buildRecommendations(raw, _ string) *contractx.Plan {
	base := extractProductID(raw)
	if base == "" {
		base = contractx.DefaultProductID
	}
	return inferred(contractx.FunctionGetRecommendations, map[string]any{
		"based_on":    base,
		"max_results": 5,
	})
}

var cartViewPhrases = []string{
	"show cart", "list cart", "show all items in cart", "items in cart",
	"view cart", "my cart",
}

func matchesCartView(_, lower string) bool {
	if strings.TrimSpace(lower) == "cart" {
		return true
	}
	for _, phrase := range cartViewPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

func matchesRemoval(_, lower string) bool {
	return strings.Contains(lower, "remove from cart") ||
		strings.Contains(lower, "delete from cart") ||
		strings.HasPrefix(lower, "remove ") ||
		strings.HasPrefix(lower, "delete ")
}

func buildRemoveFromCart(raw, lower string) *contractx.Plan {
	params := map[string]any{}
	if pid := extractProductID(raw); pid != "" {
		params["product_id"] = pid
	} else if fields := strings.Fields(lower); len(fields) >= 2 {
		// No identifier: fall back to the last token as a free-text query.
		params["query"] = fields[len(fields)-1]
	}
	return inferred(contractx.FunctionRemoveFromCart, params)
}

func buildUpdateCart(raw, lower string) *contractx.Plan {
	params := map[string]any{}
	if pid := extractProductID(raw); pid != "" {
		params["product_id"] = pid
	}
	if delta, ok := extractDelta(lower); ok {
		params["delta"] = delta
	}
	return inferred(contractx.FunctionUpdateCart, params)
}
