package executor

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	contractx "github.com/shopstream/discovery-agent/agent/contract"
	"github.com/shopstream/discovery-agent/agent/fuzzy"
)

const typoCorrectionCutoff = 0.8

func (e *Executor) searchProducts(ctx context.Context, params map[string]any, sessionID string) (contractx.SearchResult, error) {
	query := strings.ToLower(strings.TrimSpace(stringParam(params, "query")))
	limit := intParam(params, "limit", 10)

	var category *contractx.Category
	if raw := stringParam(params, "category"); raw != "" {
		if c, ok := contractx.ParseCategory(raw); ok {
			category = &c
		}
	}
	priceMin := floatParam(params, "price_min")
	priceMax := floatParam(params, "price_max")

	key := searchCacheKey(query, category, priceMin, priceMax, limit)
	if cached, ok := e.searchCache.Get(key); ok {
		// Cache hits still refresh the reference window, otherwise a
		// repeated search could leave its results unreferencable.
		if err := e.trackResults(ctx, sessionID, cached); err != nil {
			return contractx.SearchResult{}, err
		}
		return cached, nil
	}

	sq := contractx.SearchQuery{
		Text:     query,
		Category: category,
		PriceMin: priceMin,
		PriceMax: priceMax,
		Limit:    limit,
	}
	products, err := e.catalog.Search(ctx, sq)
	if err != nil {
		return contractx.SearchResult{}, fmt.Errorf("search: %w", err)
	}

	usedQuery := query
	if len(products) == 0 && query != "" {
		products, usedQuery, err = e.searchFallbacks(ctx, sq)
		if err != nil {
			return contractx.SearchResult{}, err
		}
	}
	if products == nil {
		products = []contractx.Product{}
	}

	result := contractx.SearchResult{
		Products:     products,
		TotalResults: len(products),
		SearchContext: contractx.SearchContext{
			Query:    usedQuery,
			Category: category,
		},
	}

	if err := e.trackResults(ctx, sessionID, result); err != nil {
		return contractx.SearchResult{}, err
	}
	e.searchCache.Add(key, result)
	return result, nil
}

// searchFallbacks retries an empty search, first with the naive singular
// of the query, then with a typo-corrected query built from the catalog
// name corpus.
func (e *Executor) searchFallbacks(ctx context.Context, sq contractx.SearchQuery) ([]contractx.Product, string, error) {
	if singular := strings.TrimSuffix(sq.Text, "s"); singular != sq.Text && singular != "" {
		retry := sq
		retry.Text = singular
		products, err := e.catalog.Search(ctx, retry)
		if err != nil {
			return nil, "", fmt.Errorf("singular retry: %w", err)
		}
		if len(products) > 0 {
			return products, singular, nil
		}
	}

	corrected, changed, err := e.correctTypos(ctx, sq.Text)
	if err != nil {
		return nil, "", err
	}
	if changed {
		retry := sq
		retry.Text = corrected
		products, err := e.catalog.Search(ctx, retry)
		if err != nil {
			return nil, "", fmt.Errorf("typo retry: %w", err)
		}
		if len(products) > 0 {
			log.Debug().Str("from", sq.Text).Str("to", corrected).Msg("typo-corrected search")
			return products, corrected, nil
		}
	}
	return nil, sq.Text, nil
}

// correctTypos maps each query token to its closest catalog name token
// when the match clears the cutoff. Short tokens pass through untouched.
func (e *Executor) correctTypos(ctx context.Context, query string) (string, bool, error) {
	corpus, err := e.nameCorpus(ctx)
	if err != nil {
		return "", false, err
	}
	if len(corpus) == 0 {
		return query, false, nil
	}

	changed := false
	tokens := strings.Fields(query)
	for i, tok := range tokens {
		if len([]rune(tok)) < corpusMinTokenLn {
			continue
		}
		if match, ok := fuzzy.ClosestMatch(tok, corpus, typoCorrectionCutoff); ok && match != tok {
			tokens[i] = match
			changed = true
		}
	}
	return strings.Join(tokens, " "), changed, nil
}

func (e *Executor) nameCorpus(ctx context.Context) ([]string, error) {
	if corpus, ok := e.corpusCache.Get(corpusCacheKey); ok {
		return corpus, nil
	}
	corpus, err := e.catalog.NameTokens(ctx, corpusMinTokenLn)
	if err != nil {
		return nil, fmt.Errorf("load name corpus: %w", err)
	}
	e.corpusCache.Add(corpusCacheKey, corpus)
	return corpus, nil
}

func (e *Executor) trackResults(ctx context.Context, sessionID string, result contractx.SearchResult) error {
	ids := make([]string, 0, len(result.Products))
	for _, p := range result.Products {
		ids = append(ids, p.ID)
	}

	var category string
	if result.SearchContext.Category != nil {
		category = string(*result.SearchContext.Category)
	}
	return e.tracker.TrackSearchResults(ctx, sessionID, result.SearchContext.Query, category, ids)
}

func searchCacheKey(query string, category *contractx.Category, priceMin, priceMax *float64, limit int) string {
	cat := "-"
	if category != nil {
		cat = string(*category)
	}
	return fmt.Sprintf("%s|%s|%s|%s|%d",
		query, cat, formatBound(priceMin), formatBound(priceMax), limit)
}

func formatBound(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}
