package executor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	contractx "github.com/shopstream/discovery-agent/agent/contract"
)

const (
	disambiguationLimit  = 5
	detailsRecsLimit     = 3
	disambiguationSearch = "disambiguation"
)

// showProductDetails resolves a detail request. A free-text query goes
// through disambiguation first: zero or multiple matches return a search
// envelope instead of a details envelope, so the client renders results
// it can pick from.
func (e *Executor) showProductDetails(ctx context.Context, params map[string]any, sessionID string) (contractx.Envelope, error) {
	env := contractx.Envelope{
		Function:   contractx.FunctionShowProductDetails,
		Parameters: params,
	}

	productID := stringParam(params, "product_id")
	if productID == "" {
		query := strings.TrimSpace(stringParam(params, "query"))
		products, err := e.catalog.Search(ctx, contractx.SearchQuery{Text: query, Limit: disambiguationLimit})
		if err != nil {
			env.Result = contractx.ErrorResult{Error: err.Error(), Code: "execution_failed"}
			return env, nil
		}
		if len(products) != 1 {
			return disambiguationEnvelope(query, products), nil
		}
		productID = products[0].ID
	}

	validation, suggestions, recentSearches, err := e.detailsValidation(ctx, sessionID, productID)
	if err != nil {
		env.Result = contractx.ErrorResult{Error: err.Error(), Code: "execution_failed"}
		return env, nil
	}

	if !validation.ProductExists {
		env.Result = contractx.ErrorResult{
			Error:          fmt.Sprintf("product %q does not exist", productID),
			Code:           "product_not_found",
			Suggestions:    suggestions,
			RecentSearches: recentSearches,
		}
		return env, nil
	}

	product, err := e.catalog.ProductByID(ctx, productID)
	if err != nil {
		env.Result = contractx.ErrorResult{Error: err.Error(), Code: "execution_failed"}
		return env, nil
	}

	var recommendations []contractx.Product
	if boolParam(params, "include_recommendations") {
		recommendations, err = e.catalog.SimilarByProduct(ctx, productID, detailsRecsLimit)
		if err != nil {
			// Details still render without recommendations.
			recommendations = nil
		}
	}

	env.Result = contractx.DetailsResult{
		Product:         product,
		Recommendations: recommendations,
		Validation:      validation,
	}
	return env, nil
}

// detailsValidation reports existence and conversational grounding
// separately. A product the user never searched for still resolves, the
// flags just tell the narrator not to pretend it was on screen.
func (e *Executor) detailsValidation(ctx context.Context, sessionID, productID string) (contractx.DetailsValidation, []contractx.Suggestion, []string, error) {
	_, err := e.catalog.ProductByID(ctx, productID)
	exists := err == nil
	if err != nil && !errors.Is(err, contractx.ErrProductNotFound) {
		return contractx.DetailsValidation{}, nil, nil, err
	}

	ref, err := e.tracker.ValidateReference(ctx, sessionID, productID)
	if err != nil {
		return contractx.DetailsValidation{}, nil, nil, err
	}

	validation := contractx.DetailsValidation{
		Valid:          exists,
		ProductExists:  exists,
		InRecentSearch: ref.Valid,
		ContextValid:   ref.Valid,
		FoundInSearch:  ref.FoundInSearch,
	}
	if !exists {
		validation.Suggestions = ref.Suggestions
	}
	return validation, ref.Suggestions, ref.RecentSearches, nil
}

func disambiguationEnvelope(query string, products []contractx.Product) contractx.Envelope {
	if products == nil {
		products = []contractx.Product{}
	}
	return contractx.Envelope{
		Function: contractx.FunctionSearchProducts,
		Parameters: map[string]any{
			"query":  query,
			"reason": disambiguationSearch,
		},
		Result: contractx.SearchResult{
			Products:      products,
			TotalResults:  len(products),
			SearchContext: contractx.SearchContext{Query: query},
		},
	}
}
