package contract

import (
	"strings"
	"time"
)

// Catalog action names. The set is closed; anything else is rejected by
// the executor with an unknown-function result.
const (
	FunctionSearchProducts     = "search_products"
	FunctionShowProductDetails = "show_product_details"
	FunctionAddToCart          = "add_to_cart"
	FunctionRemoveFromCart     = "remove_from_cart"
	FunctionUpdateCart         = "update_cart"
	FunctionGetRecommendations = "get_recommendations"
	FunctionGetCart            = "get_cart"

	// FunctionInfer asks the planner to derive the action from raw text.
	FunctionInfer = "__infer__"
)

// EntityIDPrefix marks explicit product identifier tokens in user text.
const EntityIDPrefix = "prod_"

// DefaultProductID is the placeholder used when add/recommend phrasing
// carries no explicit identifier.
const DefaultProductID = "prod_001"

// SilentFunctions are direct cart confirmations: narration before them
// adds nothing, so the orchestrator skips it.
var SilentFunctions = map[string]bool{
	FunctionUpdateCart:     true,
	FunctionRemoveFromCart: true,
	FunctionGetCart:        true,
}

// SSE event types emitted on the session stream.
const (
	EventConnection   = "connection"
	EventTextChunk    = "text_chunk"
	EventFunctionCall = "function_call"
	EventCompletion   = "completion"
	EventPing         = "ping"
	EventError        = "error"
)

// Plan is the structured action derived from one user message. It lives
// for a single turn.
type Plan struct {
	Function   string         `json:"function"`
	Parameters map[string]any `json:"parameters"`
	Inferred   bool           `json:"inferred"`
}

// Envelope is the uniform result wrapper every executed action
// normalizes to.
type Envelope struct {
	Function   string         `json:"function"`
	Parameters map[string]any `json:"parameters"`
	Result     any            `json:"result"`
}

// Suggestion is a ranked near-match for an identifier that failed
// reference validation.
type Suggestion struct {
	ProductID  string  `json:"product_id"`
	Similarity float64 `json:"similarity"`
	Reason     string  `json:"reason"`
}

// ValidationResult reports whether an identifier was legitimately
// surfaced to the user recently.
type ValidationResult struct {
	Valid           bool         `json:"valid"`
	FoundInSearch   string       `json:"found_in_search,omitempty"`
	SearchTimestamp time.Time    `json:"search_timestamp,omitzero"`
	Error           string       `json:"error,omitempty"`
	Suggestions     []Suggestion `json:"suggestions,omitempty"`
	RecentSearches  []string     `json:"recent_searches,omitempty"`
}

/* ------------------------------ Catalog ------------------------------- */

type Category string

const (
	CategoryElectronics Category = "ELECTRONICS"
	CategoryClothing    Category = "CLOTHING"
	CategoryHome        Category = "HOME"
	CategoryBooks       Category = "BOOKS"
	CategorySports      Category = "SPORTS"
	CategoryBeauty      Category = "BEAUTY"
	CategoryOther       Category = "OTHER"
)

var Categories = []Category{
	CategoryElectronics,
	CategoryClothing,
	CategoryHome,
	CategoryBooks,
	CategorySports,
	CategoryBeauty,
	CategoryOther,
}

// ParseCategory matches a category name case-insensitively.
func ParseCategory(s string) (Category, bool) {
	upper := Category(strings.ToUpper(strings.TrimSpace(s)))
	for _, c := range Categories {
		if c == upper {
			return c, true
		}
	}
	return "", false
}

type Product struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	LongDescription string    `json:"long_description,omitempty"`
	Price           float64   `json:"price"`
	Category        Category  `json:"category"`
	ImageURL        string    `json:"image_url"`
	InStock         bool      `json:"in_stock"`
	StockQuantity   int       `json:"stock_quantity"`
	Rating          float64   `json:"rating"`
	ReviewsCount    int       `json:"reviews_count"`
	CreatedAt       time.Time `json:"created_at"`
}

// SearchQuery is the filter set passed to Catalog.Search. Nil pointer
// fields mean "no bound".
type SearchQuery struct {
	Text     string
	Category *Category
	PriceMin *float64
	PriceMax *float64
	Limit    int
}

/* -------------------------------- Cart -------------------------------- */

// CartItem is one cart row, keyed by session + product. UnitPrice is a
// snapshot taken when the row is created.
type CartItem struct {
	ID         int64     `json:"id"`
	SessionID  string    `json:"-"`
	ProductID  string    `json:"product_id"`
	Quantity   int       `json:"quantity"`
	UnitPrice  float64   `json:"unit_price"`
	TotalPrice float64   `json:"total_price"`
	AddedAt    time.Time `json:"added_at"`
}

type CartLine struct {
	ID          int64     `json:"id"`
	ProductID   string    `json:"product_id"`
	ProductName string    `json:"product_name"`
	Quantity    int       `json:"quantity"`
	UnitPrice   float64   `json:"unit_price"`
	TotalPrice  float64   `json:"total_price"`
	AddedAt     time.Time `json:"added_at"`
}

type CartSummary struct {
	TotalItems     int     `json:"total_items"`
	TotalProducts  int     `json:"total_products"`
	Subtotal       float64 `json:"subtotal"`
	EstimatedTax   float64 `json:"estimated_tax"`
	EstimatedTotal float64 `json:"estimated_total"`
}

type CartView struct {
	Items   []CartLine  `json:"items"`
	Summary CartSummary `json:"cart_summary"`
}

/* --------------------------- Result payloads --------------------------- */

type SearchContext struct {
	Query    string    `json:"query"`
	Category *Category `json:"category"`
}

type SearchResult struct {
	Products      []Product     `json:"products"`
	TotalResults  int           `json:"total_results"`
	SearchContext SearchContext `json:"search_context"`
}

// DetailsValidation reports existence and context validity separately:
// a product can exist without having been surfaced by a recent search.
type DetailsValidation struct {
	Valid          bool         `json:"valid"`
	ProductExists  bool         `json:"product_exists"`
	InRecentSearch bool         `json:"in_recent_search"`
	ContextValid   bool         `json:"context_valid"`
	FoundInSearch  string       `json:"found_in_search,omitempty"`
	Suggestions    []Suggestion `json:"suggestions,omitempty"`
}

type DetailsResult struct {
	Product         *Product          `json:"product"`
	Recommendations []Product         `json:"recommendations"`
	Validation      DetailsValidation `json:"validation"`
}

type RecommendationsResult struct {
	Recommendations       []Product      `json:"recommendations"`
	RecommendationContext map[string]any `json:"recommendation_context"`
}

// ErrorResult carries a failure inside a normal envelope: execution
// failures never escape the event boundary.
type ErrorResult struct {
	Error          string       `json:"error"`
	Code           string       `json:"code,omitempty"`
	Suggestions    []Suggestion `json:"suggestions,omitempty"`
	RecentSearches []string     `json:"recent_searches,omitempty"`
}
