package contract

import "context"

// Catalog is the product backend capability.
type Catalog interface {
	Search(ctx context.Context, q SearchQuery) ([]Product, error)
	ProductByID(ctx context.Context, id string) (*Product, error)
	SimilarByProduct(ctx context.Context, productID string, limit int) ([]Product, error)
	SimilarByCategory(ctx context.Context, category Category, limit int) ([]Product, error)
	// NameTokens returns the distinct alphanumeric tokens of catalog
	// names with at least minLength runes; the executor's typo
	// correction corpus.
	NameTokens(ctx context.Context, minLength int) ([]string, error)
}

// CartStore is row CRUD keyed by session + product.
type CartStore interface {
	Items(ctx context.Context, sessionID string) ([]CartItem, error)
	Get(ctx context.Context, sessionID, productID string) (*CartItem, error)
	Put(ctx context.Context, item *CartItem) error
	DeleteByProduct(ctx context.Context, sessionID, productID string) error
	DeleteByID(ctx context.Context, sessionID string, itemID int64) error
}

// Executor runs a Plan against the catalog/cart collaborators and always
// returns the normalized envelope.
type Executor interface {
	Execute(ctx context.Context, plan Plan, sessionID string) (Envelope, error)
}

// Narrator streams assistant narration in small chunks. fn is called per
// chunk; returning an error stops narration (used for disconnects).
type Narrator interface {
	Narrate(ctx context.Context, message string, fn func(chunk string) error) error
}

// Emitter delivers one framed event to the client. Implementations
// return an error once the client is gone.
type Emitter interface {
	Emit(ctx context.Context, eventType string, data any) error
}
