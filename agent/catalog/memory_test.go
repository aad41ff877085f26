package catalog

import (
	"context"
	"errors"
	"testing"

	contractx "github.com/shopstream/discovery-agent/agent/contract"
)

func TestMemoryCatalogSearchFilters(t *testing.T) {
	t.Parallel()

	cat := NewMemoryCatalog(nil)
	ctx := context.Background()

	max := 100.0
	electronics := contractx.CategoryElectronics
	products, err := cat.Search(ctx, contractx.SearchQuery{
		Category: &electronics,
		PriceMax: &max,
		Limit:    10,
	})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(products) == 0 {
		t.Fatal("expected electronics under $100")
	}
	for _, p := range products {
		if p.Category != electronics {
			t.Fatalf("product %s category = %s", p.ID, p.Category)
		}
		if p.Price > max {
			t.Fatalf("product %s price = %.2f above max", p.ID, p.Price)
		}
	}
}

func TestMemoryCatalogSearchText(t *testing.T) {
	t.Parallel()

	cat := NewMemoryCatalog(nil)
	products, err := cat.Search(context.Background(), contractx.SearchQuery{Text: "laptop"})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(products) != 1 || products[0].ID != "prod_002" {
		t.Fatalf("products = %+v, want only prod_002", products)
	}
}

func TestMemoryCatalogSearchLimit(t *testing.T) {
	t.Parallel()

	cat := NewMemoryCatalog(nil)
	products, err := cat.Search(context.Background(), contractx.SearchQuery{Limit: 3})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(products) != 3 {
		t.Fatalf("len(products) = %d, want 3", len(products))
	}
}

func TestMemoryCatalogProductByID(t *testing.T) {
	t.Parallel()

	cat := NewMemoryCatalog(nil)
	p, err := cat.ProductByID(context.Background(), "prod_001")
	if err != nil {
		t.Fatalf("ProductByID() error = %v", err)
	}
	if p.Name == "" {
		t.Fatal("product name empty")
	}

	if _, err := cat.ProductByID(context.Background(), "prod_999"); !errors.Is(err, contractx.ErrProductNotFound) {
		t.Fatalf("ProductByID(unknown) error = %v, want ErrProductNotFound", err)
	}
}

func TestMemoryCatalogSimilarByProduct(t *testing.T) {
	t.Parallel()

	cat := NewMemoryCatalog(nil)
	similar, err := cat.SimilarByProduct(context.Background(), "prod_001", 3)
	if err != nil {
		t.Fatalf("SimilarByProduct() error = %v", err)
	}
	if len(similar) == 0 {
		t.Fatal("expected similar electronics")
	}
	for _, p := range similar {
		if p.ID == "prod_001" {
			t.Fatal("similar results must exclude the base product")
		}
		if p.Category != contractx.CategoryElectronics {
			t.Fatalf("similar product %s category = %s", p.ID, p.Category)
		}
	}
}

func TestMemoryCatalogNameTokens(t *testing.T) {
	t.Parallel()

	cat := NewMemoryCatalog(nil)
	tokens, err := cat.NameTokens(context.Background(), 4)
	if err != nil {
		t.Fatalf("NameTokens() error = %v", err)
	}

	seen := make(map[string]bool)
	for _, tok := range tokens {
		if len(tok) < 4 {
			t.Fatalf("token %q shorter than min length", tok)
		}
		if seen[tok] {
			t.Fatalf("token %q duplicated", tok)
		}
		seen[tok] = true
	}
	if !seen["laptop"] {
		t.Fatalf("tokens = %v, want laptop present", tokens)
	}
}

func TestMemoryCartStoreCRUD(t *testing.T) {
	t.Parallel()

	store := NewMemoryCartStore()
	ctx := context.Background()

	item := &contractx.CartItem{
		SessionID:  "sess-1",
		ProductID:  "prod_001",
		Quantity:   2,
		UnitPrice:  199.99,
		TotalPrice: 399.98,
	}
	if err := store.Put(ctx, item); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if item.ID == 0 {
		t.Fatal("Put() must assign an id")
	}

	got, err := store.Get(ctx, "sess-1", "prod_001")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Quantity != 2 {
		t.Fatalf("quantity = %d, want 2", got.Quantity)
	}

	got.Quantity = 5
	got.TotalPrice = 999.95
	if err := store.Put(ctx, got); err != nil {
		t.Fatalf("Put() update error = %v", err)
	}
	updated, _ := store.Get(ctx, "sess-1", "prod_001")
	if updated.Quantity != 5 {
		t.Fatalf("quantity after update = %d, want 5", updated.Quantity)
	}

	if err := store.DeleteByID(ctx, "sess-1", item.ID); err != nil {
		t.Fatalf("DeleteByID() error = %v", err)
	}
	if _, err := store.Get(ctx, "sess-1", "prod_001"); !errors.Is(err, contractx.ErrCartItemNotFound) {
		t.Fatalf("Get() after delete error = %v, want ErrCartItemNotFound", err)
	}
}

func TestMemoryCartStoreSessionIsolation(t *testing.T) {
	t.Parallel()

	store := NewMemoryCartStore()
	ctx := context.Background()

	for _, sess := range []string{"sess-a", "sess-b"} {
		item := &contractx.CartItem{SessionID: sess, ProductID: "prod_003", Quantity: 1, UnitPrice: 89.50, TotalPrice: 89.50}
		if err := store.Put(ctx, item); err != nil {
			t.Fatalf("Put(%s) error = %v", sess, err)
		}
	}

	if err := store.DeleteByProduct(ctx, "sess-a", "prod_003"); err != nil {
		t.Fatalf("DeleteByProduct() error = %v", err)
	}
	items, err := store.Items(ctx, "sess-b")
	if err != nil {
		t.Fatalf("Items() error = %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("sess-b items = %d, want 1 untouched", len(items))
	}
}
