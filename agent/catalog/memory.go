// Package catalog provides the product and cart backends: a seeded
// in-memory pair for development and tests, and a Postgres pair on bun
// for real deployments.
package catalog

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	contractx "github.com/shopstream/discovery-agent/agent/contract"
)

var nameTokenPattern = regexp.MustCompile(`[a-z0-9]+`)

// MemoryCatalog serves products from a fixed in-process slice.
type MemoryCatalog struct {
	products []contractx.Product
	byID     map[string]int
}

func NewMemoryCatalog(products []contractx.Product) *MemoryCatalog {
	if products == nil {
		products = SeedProducts()
	}
	byID := make(map[string]int, len(products))
	for i, p := range products {
		byID[p.ID] = i
	}
	return &MemoryCatalog{products: products, byID: byID}
}

func (c *MemoryCatalog) Search(_ context.Context, q contractx.SearchQuery) ([]contractx.Product, error) {
	text := strings.ToLower(strings.TrimSpace(q.Text))
	limit := q.Limit
	if limit <= 0 {
		limit = 10
	}

	matches := make([]contractx.Product, 0, limit)
	for _, p := range c.products {
		if text != "" &&
			!strings.Contains(strings.ToLower(p.Name), text) &&
			!strings.Contains(strings.ToLower(p.Description), text) {
			continue
		}
		if q.Category != nil && p.Category != *q.Category {
			continue
		}
		if q.PriceMin != nil && p.Price < *q.PriceMin {
			continue
		}
		if q.PriceMax != nil && p.Price > *q.PriceMax {
			continue
		}
		matches = append(matches, p)
		if len(matches) >= limit {
			break
		}
	}
	return matches, nil
}

func (c *MemoryCatalog) ProductByID(_ context.Context, id string) (*contractx.Product, error) {
	idx, ok := c.byID[id]
	if !ok {
		return nil, contractx.ErrProductNotFound
	}
	p := c.products[idx]
	return &p, nil
}

func (c *MemoryCatalog) SimilarByProduct(ctx context.Context, productID string, limit int) ([]contractx.Product, error) {
	base, err := c.ProductByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	similar := make([]contractx.Product, 0, limit)
	for _, p := range c.products {
		if p.ID == productID || p.Category != base.Category {
			continue
		}
		similar = append(similar, p)
		if limit > 0 && len(similar) >= limit {
			break
		}
	}
	return similar, nil
}

func (c *MemoryCatalog) SimilarByCategory(_ context.Context, category contractx.Category, limit int) ([]contractx.Product, error) {
	similar := make([]contractx.Product, 0, limit)
	for _, p := range c.products {
		if p.Category != category {
			continue
		}
		similar = append(similar, p)
		if limit > 0 && len(similar) >= limit {
			break
		}
	}
	return similar, nil
}

func (c *MemoryCatalog) NameTokens(_ context.Context, minLength int) ([]string, error) {
	seen := make(map[string]bool)
	var tokens []string
	for _, p := range c.products {
		for _, tok := range nameTokenPattern.FindAllString(strings.ToLower(p.Name), -1) {
			if len([]rune(tok)) < minLength || seen[tok] {
				continue
			}
			seen[tok] = true
			tokens = append(tokens, tok)
		}
	}
	sort.Strings(tokens)
	return tokens, nil
}

// MemoryCartStore keeps cart rows per session behind one mutex.
type MemoryCartStore struct {
	mu     sync.Mutex
	nextID int64
	items  map[string][]contractx.CartItem
}

func NewMemoryCartStore() *MemoryCartStore {
	return &MemoryCartStore{
		nextID: 1,
		items:  make(map[string][]contractx.CartItem),
	}
}

func (s *MemoryCartStore) Items(_ context.Context, sessionID string) ([]contractx.CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]contractx.CartItem(nil), s.items[sessionID]...), nil
}

func (s *MemoryCartStore) Get(_ context.Context, sessionID, productID string) (*contractx.CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range s.items[sessionID] {
		if item.ProductID == productID {
			out := item
			return &out, nil
		}
	}
	return nil, contractx.ErrCartItemNotFound
}

func (s *MemoryCartStore) Put(_ context.Context, item *contractx.CartItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := s.items[item.SessionID]
	if item.ID == 0 {
		item.ID = s.nextID
		s.nextID++
		if item.AddedAt.IsZero() {
			item.AddedAt = time.Now().UTC()
		}
		s.items[item.SessionID] = append(rows, *item)
		return nil
	}
	for i, row := range rows {
		if row.ID == item.ID {
			rows[i] = *item
			return nil
		}
	}
	return contractx.ErrCartItemNotFound
}

func (s *MemoryCartStore) DeleteByProduct(_ context.Context, sessionID, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := s.items[sessionID]
	for i, row := range rows {
		if row.ProductID == productID {
			s.items[sessionID] = append(rows[:i], rows[i+1:]...)
			return nil
		}
	}
	return contractx.ErrCartItemNotFound
}

func (s *MemoryCartStore) DeleteByID(_ context.Context, sessionID string, itemID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := s.items[sessionID]
	for i, row := range rows {
		if row.ID == itemID {
			s.items[sessionID] = append(rows[:i], rows[i+1:]...)
			return nil
		}
	}
	return contractx.ErrCartItemNotFound
}
