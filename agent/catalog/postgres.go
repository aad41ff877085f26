package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	contractx "github.com/shopstream/discovery-agent/agent/contract"
)

// PostgresConfig is read from the environment with the CATALOG prefix.
type PostgresConfig struct {
	DSN             string        `envconfig:"DSN" split_words:"true" required:"true"`
	MaxOpenConns    int           `envconfig:"MAX_OPEN_CONNS" split_words:"true" default:"8"`
	ConnMaxIdleTime time.Duration `envconfig:"CONN_MAX_IDLE_TIME" split_words:"true" default:"5m"`
}

// OpenPostgres dials the database and returns the shared bun handle used
// by both the product catalog and the cart store.
func OpenPostgres(cfg PostgresConfig) (*bun.DB, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, errors.New("catalog dsn is required")
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.DSN)))
	if cfg.MaxOpenConns > 0 {
		sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxIdleTime > 0 {
		sqldb.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
	return bun.NewDB(sqldb, pgdialect.New()), nil
}

type productRow struct {
	bun.BaseModel `bun:"table:products,alias:p"`

	ID              string    `bun:"id,pk"`
	Name            string    `bun:"name,notnull"`
	Description     string    `bun:"description"`
	LongDescription string    `bun:"long_description"`
	Price           float64   `bun:"price,notnull"`
	Category        string    `bun:"category,notnull"`
	ImageURL        string    `bun:"image_url"`
	InStock         bool      `bun:"in_stock"`
	StockQuantity   int       `bun:"stock_quantity"`
	Rating          float64   `bun:"rating"`
	ReviewsCount    int       `bun:"reviews_count"`
	CreatedAt       time.Time `bun:"created_at,nullzero,default:now()"`
}

func (r productRow) toProduct() contractx.Product {
	return contractx.Product{
		ID:              r.ID,
		Name:            r.Name,
		Description:     r.Description,
		LongDescription: r.LongDescription,
		Price:           r.Price,
		Category:        contractx.Category(r.Category),
		ImageURL:        r.ImageURL,
		InStock:         r.InStock,
		StockQuantity:   r.StockQuantity,
		Rating:          r.Rating,
		ReviewsCount:    r.ReviewsCount,
		CreatedAt:       r.CreatedAt,
	}
}

// PostgresCatalog implements the product backend on bun.
type PostgresCatalog struct {
	db *bun.DB
}

func NewPostgresCatalog(db *bun.DB) (*PostgresCatalog, error) {
	if db == nil {
		return nil, errors.New("bun db is required")
	}
	return &PostgresCatalog{db: db}, nil
}

func (c *PostgresCatalog) Search(ctx context.Context, q contractx.SearchQuery) ([]contractx.Product, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 10
	}

	var rows []productRow
	sel := c.db.NewSelect().Model(&rows)

	if text := strings.TrimSpace(q.Text); text != "" {
		pattern := "%" + text + "%"
		sel = sel.WhereGroup(" AND ", func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.Where("p.name ILIKE ?", pattern).
				WhereOr("p.description ILIKE ?", pattern)
		})
	}
	if q.Category != nil {
		sel = sel.Where("p.category = ?", string(*q.Category))
	}
	if q.PriceMin != nil {
		sel = sel.Where("p.price >= ?", *q.PriceMin)
	}
	if q.PriceMax != nil {
		sel = sel.Where("p.price <= ?", *q.PriceMax)
	}

	if err := sel.Order("p.rating DESC").Limit(limit).Scan(ctx); err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	return toProducts(rows), nil
}

func (c *PostgresCatalog) ProductByID(ctx context.Context, id string) (*contractx.Product, error) {
	var row productRow
	err := c.db.NewSelect().Model(&row).Where("p.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, contractx.ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load product %s: %w", id, err)
	}
	product := row.toProduct()
	return &product, nil
}

func (c *PostgresCatalog) SimilarByProduct(ctx context.Context, productID string, limit int) ([]contractx.Product, error) {
	base, err := c.ProductByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	var rows []productRow
	err = c.db.NewSelect().Model(&rows).
		Where("p.category = ?", string(base.Category)).
		Where("p.id != ?", productID).
		Order("p.rating DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("similar products for %s: %w", productID, err)
	}
	return toProducts(rows), nil
}

func (c *PostgresCatalog) SimilarByCategory(ctx context.Context, category contractx.Category, limit int) ([]contractx.Product, error) {
	var rows []productRow
	err := c.db.NewSelect().Model(&rows).
		Where("p.category = ?", string(category)).
		Order("p.rating DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("products in category %s: %w", category, err)
	}
	return toProducts(rows), nil
}

func (c *PostgresCatalog) NameTokens(ctx context.Context, minLength int) ([]string, error) {
	var names []string
	err := c.db.NewSelect().Model((*productRow)(nil)).
		Column("name").
		Scan(ctx, &names)
	if err != nil {
		return nil, fmt.Errorf("load product names: %w", err)
	}

	seen := make(map[string]bool)
	var tokens []string
	for _, name := range names {
		for _, tok := range nameTokenPattern.FindAllString(strings.ToLower(name), -1) {
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

func toProducts(rows []productRow) []contractx.Product {
	products := make([]contractx.Product, 0, len(rows))
	for _, row := range rows {
		products = append(products, row.toProduct())
	}
	return products
}

type cartItemRow struct {
	bun.BaseModel `bun:"table:cart_items,alias:ci"`

	ID         int64     `bun:"id,pk,autoincrement"`
	SessionID  string    `bun:"session_id,notnull"`
	ProductID  string    `bun:"product_id,notnull"`
	Quantity   int       `bun:"quantity,notnull"`
	UnitPrice  float64   `bun:"unit_price,notnull"`
	TotalPrice float64   `bun:"total_price,notnull"`
	AddedAt    time.Time `bun:"added_at,nullzero,default:now()"`
}

func (r cartItemRow) toItem() contractx.CartItem {
	return contractx.CartItem{
		ID:         r.ID,
		SessionID:  r.SessionID,
		ProductID:  r.ProductID,
		Quantity:   r.Quantity,
		UnitPrice:  r.UnitPrice,
		TotalPrice: r.TotalPrice,
		AddedAt:    r.AddedAt,
	}
}

func rowFromItem(item *contractx.CartItem) cartItemRow {
	return cartItemRow{
		ID:         item.ID,
		SessionID:  item.SessionID,
		ProductID:  item.ProductID,
		Quantity:   item.Quantity,
		UnitPrice:  item.UnitPrice,
		TotalPrice: item.TotalPrice,
		AddedAt:    item.AddedAt,
	}
}

// PostgresCartStore implements cart row CRUD on bun.
type PostgresCartStore struct {
	db *bun.DB
}

func NewPostgresCartStore(db *bun.DB) (*PostgresCartStore, error) {
	if db == nil {
		return nil, errors.New("bun db is required")
	}
	return &PostgresCartStore{db: db}, nil
}

func (s *PostgresCartStore) Items(ctx context.Context, sessionID string) ([]contractx.CartItem, error) {
	var rows []cartItemRow
	err := s.db.NewSelect().Model(&rows).
		Where("ci.session_id = ?", sessionID).
		Order("ci.added_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("load cart items: %w", err)
	}

	items := make([]contractx.CartItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toItem())
	}
	return items, nil
}

func (s *PostgresCartStore) Get(ctx context.Context, sessionID, productID string) (*contractx.CartItem, error) {
	var row cartItemRow
	err := s.db.NewSelect().Model(&row).
		Where("ci.session_id = ?", sessionID).
		Where("ci.product_id = ?", productID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, contractx.ErrCartItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load cart item: %w", err)
	}
	item := row.toItem()
	return &item, nil
}

func (s *PostgresCartStore) Put(ctx context.Context, item *contractx.CartItem) error {
	row := rowFromItem(item)
	if row.AddedAt.IsZero() {
		row.AddedAt = time.Now().UTC()
	}

	if row.ID == 0 {
		if _, err := s.db.NewInsert().Model(&row).Returning("id").Exec(ctx); err != nil {
			return fmt.Errorf("insert cart item: %w", err)
		}
		item.ID = row.ID
		item.AddedAt = row.AddedAt
		return nil
	}

	res, err := s.db.NewUpdate().Model(&row).
		WherePK().
		Where("ci.session_id = ?", row.SessionID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update cart item: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return contractx.ErrCartItemNotFound
	}
	return nil
}

func (s *PostgresCartStore) DeleteByProduct(ctx context.Context, sessionID, productID string) error {
	res, err := s.db.NewDelete().Model((*cartItemRow)(nil)).
		Where("ci.session_id = ?", sessionID).
		Where("ci.product_id = ?", productID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete cart item: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return contractx.ErrCartItemNotFound
	}
	return nil
}

func (s *PostgresCartStore) DeleteByID(ctx context.Context, sessionID string, itemID int64) error {
	res, err := s.db.NewDelete().Model((*cartItemRow)(nil)).
		Where("ci.session_id = ?", sessionID).
		Where("ci.id = ?", itemID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete cart item: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return contractx.ErrCartItemNotFound
	}
	return nil
}
