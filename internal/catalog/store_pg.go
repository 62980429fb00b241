package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/catshef/storefront/internal/money"
)

// PGStore implements Store on top of a Postgres pool. Numeric columns
// travel as text so prices never pass through binary floats.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore constructs a Postgres-backed catalog store.
func NewPGStore(pool *pgxpool.Pool) (*PGStore, error) {
	if pool == nil {
		return nil, errors.New("catalog: pool is required")
	}
	return &PGStore{pool: pool}, nil
}

const productColumns = `id, name, slug, description, stock, price::text, offer_price::text, available`

// Product returns a single product by id.
func (s *PGStore) Product(ctx context.Context, id int64) (Product, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	return scanProduct(row)
}

// ProductBySlug returns a single product by slug.
func (s *PGStore) ProductBySlug(ctx context.Context, slug string) (Product, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE slug = $1`, slug)
	return scanProduct(row)
}

// Products returns the products for the given ids.
func (s *PGStore) Products(ctx context.Context, ids []int64) ([]Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = ANY($1) ORDER BY id`, ids)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products, err := collectProducts(rows)
	if err != nil {
		return nil, err
	}
	if len(products) != len(uniqueIDs(ids)) {
		return nil, fmt.Errorf("products %v: %w", ids, ErrNotFound)
	}
	return products, nil
}

// ListProducts returns a page of available products plus the total count.
func (s *PGStore) ListProducts(ctx context.Context, limit, offset int) ([]Product, int64, error) {
	var total int64
	if err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM products WHERE available`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+productColumns+` FROM products WHERE available ORDER BY name, id LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products, err := collectProducts(rows)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

const optionColumns = `id, group_name, name, price::text, is_default`

// Options returns the options for the given ids.
func (s *PGStore) Options(ctx context.Context, ids []int64) ([]Option, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+optionColumns+` FROM product_options WHERE id = ANY($1) ORDER BY id`, ids)
	if err != nil {
		return nil, fmt.Errorf("query options: %w", err)
	}
	defer rows.Close()

	options, err := collectOptions(rows)
	if err != nil {
		return nil, err
	}
	if len(options) != len(uniqueIDs(ids)) {
		return nil, fmt.Errorf("options %v: %w", ids, ErrNotFound)
	}
	return options, nil
}

// ProductOptions returns all options attached to a product.
func (s *PGStore) ProductOptions(ctx context.Context, productID int64) ([]Option, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT o.id, o.group_name, o.name, o.price::text, o.is_default
		 FROM product_options o
		 JOIN product_option_membership m ON m.option_id = o.id
		 WHERE m.product_id = $1
		 ORDER BY o.group_name, o.id`, productID)
	if err != nil {
		return nil, fmt.Errorf("query product options: %w", err)
	}
	defer rows.Close()
	return collectOptions(rows)
}

// DefaultOptions returns the options flagged as defaults within each
// option group the product belongs to.
func (s *PGStore) DefaultOptions(ctx context.Context, productID int64) ([]Option, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT o.id, o.group_name, o.name, o.price::text, o.is_default
		 FROM product_options o
		 JOIN product_option_membership m ON m.option_id = o.id
		 WHERE m.product_id = $1 AND o.is_default
		 ORDER BY o.group_name, o.id`, productID)
	if err != nil {
		return nil, fmt.Errorf("query default options: %w", err)
	}
	defer rows.Close()
	return collectOptions(rows)
}

func scanProduct(row pgx.Row) (Product, error) {
	var (
		p          Product
		price      string
		offerPrice *string
	)
	err := row.Scan(&p.ID, &p.Name, &p.Slug, &p.Description, &p.Stock, &price, &offerPrice, &p.Available)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, fmt.Errorf("scan product: %w", err)
	}
	if p.Price, err = money.Parse(price); err != nil {
		return Product{}, err
	}
	if offerPrice != nil {
		offer, err := money.Parse(*offerPrice)
		if err != nil {
			return Product{}, err
		}
		p.OfferPrice = decimal.NewNullDecimal(offer)
	}
	return p, nil
}

func collectProducts(rows pgx.Rows) ([]Product, error) {
	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func collectOptions(rows pgx.Rows) ([]Option, error) {
	var options []Option
	for rows.Next() {
		var (
			o     Option
			price string
		)
		if err := rows.Scan(&o.ID, &o.Group, &o.Name, &price, &o.IsDefault); err != nil {
			return nil, fmt.Errorf("scan option: %w", err)
		}
		var err error
		if o.Price, err = money.Parse(price); err != nil {
			return nil, err
		}
		options = append(options, o)
	}
	return options, rows.Err()
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
