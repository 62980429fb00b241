package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/catshef/storefront/internal/catalog"
)

// memStore round-trips cart blobs through JSON the way the Redis store
// does, and counts writes so tests can assert persistence behaviour.
type memStore struct {
	blobs map[string][]byte
	saves int
}

func newMemStore() *memStore {
	return &memStore{blobs: map[string][]byte{}}
}

func (m *memStore) Load(_ context.Context, sessionID string) (Items, error) {
	data, ok := m.blobs[sessionID]
	if !ok {
		return Items{}, nil
	}
	var items Items
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (m *memStore) Save(_ context.Context, sessionID string, items Items) error {
	data, err := json.Marshal(items)
	if err != nil {
		return err
	}
	m.blobs[sessionID] = data
	m.saves++
	return nil
}

// fakeCatalog serves canned products and options.
type fakeCatalog struct {
	products map[int64]catalog.Product
	options  map[int64]catalog.Option
	// attached maps product id to the option ids it carries.
	attached map[int64][]int64
}

func (f *fakeCatalog) Product(_ context.Context, id int64) (catalog.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return catalog.Product{}, fmt.Errorf("product %d: %w", id, catalog.ErrNotFound)
	}
	return p, nil
}

func (f *fakeCatalog) Products(ctx context.Context, ids []int64) ([]catalog.Product, error) {
	out := make([]catalog.Product, 0, len(ids))
	for _, id := range ids {
		p, err := f.Product(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeCatalog) ProductBySlug(_ context.Context, slug string) (catalog.Product, error) {
	for _, p := range f.products {
		if p.Slug == slug {
			return p, nil
		}
	}
	return catalog.Product{}, fmt.Errorf("product %q: %w", slug, catalog.ErrNotFound)
}

func (f *fakeCatalog) ListProducts(_ context.Context, limit, offset int) ([]catalog.Product, int64, error) {
	ids := make([]int64, 0, len(f.products))
	for id, p := range f.products {
		if p.Available {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	total := int64(len(ids))
	if offset >= len(ids) {
		return nil, total, nil
	}
	ids = ids[offset:]
	if limit < len(ids) {
		ids = ids[:limit]
	}
	out := make([]catalog.Product, 0, len(ids))
	for _, id := range ids {
		out = append(out, f.products[id])
	}
	return out, total, nil
}

func (f *fakeCatalog) Options(_ context.Context, ids []int64) ([]catalog.Option, error) {
	out := make([]catalog.Option, 0, len(ids))
	for _, id := range ids {
		o, ok := f.options[id]
		if !ok {
			return nil, fmt.Errorf("option %d: %w", id, catalog.ErrNotFound)
		}
		out = append(out, o)
	}
	return out, nil
}

func (f *fakeCatalog) ProductOptions(ctx context.Context, productID int64) ([]catalog.Option, error) {
	return f.Options(ctx, f.attached[productID])
}

func (f *fakeCatalog) DefaultOptions(ctx context.Context, productID int64) ([]catalog.Option, error) {
	all, err := f.ProductOptions(ctx, productID)
	if err != nil {
		return nil, err
	}
	defaults := make([]catalog.Option, 0, len(all))
	for _, o := range all {
		if o.IsDefault {
			defaults = append(defaults, o)
		}
	}
	return defaults, nil
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func offer(s string) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: dec(s), Valid: true}
}

// storefrontCatalog builds the fixture set used across the cart tests:
// a discounted shirt, a cheap discounted sticker with priced options,
// an unavailable product, and one that is out of stock.
func storefrontCatalog() *fakeCatalog {
	return &fakeCatalog{
		products: map[int64]catalog.Product{
			1: {ID: 1, Name: "Shirt", Slug: "shirt", Price: dec("10"), OfferPrice: offer("5"), Stock: 120, Available: true},
			2: {ID: 2, Name: "Sticker", Slug: "sticker", Price: dec("0.34"), OfferPrice: offer("0.12"), Stock: 1000, Available: true},
			3: {ID: 3, Name: "Retired", Slug: "retired", Price: dec("20"), Stock: 10, Available: false},
			4: {ID: 4, Name: "Sold Out", Slug: "sold-out", Price: dec("8"), Stock: 0, Available: true},
			5: {ID: 5, Name: "Mug", Slug: "mug", Price: dec("7.50"), Stock: 30, Available: true},
		},
		options: map[int64]catalog.Option{
			11: {ID: 11, Group: "engraving", Name: "Premium engraving", Price: dec("12.31")},
			12: {ID: 12, Group: "wrapping", Name: "Gift wrap", Price: dec("3.14")},
			21: {ID: 21, Group: "size", Name: "M", Price: dec("0"), IsDefault: true},
			22: {ID: 22, Group: "size", Name: "XL", Price: dec("1.50")},
		},
		attached: map[int64][]int64{
			1: {21, 22},
			2: {11, 12},
			5: {11, 12},
		},
	}
}
