package catalog

import (
	"context"
	"errors"
)

// ErrNotFound indicates the requested product or option does not exist.
var ErrNotFound = errors.New("catalog: not found")

// Store is the read-only catalog lookup contract consumed by the cart
// and the browse handlers.
type Store interface {
	// Product returns a single product by id.
	Product(ctx context.Context, id int64) (Product, error)
	// Products returns the products for the given ids. Every id must
	// resolve; a missing id yields ErrNotFound.
	Products(ctx context.Context, ids []int64) ([]Product, error)
	// ProductBySlug returns a single product by slug.
	ProductBySlug(ctx context.Context, slug string) (Product, error)
	// ListProducts returns a page of available products plus the total
	// count of available products.
	ListProducts(ctx context.Context, limit, offset int) ([]Product, int64, error)
	// Options returns the options for the given ids. Callers pass
	// unique ids and get one option per id; summing the result prices a
	// selection, so a repeated id must never be passed through. Every
	// id must resolve; a missing id yields ErrNotFound.
	Options(ctx context.Context, ids []int64) ([]Option, error)
	// ProductOptions returns all options attached to a product.
	ProductOptions(ctx context.Context, productID int64) ([]Option, error)
	// DefaultOptions returns the options flagged as defaults within each
	// option group the product belongs to.
	DefaultOptions(ctx context.Context, productID int64) ([]Option, error)
}
