// Package cart implements the session-backed shopping cart with priced
// product options. A Cart instance wraps one session's nested mapping,
// is constructed per request, and writes every mutation straight back
// to the session store. There is no cross-request locking: two racing
// requests on the same session resolve as last writer wins.
package cart

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/catshef/storefront/internal/catalog"
	"github.com/catshef/storefront/internal/money"
)

// LineItem is one (product, option set) entry in the cart. The options
// price is snapshotted when the line item is first created; the final
// price is recomputed from the live unit price whenever the quantity
// changes.
type LineItem struct {
	Quantity          int             `json:"quantity"`
	TotalOptionsPrice decimal.Decimal `json:"total_options_price"`
	TotalFinalPrice   decimal.Decimal `json:"total_final_price"`
}

// Items is the persisted cart mapping: product id -> options key ->
// line item.
type Items map[string]map[string]LineItem

// Pricing holds the shipping thresholds applied by the cart.
type Pricing struct {
	FreeShippingMin decimal.Decimal
	ShippingPrice   decimal.Decimal
}

// Cart owns one session's line items and all price aggregation.
type Cart struct {
	store     SessionStore
	catalog   catalog.Store
	sessionID string
	pricing   Pricing
	items     Items
}

// New loads the cart for the given session, initialising an empty
// mapping when the session has none yet.
func New(ctx context.Context, store SessionStore, cat catalog.Store, sessionID string, pricing Pricing) (*Cart, error) {
	if store == nil {
		return nil, fmt.Errorf("cart: session store is required")
	}
	if cat == nil {
		return nil, fmt.Errorf("cart: catalog store is required")
	}
	items, err := store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = Items{}
	}
	return &Cart{
		store:     store,
		catalog:   cat,
		sessionID: sessionID,
		pricing:   pricing,
		items:     items,
	}, nil
}

// Add adds a product to the cart or updates its quantity.
//
// A negative quantity is rejected. A zero quantity without
// updateQuantity is a no-op. Unavailable and zero-stock products are
// rejected. A quantity above the remaining stock is silently clamped
// to it. When the selection is unspecified the product's default
// options are resolved; an explicit empty selection means no options.
// Driving an existing line item's quantity to zero removes it.
func (c *Cart) Add(ctx context.Context, productID int64, sel Selection, quantity int, updateQuantity bool) error {
	if quantity < 0 {
		return fmt.Errorf("quantity %d: %w", quantity, ErrNegativeQuantity)
	}
	if quantity == 0 && !updateQuantity {
		return nil
	}

	product, err := c.catalog.Product(ctx, productID)
	if err != nil {
		return err
	}
	if !product.Available {
		return fmt.Errorf("product %q (id=%d): %w", product.Name, product.ID, ErrProductUnavailable)
	}
	if product.Stock == 0 {
		return fmt.Errorf("product %q (id=%d): %w", product.Name, product.ID, ErrProductStockZero)
	}
	if quantity > product.Stock {
		// Stock clamp: top off the cart instead of failing outright.
		quantity = product.Stock
	}

	options, err := c.resolveOptions(ctx, productID, sel)
	if err != nil {
		return err
	}
	key := OptionsKey(optionIDs(options))

	pid := strconv.FormatInt(productID, 10)
	lines := c.items[pid]
	if lines == nil {
		lines = map[string]LineItem{}
		c.items[pid] = lines
	}
	line, ok := lines[key]
	if !ok {
		// Option prices are frozen at first addition.
		line = LineItem{TotalOptionsPrice: money.Round(optionsTotal(options))}
	}

	if updateQuantity {
		line.Quantity = quantity
	} else {
		line.Quantity += quantity
	}

	if line.Quantity == 0 {
		delete(lines, key)
		if len(lines) == 0 {
			delete(c.items, pid)
		}
	} else {
		unit := product.CurrentPrice().Add(line.TotalOptionsPrice)
		line.TotalFinalPrice = money.Round(unit.Mul(decimal.NewFromInt(int64(line.Quantity))))
		lines[key] = line
	}
	return c.persist(ctx)
}

// Remove deletes the line item for the given product and selection.
// Removal is idempotent: a missing line item leaves the stored mapping
// untouched. Unlike Add, an unspecified selection means "no options";
// default resolution is the HTTP layer's concern on this path.
func (c *Cart) Remove(ctx context.Context, productID int64, sel Selection) error {
	pid := strconv.FormatInt(productID, 10)
	key := OptionsKey(sel.IDs())
	lines, ok := c.items[pid]
	if !ok {
		return nil
	}
	if _, ok := lines[key]; !ok {
		return nil
	}
	delete(lines, key)
	if len(lines) == 0 {
		delete(c.items, pid)
	}
	return c.persist(ctx)
}

// Clear resets the cart to empty.
func (c *Cart) Clear(ctx context.Context) error {
	c.items = Items{}
	return c.persist(ctx)
}

// Len returns the total quantity across all line items.
func (c *Cart) Len() int {
	total := 0
	for _, lines := range c.items {
		for _, line := range lines {
			total += line.Quantity
		}
	}
	return total
}

// HasItems reports whether the cart holds any line item.
func (c *Cart) HasItems() bool {
	return len(c.items) > 0
}

// GetItem returns the stored line item for the given product and
// selection. The selection is interpreted as in Remove.
func (c *Cart) GetItem(productID int64, sel Selection) (LineItem, bool) {
	lines, ok := c.items[strconv.FormatInt(productID, 10)]
	if !ok {
		return LineItem{}, false
	}
	line, ok := lines[OptionsKey(sel.IDs())]
	return line, ok
}

// ItemView is a fully hydrated line item produced by iteration.
type ItemView struct {
	Product catalog.Product
	Options []catalog.Option
	Line    LineItem
	// TotalOriginalPrice is the undiscounted line total:
	// (list price + options price) * quantity.
	TotalOriginalPrice decimal.Decimal
	// TotalDiscountPercentage is set when the product currently has a
	// valid offer.
	TotalDiscountPercentage decimal.Decimal
	HasDiscount             bool
}

// Items returns the hydrated line items, re-querying the catalog on
// every call. Results are ordered by product id, then options key.
func (c *Cart) Items(ctx context.Context) ([]ItemView, error) {
	views := make([]ItemView, 0, len(c.items))
	for _, pid := range c.sortedProductIDs() {
		product, err := c.catalog.Product(ctx, mustParseID(pid))
		if err != nil {
			return nil, err
		}
		lines := c.items[pid]
		for _, key := range sortedKeys(lines) {
			line := lines[key]
			view := ItemView{Product: product, Line: line}

			if key != "" {
				ids, err := OptionIDsFromKey(key)
				if err != nil {
					return nil, err
				}
				if view.Options, err = c.catalog.Options(ctx, ids); err != nil {
					return nil, err
				}
			}

			qty := decimal.NewFromInt(int64(line.Quantity))
			view.TotalOriginalPrice = money.Round(product.Price.Add(line.TotalOptionsPrice).Mul(qty))
			if product.HasOffer() && !view.TotalOriginalPrice.IsZero() {
				ratio := line.TotalFinalPrice.Mul(decimal.NewFromInt(100)).Div(view.TotalOriginalPrice)
				view.TotalDiscountPercentage = decimal.NewFromInt(100).Sub(money.Round(ratio))
				view.HasDiscount = true
			}
			views = append(views, view)
		}
	}
	return views, nil
}

// FinalPrice returns the sum of all line item final prices.
func (c *Cart) FinalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, lines := range c.items {
		for _, line := range lines {
			total = total.Add(line.TotalFinalPrice)
		}
	}
	return money.Round(total)
}

// OfferDiscount returns the total amount saved through offer prices:
// (list price - offer price) * quantity over line items whose product
// currently has a valid offer.
func (c *Cart) OfferDiscount(ctx context.Context) (decimal.Decimal, error) {
	products, err := c.fetchProducts(ctx)
	if err != nil {
		return decimal.Decimal{}, err
	}
	total := decimal.Zero
	for pid, lines := range c.items {
		product := products[pid]
		if !product.HasOffer() {
			continue
		}
		saving := product.Price.Sub(product.OfferPrice.Decimal)
		for _, line := range lines {
			total = total.Add(saving.Mul(decimal.NewFromInt(int64(line.Quantity))))
		}
	}
	return money.Round(total), nil
}

// TotalDiscount returns the combined discount. Coupons are a reserved
// extension point, so today this equals OfferDiscount.
func (c *Cart) TotalDiscount(ctx context.Context) (decimal.Decimal, error) {
	return c.OfferDiscount(ctx)
}

// OriginalPrice returns the undiscounted cart total:
// (list price + options price) * quantity over all line items.
func (c *Cart) OriginalPrice(ctx context.Context) (decimal.Decimal, error) {
	products, err := c.fetchProducts(ctx)
	if err != nil {
		return decimal.Decimal{}, err
	}
	total := decimal.Zero
	for pid, lines := range c.items {
		product := products[pid]
		for _, line := range lines {
			unit := product.Price.Add(line.TotalOptionsPrice)
			total = total.Add(unit.Mul(decimal.NewFromInt(int64(line.Quantity))))
		}
	}
	return money.Round(total), nil
}

// TotalDiscountPercentage returns the overall discount as a percentage
// of the original price, zero for an empty cart.
func (c *Cart) TotalDiscountPercentage(ctx context.Context) (decimal.Decimal, error) {
	original, err := c.OriginalPrice(ctx)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if original.IsZero() {
		return decimal.Zero, nil
	}
	ratio := c.FinalPrice().Mul(decimal.NewFromInt(100)).Div(original)
	return money.Round(decimal.NewFromInt(100).Sub(ratio)), nil
}

// ShippingPrice returns the flat shipping price, or zero for an empty
// cart or one whose total clears the free-shipping threshold.
func (c *Cart) ShippingPrice() decimal.Decimal {
	if !c.HasItems() {
		return decimal.Zero
	}
	if c.FinalPrice().GreaterThanOrEqual(c.pricing.FreeShippingMin) {
		return decimal.Zero
	}
	return money.Round(c.pricing.ShippingPrice)
}

// FinalPriceWithShipping returns the cart total including shipping.
func (c *Cart) FinalPriceWithShipping() decimal.Decimal {
	return money.Round(c.FinalPrice().Add(c.ShippingPrice()))
}

func (c *Cart) resolveOptions(ctx context.Context, productID int64, sel Selection) ([]catalog.Option, error) {
	if !sel.Explicit() {
		return c.catalog.DefaultOptions(ctx, productID)
	}
	// Collapse duplicates before fetching so the priced set matches the
	// set identity the key encodes. The catalog contract takes unique
	// ids only.
	ids := uniqueIDs(sel.IDs())
	if len(ids) == 0 {
		return nil, nil
	}
	return c.catalog.Options(ctx, ids)
}

func (c *Cart) persist(ctx context.Context) error {
	return c.store.Save(ctx, c.sessionID, c.items)
}

func (c *Cart) fetchProducts(ctx context.Context) (map[string]catalog.Product, error) {
	ids := make([]int64, 0, len(c.items))
	for pid := range c.items {
		ids = append(ids, mustParseID(pid))
	}
	products, err := c.catalog.Products(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]catalog.Product, len(products))
	for _, p := range products {
		byID[strconv.FormatInt(p.ID, 10)] = p
	}
	return byID, nil
}

func (c *Cart) sortedProductIDs() []string {
	pids := make([]string, 0, len(c.items))
	for pid := range c.items {
		pids = append(pids, pid)
	}
	sort.Slice(pids, func(i, j int) bool { return mustParseID(pids[i]) < mustParseID(pids[j]) })
	return pids
}

func sortedKeys(lines map[string]LineItem) []string {
	keys := make([]string, 0, len(lines))
	for key := range lines {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func optionIDs(options []catalog.Option) []int64 {
	ids := make([]int64, len(options))
	for i, o := range options {
		ids[i] = o.ID
	}
	return ids
}

func optionsTotal(options []catalog.Option) decimal.Decimal {
	total := decimal.Zero
	for _, o := range options {
		total = total.Add(o.Price)
	}
	return total
}

func mustParseID(pid string) int64 {
	id, err := strconv.ParseInt(pid, 10, 64)
	if err != nil {
		// Keys are written by OptionsKey/Add only; a bad key means the
		// stored blob was corrupted outside this package.
		panic(fmt.Sprintf("cart: malformed product id %q: %v", pid, err))
	}
	return id
}
