package catalog

import (
	"github.com/shopspring/decimal"

	"github.com/catshef/storefront/internal/money"
)

// Product is a sellable catalog entry.
type Product struct {
	ID          int64
	Name        string
	Slug        string
	Description string
	Price       decimal.Decimal
	OfferPrice  decimal.NullDecimal
	Stock       int
	Available   bool
}

// HasOffer reports whether the product carries a valid offer price,
// i.e. one that is set and strictly below the list price.
func (p Product) HasOffer() bool {
	return p.OfferPrice.Valid && p.OfferPrice.Decimal.LessThan(p.Price)
}

// CurrentPrice returns the offer price when a valid offer exists,
// otherwise the list price. Keeping the conditional here avoids
// scattering offer checks through the pricing code.
func (p Product) CurrentPrice() decimal.Decimal {
	if p.HasOffer() {
		return p.OfferPrice.Decimal
	}
	return p.Price
}

// DiscountPercentage returns the offer discount as a percentage of the
// list price, zero when no valid offer exists.
func (p Product) DiscountPercentage() decimal.Decimal {
	if !p.HasOffer() || p.Price.IsZero() {
		return decimal.Zero
	}
	ratio := p.OfferPrice.Decimal.Mul(decimal.NewFromInt(100)).Div(p.Price)
	return money.Round(decimal.NewFromInt(100).Sub(ratio))
}

// Option is a priced product option, e.g. an extra side or a topping.
type Option struct {
	ID        int64
	Group     string
	Name      string
	Price     decimal.Decimal
	IsDefault bool
}
