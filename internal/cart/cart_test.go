package cart

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shopspring/decimal"
)

var testPricing = Pricing{FreeShippingMin: dec("50"), ShippingPrice: dec("10")}

func newTestCart(t *testing.T) (*Cart, *memStore, *fakeCatalog) {
	t.Helper()
	store := newMemStore()
	cat := storefrontCatalog()
	c, err := New(context.Background(), store, cat, "sess-1", testPricing)
	require.NoError(t, err)
	return c, store, cat
}

func requireDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, got.Equal(dec(want)), "want %s, got %s", want, got)
}

func TestAddPricesDiscountedProduct(t *testing.T) {
	c, _, _ := newTestCart(t)
	ctx := context.Background()

	require.NoError(t, c.Add(ctx, 1, NoOptions(), 3, false))

	line, ok := c.GetItem(1, NoOptions())
	require.True(t, ok)
	require.Equal(t, 3, line.Quantity)
	requireDecimal(t, "0", line.TotalOptionsPrice)
	requireDecimal(t, "15", line.TotalFinalPrice)

	requireDecimal(t, "15", c.FinalPrice())

	original, err := c.OriginalPrice(ctx)
	require.NoError(t, err)
	requireDecimal(t, "30", original)

	discount, err := c.OfferDiscount(ctx)
	require.NoError(t, err)
	requireDecimal(t, "15", discount)

	pct, err := c.TotalDiscountPercentage(ctx)
	require.NoError(t, err)
	requireDecimal(t, "50", pct)
}

func TestAddWithPricedOptions(t *testing.T) {
	c, _, _ := newTestCart(t)
	ctx := context.Background()

	require.NoError(t, c.Add(ctx, 2, WithOptions(11, 12), 1, false))

	line, ok := c.GetItem(2, WithOptions(11, 12))
	require.True(t, ok)
	requireDecimal(t, "15.45", line.TotalOptionsPrice)
	requireDecimal(t, "15.57", line.TotalFinalPrice)

	original, err := c.OriginalPrice(ctx)
	require.NoError(t, err)
	requireDecimal(t, "15.79", original)

	pct, err := c.TotalDiscountPercentage(ctx)
	require.NoError(t, err)
	requireDecimal(t, "1.39", pct)
}

func TestAddCollapsesDuplicateOptionIDs(t *testing.T) {
	c, _, _ := newTestCart(t)
	ctx := context.Background()

	// An option submitted twice counts once, in the key and in the
	// price.
	require.NoError(t, c.Add(ctx, 2, WithOptions(12, 11, 12), 1, false))

	require.Equal(t, 1, c.Len())
	line, ok := c.GetItem(2, WithOptions(11, 12))
	require.True(t, ok)
	requireDecimal(t, "15.45", line.TotalOptionsPrice)
	requireDecimal(t, "15.57", line.TotalFinalPrice)

	// A later clean submission lands on the same line item.
	require.NoError(t, c.Add(ctx, 2, WithOptions(11, 12), 1, false))
	line, _ = c.GetItem(2, WithOptions(11, 12))
	require.Equal(t, 2, line.Quantity)
	requireDecimal(t, "31.14", line.TotalFinalPrice)
}

func TestAddRejections(t *testing.T) {
	c, store, _ := newTestCart(t)
	ctx := context.Background()

	t.Run("negative quantity", func(t *testing.T) {
		err := c.Add(ctx, 1, NoOptions(), -1, false)
		require.ErrorIs(t, err, ErrNegativeQuantity)
	})

	t.Run("zero quantity without update is a no-op", func(t *testing.T) {
		require.NoError(t, c.Add(ctx, 1, NoOptions(), 0, false))
		require.False(t, c.HasItems())
		require.Zero(t, store.saves)
	})

	t.Run("unavailable product", func(t *testing.T) {
		err := c.Add(ctx, 3, NoOptions(), 1, false)
		require.ErrorIs(t, err, ErrProductUnavailable)
	})

	t.Run("zero stock product", func(t *testing.T) {
		err := c.Add(ctx, 4, NoOptions(), 1, false)
		require.ErrorIs(t, err, ErrProductStockZero)
	})
}

func TestAddClampsToStock(t *testing.T) {
	c, _, _ := newTestCart(t)
	ctx := context.Background()

	require.NoError(t, c.Add(ctx, 1, NoOptions(), 500, false))

	line, ok := c.GetItem(1, NoOptions())
	require.True(t, ok)
	require.Equal(t, 120, line.Quantity)
}

func TestAddAccumulatesAndUpdates(t *testing.T) {
	c, _, _ := newTestCart(t)
	ctx := context.Background()

	require.NoError(t, c.Add(ctx, 1, NoOptions(), 2, false))
	require.NoError(t, c.Add(ctx, 1, NoOptions(), 3, false))
	line, _ := c.GetItem(1, NoOptions())
	require.Equal(t, 5, line.Quantity)

	require.NoError(t, c.Add(ctx, 1, NoOptions(), 4, true))
	line, _ = c.GetItem(1, NoOptions())
	require.Equal(t, 4, line.Quantity)
	requireDecimal(t, "20", line.TotalFinalPrice)

	// Driving the quantity to zero removes the line item entirely.
	require.NoError(t, c.Add(ctx, 1, NoOptions(), 0, true))
	_, ok := c.GetItem(1, NoOptions())
	require.False(t, ok)
	require.False(t, c.HasItems())
}

func TestAddResolvesDefaultOptions(t *testing.T) {
	c, _, _ := newTestCart(t)
	ctx := context.Background()

	// Unspecified selection resolves the size default (option 21).
	require.NoError(t, c.Add(ctx, 1, DefaultOptions(), 1, false))
	_, ok := c.GetItem(1, WithOptions(21))
	require.True(t, ok)

	// An explicitly empty selection is a separate line item.
	require.NoError(t, c.Add(ctx, 1, NoOptions(), 1, false))
	require.Equal(t, 2, c.Len())
	_, ok = c.GetItem(1, NoOptions())
	require.True(t, ok)
}

func TestOptionsPriceFrozenUnitPriceLive(t *testing.T) {
	c, _, cat := newTestCart(t)
	ctx := context.Background()

	require.NoError(t, c.Add(ctx, 5, WithOptions(11, 12), 1, false))
	line, _ := c.GetItem(5, WithOptions(11, 12))
	requireDecimal(t, "15.45", line.TotalOptionsPrice)
	requireDecimal(t, "22.95", line.TotalFinalPrice)

	// Reprice an option after the line item exists: the snapshot holds.
	engraving := cat.options[11]
	engraving.Price = dec("100")
	cat.options[11] = engraving

	require.NoError(t, c.Add(ctx, 5, WithOptions(11, 12), 1, false))
	line, _ = c.GetItem(5, WithOptions(11, 12))
	require.Equal(t, 2, line.Quantity)
	requireDecimal(t, "15.45", line.TotalOptionsPrice)
	requireDecimal(t, "45.9", line.TotalFinalPrice)

	// Reprice the product itself: quantity changes pick up the live
	// unit price.
	mug := cat.products[5]
	mug.Price = dec("8")
	cat.products[5] = mug

	require.NoError(t, c.Add(ctx, 5, WithOptions(11, 12), 2, true))
	line, _ = c.GetItem(5, WithOptions(11, 12))
	requireDecimal(t, "46.9", line.TotalFinalPrice)
}

func TestRemove(t *testing.T) {
	c, store, _ := newTestCart(t)
	ctx := context.Background()

	require.NoError(t, c.Add(ctx, 1, WithOptions(21), 2, false))
	savesAfterAdd := store.saves
	blobAfterAdd := append([]byte(nil), store.blobs["sess-1"]...)

	t.Run("missing line item leaves the store untouched", func(t *testing.T) {
		require.NoError(t, c.Remove(ctx, 1, WithOptions(22)))
		require.NoError(t, c.Remove(ctx, 99, NoOptions()))
		require.Equal(t, savesAfterAdd, store.saves)
		require.True(t, bytes.Equal(blobAfterAdd, store.blobs["sess-1"]))
	})

	t.Run("unspecified selection does not resolve defaults", func(t *testing.T) {
		// The line lives under the default option key, so removing with
		// an unspecified selection targets the empty key and misses.
		require.NoError(t, c.Remove(ctx, 1, DefaultOptions()))
		_, ok := c.GetItem(1, WithOptions(21))
		require.True(t, ok)
	})

	t.Run("existing line item is deleted and persisted", func(t *testing.T) {
		require.NoError(t, c.Remove(ctx, 1, WithOptions(21)))
		require.False(t, c.HasItems())
		require.Equal(t, savesAfterAdd+1, store.saves)
	})
}

func TestClear(t *testing.T) {
	c, store, _ := newTestCart(t)
	ctx := context.Background()

	require.NoError(t, c.Add(ctx, 1, NoOptions(), 2, false))
	require.NoError(t, c.Add(ctx, 2, WithOptions(11), 1, false))
	require.True(t, c.HasItems())

	require.NoError(t, c.Clear(ctx))
	require.False(t, c.HasItems())
	require.Zero(t, c.Len())

	reloaded, err := New(ctx, store, storefrontCatalog(), "sess-1", testPricing)
	require.NoError(t, err)
	require.False(t, reloaded.HasItems())
}

func TestItemsHydration(t *testing.T) {
	c, _, _ := newTestCart(t)
	ctx := context.Background()

	require.NoError(t, c.Add(ctx, 2, WithOptions(11, 12), 1, false))
	require.NoError(t, c.Add(ctx, 1, NoOptions(), 3, false))

	views, err := c.Items(ctx)
	require.NoError(t, err)
	require.Len(t, views, 2)

	// Ordered by product id regardless of insertion order.
	require.Equal(t, int64(1), views[0].Product.ID)
	require.Equal(t, int64(2), views[1].Product.ID)

	shirt := views[0]
	require.Empty(t, shirt.Options)
	requireDecimal(t, "30", shirt.TotalOriginalPrice)
	require.True(t, shirt.HasDiscount)
	requireDecimal(t, "50", shirt.TotalDiscountPercentage)

	sticker := views[1]
	require.Len(t, sticker.Options, 2)
	requireDecimal(t, "15.79", sticker.TotalOriginalPrice)
	require.True(t, sticker.HasDiscount)
	requireDecimal(t, "1.39", sticker.TotalDiscountPercentage)
}

func TestShippingThreshold(t *testing.T) {
	c, _, _ := newTestCart(t)
	ctx := context.Background()

	t.Run("empty cart ships free", func(t *testing.T) {
		requireDecimal(t, "0", c.ShippingPrice())
		requireDecimal(t, "0", c.FinalPriceWithShipping())
	})

	t.Run("below the threshold pays flat shipping", func(t *testing.T) {
		require.NoError(t, c.Add(ctx, 1, NoOptions(), 3, false))
		requireDecimal(t, "15", c.FinalPrice())
		requireDecimal(t, "10", c.ShippingPrice())
		requireDecimal(t, "25", c.FinalPriceWithShipping())
	})

	t.Run("at the threshold ships free", func(t *testing.T) {
		require.NoError(t, c.Add(ctx, 1, NoOptions(), 10, true))
		requireDecimal(t, "50", c.FinalPrice())
		requireDecimal(t, "0", c.ShippingPrice())
		requireDecimal(t, "50", c.FinalPriceWithShipping())
	})
}

func TestDiscountPercentageEmptyCart(t *testing.T) {
	c, _, _ := newTestCart(t)
	pct, err := c.TotalDiscountPercentage(context.Background())
	require.NoError(t, err)
	requireDecimal(t, "0", pct)
}

func TestCartSurvivesReload(t *testing.T) {
	store := newMemStore()
	cat := storefrontCatalog()
	ctx := context.Background()

	first, err := New(ctx, store, cat, "sess-2", testPricing)
	require.NoError(t, err)
	require.NoError(t, first.Add(ctx, 2, WithOptions(11, 12), 1, false))

	second, err := New(ctx, store, cat, "sess-2", testPricing)
	require.NoError(t, err)
	line, ok := second.GetItem(2, WithOptions(12, 11))
	require.True(t, ok)
	requireDecimal(t, "15.45", line.TotalOptionsPrice)
	requireDecimal(t, "15.57", line.TotalFinalPrice)
}
