package cart

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/catshef/storefront/internal/catalog"
	"github.com/catshef/storefront/internal/common"
	"github.com/catshef/storefront/internal/obs"
)

// Handler wires the cart to HTTP. The mutation endpoints are POST-only
// and answer other methods with 404 rather than 405, so the surface
// does not advertise itself; the router enforces that.
type Handler struct {
	Sessions   SessionStore
	Catalog    catalog.Store
	Pricing    Pricing
	CookieName string
	CookieTTL  time.Duration
	Logger     zerolog.Logger
}

// Add adds or updates a cart line item.
//
// Status map: 201 created/updated, 304 zero-quantity no-op, 400
// business-rule failure, 404 malformed input or unknown identifiers.
func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	req, err := parseAddRequest(r.Body)
	if err != nil {
		h.writeError(w, "add", err)
		return
	}
	ctx := r.Context()
	// Resolve the product before the no-op branch so an unknown id is
	// 404 even when the quantity is zero.
	if _, err := h.Catalog.Product(ctx, req.ProductID); err != nil {
		h.writeError(w, "add", err)
		return
	}
	sel, err := h.resolveSelection(ctx, req.ProductID, req.Selection)
	if err != nil {
		h.writeError(w, "add", err)
		return
	}
	if req.Quantity == 0 && !req.UpdateQuantity {
		obs.ObserveCartOp("add", "noop")
		w.WriteHeader(http.StatusNotModified)
		return
	}

	c, err := h.cart(w, r)
	if err != nil {
		h.writeError(w, "add", err)
		return
	}
	if err := c.Add(ctx, req.ProductID, sel, req.Quantity, req.UpdateQuantity); err != nil {
		h.writeError(w, "add", err)
		return
	}
	obs.ObserveCartOp("add", "ok")
	line, ok := c.GetItem(req.ProductID, sel)
	common.JSON(w, http.StatusCreated, itemPayload(line, ok))
}

// Remove deletes a cart line item. Removal is idempotent and answers
// 204 either way.
func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	req, err := parseRemoveRequest(r.Body)
	if err != nil {
		h.writeError(w, "remove", err)
		return
	}
	ctx := r.Context()
	// Unknown product or option ids are a 404 concern even though the
	// removal itself tolerates absent line items.
	if _, err := h.Catalog.Product(ctx, req.ProductID); err != nil {
		h.writeError(w, "remove", err)
		return
	}
	sel, err := h.resolveSelection(ctx, req.ProductID, req.Selection)
	if err != nil {
		h.writeError(w, "remove", err)
		return
	}

	c, err := h.cart(w, r)
	if err != nil {
		h.writeError(w, "remove", err)
		return
	}
	if err := c.Remove(ctx, req.ProductID, sel); err != nil {
		h.writeError(w, "remove", err)
		return
	}
	obs.ObserveCartOp("remove", "ok")
	w.WriteHeader(http.StatusNoContent)
}

// Clear resets the cart: 204 when it had items, 304 when already empty.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	c, err := h.cart(w, r)
	if err != nil {
		h.writeError(w, "clear", err)
		return
	}
	status := http.StatusNoContent
	if !c.HasItems() {
		status = http.StatusNotModified
	}
	if err := c.Clear(r.Context()); err != nil {
		h.writeError(w, "clear", err)
		return
	}
	obs.ObserveCartOp("clear", "ok")
	w.WriteHeader(status)
}

// Summary returns the hydrated cart contents and aggregate pricing.
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	c, err := h.cart(w, r)
	if err != nil {
		h.writeError(w, "summary", err)
		return
	}
	ctx := r.Context()
	views, err := c.Items(ctx)
	if err != nil {
		h.writeError(w, "summary", err)
		return
	}
	offerDiscount, err := c.OfferDiscount(ctx)
	if err != nil {
		h.writeError(w, "summary", err)
		return
	}
	totalDiscount, err := c.TotalDiscount(ctx)
	if err != nil {
		h.writeError(w, "summary", err)
		return
	}
	originalPrice, err := c.OriginalPrice(ctx)
	if err != nil {
		h.writeError(w, "summary", err)
		return
	}
	discountPct, err := c.TotalDiscountPercentage(ctx)
	if err != nil {
		h.writeError(w, "summary", err)
		return
	}

	items := make([]map[string]any, 0, len(views))
	for _, view := range views {
		item := map[string]any{
			"product_pk":           view.Product.ID,
			"name":                 view.Product.Name,
			"slug":                 view.Product.Slug,
			"quantity":             view.Line.Quantity,
			"total_options_price":  view.Line.TotalOptionsPrice.InexactFloat64(),
			"total_final_price":    view.Line.TotalFinalPrice.InexactFloat64(),
			"total_original_price": view.TotalOriginalPrice.InexactFloat64(),
		}
		if view.HasDiscount {
			item["total_discount_percentage"] = view.TotalDiscountPercentage.InexactFloat64()
		}
		if len(view.Options) > 0 {
			options := make([]map[string]any, 0, len(view.Options))
			for _, o := range view.Options {
				options = append(options, map[string]any{
					"pk":    o.ID,
					"name":  o.Name,
					"price": o.Price.InexactFloat64(),
				})
			}
			item["options"] = options
		}
		items = append(items, item)
	}

	common.JSON(w, http.StatusOK, map[string]any{
		"items":                     items,
		"length":                    c.Len(),
		"final_price":               c.FinalPrice().InexactFloat64(),
		"original_price":            originalPrice.InexactFloat64(),
		"offer_discount":            offerDiscount.InexactFloat64(),
		"total_discount":            totalDiscount.InexactFloat64(),
		"total_discount_percentage": discountPct.InexactFloat64(),
		"shipping_price":            c.ShippingPrice().InexactFloat64(),
		"final_price_with_shipping": c.FinalPriceWithShipping().InexactFloat64(),
	})
}

// resolveSelection turns an unspecified selection into the product's
// default options, so the response lookup and the stored key agree.
func (h *Handler) resolveSelection(ctx context.Context, productID int64, sel Selection) (Selection, error) {
	if sel.Explicit() {
		ids := uniqueIDs(sel.IDs())
		if len(ids) > 0 {
			// Validate explicit ids up front; unknown options are 404.
			if _, err := h.Catalog.Options(ctx, ids); err != nil {
				return Selection{}, err
			}
		}
		return WithOptions(ids...), nil
	}
	defaults, err := h.Catalog.DefaultOptions(ctx, productID)
	if err != nil {
		return Selection{}, err
	}
	if len(defaults) == 0 {
		return NoOptions(), nil
	}
	return WithOptions(optionIDs(defaults)...), nil
}

func (h *Handler) cart(w http.ResponseWriter, r *http.Request) (*Cart, error) {
	return New(r.Context(), h.Sessions, h.Catalog, h.sessionID(w, r), h.Pricing)
}

// sessionID reads the cart session cookie, minting one on first contact.
func (h *Handler) sessionID(w http.ResponseWriter, r *http.Request) string {
	name := h.CookieName
	if name == "" {
		name = "cart_session"
	}
	if cookie, err := r.Cookie(name); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	sid := uuid.NewString()
	obs.ObserveCartSessionStarted()
	maxAge := int((7 * 24 * time.Hour).Seconds())
	if h.CookieTTL > 0 {
		maxAge = int(h.CookieTTL.Seconds())
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    sid,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sid
}

func (h *Handler) writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, errBadPayload), errors.Is(err, catalog.ErrNotFound):
		obs.ObserveCartOp(op, "not_found")
		common.JSON(w, http.StatusNotFound, map[string]any{"message": err.Error()})
	case errors.Is(err, ErrNegativeQuantity),
		errors.Is(err, ErrProductUnavailable),
		errors.Is(err, ErrProductStockZero):
		obs.ObserveCartOp(op, "rejected")
		common.JSON(w, http.StatusBadRequest, map[string]any{"message": err.Error()})
	default:
		obs.ObserveCartOp(op, "error")
		h.Logger.Error().Err(err).Str("op", op).Msg("cart operation failed")
		common.JSON(w, http.StatusBadRequest, map[string]any{"message": "Error: " + err.Error()})
	}
}

// itemPayload builds the mutation response: the stored line item's
// numbers, or zeros when it no longer exists.
func itemPayload(line LineItem, ok bool) map[string]any {
	if !ok {
		return map[string]any{
			"quantity":            0,
			"total_options_price": 0,
			"total_final_price":   0,
		}
	}
	return map[string]any{
		"quantity":            line.Quantity,
		"total_options_price": line.TotalOptionsPrice.InexactFloat64(),
		"total_final_price":   line.TotalFinalPrice.InexactFloat64(),
	}
}
