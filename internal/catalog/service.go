package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/catshef/storefront/internal/obs"
)

// Service orchestrates catalog lookups, DTO assembly, and caching for
// the browse endpoints.
type Service struct {
	store        Store
	cache        *Cache
	defaultLimit int
	maxLimit     int
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Store        Store
	Cache        *Cache
	DefaultLimit int
	MaxLimit     int
}

// ProductListItem is an entry in the product listing payload.
type ProductListItem struct {
	ID           int64    `json:"id"`
	Name         string   `json:"name"`
	Slug         string   `json:"slug"`
	Price        float64  `json:"price"`
	CurrentPrice float64  `json:"current_price"`
	OfferPrice   *float64 `json:"offer_price,omitempty"`
	InStock      bool     `json:"in_stock"`
}

// OptionPayload is an option entry in the detail payload.
type OptionPayload struct {
	ID        int64   `json:"id"`
	Group     string  `json:"group"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	IsDefault bool    `json:"is_default"`
}

// ProductDetail aggregates the full product payload.
type ProductDetail struct {
	ID                 int64           `json:"id"`
	Name               string          `json:"name"`
	Slug               string          `json:"slug"`
	Description        string          `json:"description"`
	Price              float64         `json:"price"`
	CurrentPrice       float64         `json:"current_price"`
	OfferPrice         *float64        `json:"offer_price,omitempty"`
	DiscountPercentage float64         `json:"discount_percentage"`
	Stock              int             `json:"stock"`
	Available          bool            `json:"available"`
	Options            []OptionPayload `json:"options"`
}

// ProductListResult contains list data and pagination metadata.
type ProductListResult struct {
	Items []ProductListItem
	Total int64
	Page  int
	Limit int
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("catalog: store is required")
	}
	defaultLimit := cfg.DefaultLimit
	if defaultLimit < 1 {
		defaultLimit = 20
	}
	maxLimit := cfg.MaxLimit
	if maxLimit < 1 {
		maxLimit = 100
	}
	if defaultLimit > maxLimit {
		defaultLimit = maxLimit
	}
	return &Service{
		store:        cfg.Store,
		cache:        cfg.Cache,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}, nil
}

// DefaultLimit returns the page size used when the caller does not ask
// for one.
func (s *Service) DefaultLimit() int { return s.defaultLimit }

// List returns a page of available products.
func (s *Service) List(ctx context.Context, page, limit int) (ProductListResult, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = s.defaultLimit
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}
	offset := (page - 1) * limit

	result := ProductListResult{Page: page, Limit: limit}
	cacheKey := fmt.Sprintf("catalog:products:%d:%d", page, limit)
	type cached struct {
		Items []ProductListItem `json:"items"`
		Total int64             `json:"total"`
	}
	var hit cached
	if ok, err := s.cache.GetJSON(ctx, cacheKey, &hit); err == nil && ok {
		obs.ObserveCatalogCache("hit")
		result.Items = hit.Items
		result.Total = hit.Total
		return result, nil
	}
	obs.ObserveCatalogCache("miss")

	products, total, err := s.store.ListProducts(ctx, limit, offset)
	if err != nil {
		return ProductListResult{}, fmt.Errorf("list products: %w", err)
	}
	items := make([]ProductListItem, 0, len(products))
	for _, p := range products {
		items = append(items, toListItem(p))
	}
	result.Items = items
	result.Total = total
	_ = s.cache.SetJSON(ctx, cacheKey, cached{Items: items, Total: total})
	return result, nil
}

// BySlug returns the detail payload for one product, including its
// option groups.
func (s *Service) BySlug(ctx context.Context, slug string) (ProductDetail, error) {
	cacheKey := "catalog:product:" + slug
	var detail ProductDetail
	if ok, err := s.cache.GetJSON(ctx, cacheKey, &detail); err == nil && ok {
		obs.ObserveCatalogCache("hit")
		return detail, nil
	}
	obs.ObserveCatalogCache("miss")

	product, err := s.store.ProductBySlug(ctx, slug)
	if err != nil {
		return ProductDetail{}, err
	}
	options, err := s.store.ProductOptions(ctx, product.ID)
	if err != nil {
		return ProductDetail{}, fmt.Errorf("product options: %w", err)
	}
	detail = toDetail(product, options)
	_ = s.cache.SetJSON(ctx, cacheKey, detail)
	return detail, nil
}

func toListItem(p Product) ProductListItem {
	item := ProductListItem{
		ID:           p.ID,
		Name:         p.Name,
		Slug:         p.Slug,
		Price:        p.Price.InexactFloat64(),
		CurrentPrice: p.CurrentPrice().InexactFloat64(),
		InStock:      p.Stock > 0,
	}
	if p.HasOffer() {
		offer := p.OfferPrice.Decimal.InexactFloat64()
		item.OfferPrice = &offer
	}
	return item
}

func toDetail(p Product, options []Option) ProductDetail {
	detail := ProductDetail{
		ID:                 p.ID,
		Name:               p.Name,
		Slug:               p.Slug,
		Description:        p.Description,
		Price:              p.Price.InexactFloat64(),
		CurrentPrice:       p.CurrentPrice().InexactFloat64(),
		DiscountPercentage: p.DiscountPercentage().InexactFloat64(),
		Stock:              p.Stock,
		Available:          p.Available,
		Options:            make([]OptionPayload, 0, len(options)),
	}
	if p.HasOffer() {
		offer := p.OfferPrice.Decimal.InexactFloat64()
		detail.OfferPrice = &offer
	}
	for _, o := range options {
		detail.Options = append(detail.Options, OptionPayload{
			ID:        o.ID,
			Group:     o.Group,
			Name:      o.Name,
			Price:     o.Price.InexactFloat64(),
			IsDefault: o.IsDefault,
		})
	}
	return detail
}
