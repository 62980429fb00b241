package catalog

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type stubStore struct {
	products map[int64]Product
	options  map[int64][]Option
	listHits int
	slugHits int
}

func (s *stubStore) Product(_ context.Context, id int64) (Product, error) {
	p, ok := s.products[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	return p, nil
}

func (s *stubStore) Products(ctx context.Context, ids []int64) ([]Product, error) {
	out := make([]Product, 0, len(ids))
	for _, id := range ids {
		p, err := s.Product(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *stubStore) ProductBySlug(_ context.Context, slug string) (Product, error) {
	s.slugHits++
	for _, p := range s.products {
		if p.Slug == slug {
			return p, nil
		}
	}
	return Product{}, ErrNotFound
}

func (s *stubStore) ListProducts(_ context.Context, limit, offset int) ([]Product, int64, error) {
	s.listHits++
	all := make([]Product, 0, len(s.products))
	for _, p := range s.products {
		if p.Available {
			all = append(all, p)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	all = all[offset:]
	if limit < len(all) {
		all = all[:limit]
	}
	return all, total, nil
}

func (s *stubStore) Options(_ context.Context, ids []int64) ([]Option, error) {
	var out []Option
	for _, id := range ids {
		found := false
		for _, opts := range s.options {
			for _, o := range opts {
				if o.ID == id {
					out = append(out, o)
					found = true
				}
			}
		}
		if !found {
			return nil, fmt.Errorf("option %d: %w", id, ErrNotFound)
		}
	}
	return out, nil
}

func (s *stubStore) ProductOptions(_ context.Context, productID int64) ([]Option, error) {
	return s.options[productID], nil
}

func (s *stubStore) DefaultOptions(_ context.Context, productID int64) ([]Option, error) {
	var defaults []Option
	for _, o := range s.options[productID] {
		if o.IsDefault {
			defaults = append(defaults, o)
		}
	}
	return defaults, nil
}

func price(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func newStubStore() *stubStore {
	return &stubStore{
		products: map[int64]Product{
			1: {ID: 1, Name: "Shirt", Slug: "shirt", Price: price("10"), OfferPrice: decimal.NullDecimal{Decimal: price("5"), Valid: true}, Stock: 120, Available: true},
			2: {ID: 2, Name: "Mug", Slug: "mug", Price: price("7.50"), Stock: 30, Available: true},
			3: {ID: 3, Name: "Hidden", Slug: "hidden", Price: price("1"), Stock: 5, Available: false},
		},
		options: map[int64][]Option{
			1: {
				{ID: 21, Group: "size", Name: "M", Price: price("0"), IsDefault: true},
				{ID: 22, Group: "size", Name: "XL", Price: price("1.50")},
			},
		},
	}
}

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute)
}

func TestServiceList(t *testing.T) {
	store := newStubStore()
	svc, err := NewService(ServiceConfig{Store: store, Cache: newTestCache(t), DefaultLimit: 20, MaxLimit: 100})
	require.NoError(t, err)
	ctx := context.Background()

	result, err := svc.List(ctx, 1, 10)
	require.NoError(t, err)
	require.EqualValues(t, 2, result.Total)
	require.Len(t, result.Items, 2)

	shirt := result.Items[0]
	require.Equal(t, "shirt", shirt.Slug)
	require.Equal(t, 10.0, shirt.Price)
	require.Equal(t, 5.0, shirt.CurrentPrice)
	require.NotNil(t, shirt.OfferPrice)

	mug := result.Items[1]
	require.Equal(t, 7.5, mug.CurrentPrice)
	require.Nil(t, mug.OfferPrice)

	// Second call is served from cache.
	again, err := svc.List(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, result.Items, again.Items)
	require.Equal(t, 1, store.listHits)
}

func TestServiceListClampsLimit(t *testing.T) {
	store := newStubStore()
	svc, err := NewService(ServiceConfig{Store: store, DefaultLimit: 2, MaxLimit: 5})
	require.NoError(t, err)

	result, err := svc.List(context.Background(), 0, 50)
	require.NoError(t, err)
	require.Equal(t, 1, result.Page)
	require.Equal(t, 5, result.Limit)
}

func TestServiceBySlug(t *testing.T) {
	store := newStubStore()
	svc, err := NewService(ServiceConfig{Store: store, Cache: newTestCache(t)})
	require.NoError(t, err)
	ctx := context.Background()

	detail, err := svc.BySlug(ctx, "shirt")
	require.NoError(t, err)
	require.Equal(t, "Shirt", detail.Name)
	require.Equal(t, 5.0, detail.CurrentPrice)
	require.Equal(t, 50.0, detail.DiscountPercentage)
	require.Len(t, detail.Options, 2)
	require.True(t, detail.Options[0].IsDefault)

	// Cached on the second read.
	_, err = svc.BySlug(ctx, "shirt")
	require.NoError(t, err)
	require.Equal(t, 1, store.slugHits)

	_, err = svc.BySlug(ctx, "nope")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestServiceWithoutCache(t *testing.T) {
	store := newStubStore()
	svc, err := NewService(ServiceConfig{Store: store})
	require.NoError(t, err)

	_, err = svc.List(context.Background(), 1, 10)
	require.NoError(t, err)
	_, err = svc.List(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Equal(t, 2, store.listHits, "nil cache means every read hits the store")
}
