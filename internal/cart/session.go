package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionStore persists one session's cart mapping under an opaque
// session identifier.
type SessionStore interface {
	// Load returns the stored mapping, or an empty one when the session
	// has no cart yet.
	Load(ctx context.Context, sessionID string) (Items, error)
	// Save replaces the stored mapping and marks the session as touched.
	Save(ctx context.Context, sessionID string, items Items) error
}

// RedisSessionStore keeps cart blobs as JSON values in Redis. Every
// Save rewrites the blob and refreshes a sliding TTL, so an untouched
// cart eventually expires on its own.
type RedisSessionStore struct {
	Client *redis.Client
	TTL    time.Duration
}

const sessionKeyPrefix = "cart:session:"

func (s *RedisSessionStore) ttl() time.Duration {
	if s == nil || s.TTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return s.TTL
}

// Load returns the stored mapping for the session, or an empty one.
func (s *RedisSessionStore) Load(ctx context.Context, sessionID string) (Items, error) {
	if s == nil || s.Client == nil {
		return nil, errors.New("cart: session store not configured")
	}
	data, err := s.Client.Get(ctx, sessionKeyPrefix+sessionID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Items{}, nil
		}
		return nil, fmt.Errorf("load cart session: %w", err)
	}
	var items Items
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode cart session: %w", err)
	}
	if items == nil {
		items = Items{}
	}
	return items, nil
}

// Save replaces the stored mapping and refreshes the session TTL.
func (s *RedisSessionStore) Save(ctx context.Context, sessionID string, items Items) error {
	if s == nil || s.Client == nil {
		return errors.New("cart: session store not configured")
	}
	if items == nil {
		items = Items{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode cart session: %w", err)
	}
	if err := s.Client.Set(ctx, sessionKeyPrefix+sessionID, data, s.ttl()).Err(); err != nil {
		return fmt.Errorf("save cart session: %w", err)
	}
	return nil
}
