package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter implements a fixed window rate limiter backed by Redis counters.
// Each key gets one counter per window; the counter expires with the window.
type Limiter struct {
	Client *redis.Client
	Prefix string
}

// Allow registers an event for the given key and returns whether it is within the limit.
func (l Limiter) Allow(ctx context.Context, key string, window time.Duration, max int) (allowed bool, remaining int, reset time.Time, err error) {
	if l.Client == nil || max <= 0 || window <= 0 {
		return true, max, time.Now().Add(window), nil
	}

	redisKey := l.Prefix + key
	count, err := l.Client.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, 0, time.Now().Add(window), err
	}
	if count == 1 {
		if err := l.Client.Expire(ctx, redisKey, window).Err(); err != nil {
			return false, 0, time.Now().Add(window), err
		}
	}

	ttl, err := l.Client.PTTL(ctx, redisKey).Result()
	if err != nil || ttl < 0 {
		ttl = window
	}
	reset = time.Now().Add(ttl)

	remaining = max - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return count <= int64(max), remaining, reset, nil
}
