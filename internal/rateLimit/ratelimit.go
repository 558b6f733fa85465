package rateLimit

import (
	"context"
	"time"

	redisadapter "github.com/Ayooluwa21/tikker-backend/internal/adapters/redis"
	"github.com/Ayooluwa21/tikker-backend/internal/observability"
)

// RateLimiter is a fixed-window counter in redis. It fails open: if
// redis is down, requests pass.
type RateLimiter struct {
	cache *redisadapter.Cache
}

func New(cache *redisadapter.Cache) *RateLimiter {
	return &RateLimiter{cache: cache}
}

func (rl *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) bool {
	fullKey := "rl:" + key

	pipe := rl.cache.Client().Pipeline()
	incr := pipe.Incr(ctx, fullKey)
	pipe.Expire(ctx, fullKey, window)

	if _, err := pipe.Exec(ctx); err != nil {
		return true
	}

	if incr.Val() > int64(limit) {
		observability.RateLimitExceeded.Inc()
		return false
	}
	return true
}
