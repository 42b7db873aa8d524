package rediscache

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

type RateLimiter struct {
	c redis.Cmdable
}

func NewRateLimiter(c redis.Cmdable) *RateLimiter {
	return &RateLimiter{c: c}
}

// Allow counts one hit on key. The window starts with the first hit and is
// not extended by later ones. Returns whether the hit is within limit and the
// count so far.
func (rl *RateLimiter) Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error) {
	pipe := rl.c.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, errors.Wrap(err, "redis ratelimit")
	}

	n := incr.Val()
	return n <= limit, n, nil
}
