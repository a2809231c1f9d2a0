package ratelimit

import (
	"context"
	"fmt"

	"github.com/go-redis/redis_rate/v10"
	"golang.org/x/time/rate"
)

type RedisRateLimiter interface {
	Allow(ctx context.Context, key string, limit redis_rate.Limit) (*redis_rate.Result, error)
}

// RedisLimiter shares one per-second budget between every replica that
// uses the same key.
type RedisLimiter struct {
	limiter RedisRateLimiter
	key     string
	rps     int
}

func NewRedisLimiter(limiter RedisRateLimiter, name string, rps int) *RedisLimiter {
	return &RedisLimiter{
		limiter: limiter,
		key:     fmt.Sprintf("limit:%s", name),
		rps:     rps,
	}
}

func (l *RedisLimiter) Allow(ctx context.Context) (bool, error) {
	res, err := l.limiter.Allow(ctx, l.key, redis_rate.PerSecond(l.rps))
	if err != nil {
		return false, fmt.Errorf("failed to rate limit %s: %w", l.key, err)
	}

	return res.Allowed > 0, nil
}

// LocalLimiter is an in-process token bucket, for single instance setups
// without Redis.
type LocalLimiter struct {
	limiter *rate.Limiter
}

func NewLocalLimiter(rps float64, burst int) *LocalLimiter {
	return &LocalLimiter{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

func (l *LocalLimiter) Allow(_ context.Context) (bool, error) {
	return l.limiter.Allow(), nil
}
