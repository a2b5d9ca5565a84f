package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var _ Limiter = (*RedisLimiter)(nil)

// RedisLimiter shares counters between server instances (INCR + EXPIRE).
type RedisLimiter struct {
	client *redis.Client
	prefix string
	max    int64
	window time.Duration
}

func NewRedisLimiter(client *redis.Client, prefix string, max int, window time.Duration) *RedisLimiter {
	if prefix == "" {
		prefix = "rl:"
	}
	return &RedisLimiter{
		client: client,
		prefix: prefix,
		max:    int64(max),
		window: window,
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Result, error) {
	redisKey := windowKey(l.prefix, key, time.Now(), l.window)

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	ttl := pipe.TTL(ctx, redisKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return Result{}, fmt.Errorf("failed to count hit: %w", err)
	}

	// first hit in the window owns the expiry
	windowTTL := ttl.Val()
	if incr.Val() == 1 {
		if err := l.client.Expire(ctx, redisKey, l.window).Err(); err != nil {
			return Result{}, fmt.Errorf("failed to set window expiry: %w", err)
		}
		windowTTL = l.window
	}

	return result(incr.Val(), l.max, windowTTL, l.window), nil
}
