package ratelimit

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

var _ Limiter = (*MemoryLimiter)(nil)

// MemoryLimiter keeps counters in process memory. Each server instance
// counts on its own.
type MemoryLimiter struct {
	cache  *gocache.Cache
	max    int64
	window time.Duration
	now    func() time.Time
}

func NewMemoryLimiter(max int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		cache:  gocache.New(window, window),
		max:    int64(max),
		window: window,
		now:    time.Now,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	now := l.now()
	k := windowKey("", key, now, l.window)

	hits, err := l.hit(k)
	if err != nil {
		return Result{}, err
	}

	var ttl time.Duration
	if _, expiresAt, ok := l.cache.GetWithExpiration(k); ok && !expiresAt.IsZero() {
		ttl = expiresAt.Sub(now)
	}

	return result(hits, l.max, ttl, l.window), nil
}

func (l *MemoryLimiter) hit(k string) (int64, error) {
	for {
		if err := l.cache.Add(k, int64(1), l.window); err == nil {
			return 1, nil
		}
		hits, err := l.cache.IncrementInt64(k, 1)
		if err == nil {
			return hits, nil
		}
		// the counter expired between Add and IncrementInt64; start over
		if _, found := l.cache.Get(k); found {
			return 0, err
		}
	}
}
