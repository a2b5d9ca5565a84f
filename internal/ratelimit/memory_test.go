package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiter_Allow(t *testing.T) {
	l := NewMemoryLimiter(2, time.Minute)
	base := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return base }
	ctx := context.Background()

	res, err := l.Allow(ctx, "1.2.3.4|/api/users")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, int64(1), res.Remaining)

	res, err = l.Allow(ctx, "1.2.3.4|/api/users")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, int64(0), res.Remaining)

	res, err = l.Allow(ctx, "1.2.3.4|/api/users")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, int64(3), res.CurrentHits)
	assert.Greater(t, res.RetryAfter, time.Duration(0))

	// other keys count separately
	res, err = l.Allow(ctx, "5.6.7.8|/api/users")
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	// next window starts fresh
	l.now = func() time.Time { return base.Add(time.Minute) }
	res, err = l.Allow(ctx, "1.2.3.4|/api/users")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, int64(1), res.CurrentHits)
}

func TestMemoryLimiter_Concurrent(t *testing.T) {
	l := NewMemoryLimiter(50, time.Hour)
	fixed := time.Date(2026, 1, 1, 10, 30, 0, 0, time.UTC)
	l.now = func() time.Time { return fixed }
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := l.Allow(ctx, "k")
			assert.NoError(t, err)
			if res.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, allowed)
}

func TestResult(t *testing.T) {
	res := result(5, 3, 0, 30*time.Second)
	assert.False(t, res.Allowed)
	assert.Equal(t, int64(0), res.Remaining)
	assert.Equal(t, 30*time.Second, res.RetryAfter)

	res = result(1, 3, 20*time.Second, 30*time.Second)
	assert.True(t, res.Allowed)
	assert.Equal(t, int64(2), res.Remaining)
	assert.Zero(t, res.RetryAfter)
}
