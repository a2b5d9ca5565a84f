package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/passkeeper-server/internal/config"
	"github.com/dtroode/passkeeper-server/internal/ratelimit"
)

func TestNewRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"serve", "migrate", "version"}, names)

	migrate, _, err := root.Find([]string{"migrate", "status"})
	require.NoError(t, err)
	assert.Equal(t, "status", migrate.Name())
	assert.NotNil(t, root.RunE)
}

func TestNewLimiter(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		limiter, closeFn, err := newLimiter(context.Background(), config.RateLimit{Enabled: false})
		require.NoError(t, err)
		assert.Nil(t, limiter)
		closeFn()
	})

	t.Run("memory", func(t *testing.T) {
		limiter, closeFn, err := newLimiter(context.Background(), config.RateLimit{
			Enabled:     true,
			Driver:      config.DriverMemory,
			MaxRequests: 3,
			Window:      time.Minute,
		})
		require.NoError(t, err)
		defer closeFn()
		assert.IsType(t, &ratelimit.MemoryLimiter{}, limiter)
	})

	t.Run("redis unreachable", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		limiter, _, err := newLimiter(ctx, config.RateLimit{
			Enabled:     true,
			Driver:      config.DriverRedis,
			RedisAddr:   "127.0.0.1:1",
			MaxRequests: 3,
			Window:      time.Minute,
		})
		require.Error(t, err)
		assert.Nil(t, limiter)
	})
}

func TestNewPayloadStore_Disabled(t *testing.T) {
	payloads, err := newPayloadStore(context.Background(), config.Storage{Enabled: false})
	require.NoError(t, err)
	assert.Nil(t, payloads)
}
