package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/serroba/shortlinks/internal/ratelimit"
	"github.com/serroba/shortlinks/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlidingWindowLimiter(t *testing.T) {
	ctx := context.Background()

	t.Run("denies requests over the limit", func(t *testing.T) {
		limiter := ratelimit.NewSlidingWindowLimiter(store.NewRateLimitMemoryStore(), 3, time.Minute)

		for range 3 {
			allowed, err := limiter.Allow(ctx, "client1")

			require.NoError(t, err)
			assert.True(t, allowed)
		}

		allowed, err := limiter.Allow(ctx, "client1")

		require.NoError(t, err)
		assert.False(t, allowed)
	})

	t.Run("tracks clients independently", func(t *testing.T) {
		limiter := ratelimit.NewSlidingWindowLimiter(store.NewRateLimitMemoryStore(), 1, time.Minute)

		allowed, _ := limiter.Allow(ctx, "client1")
		assert.True(t, allowed)

		allowed, _ = limiter.Allow(ctx, "client1")
		assert.False(t, allowed, "client1 should be rate limited")

		allowed, err := limiter.Allow(ctx, "client2")

		require.NoError(t, err)
		assert.True(t, allowed, "client2 should still be allowed")
	})

	t.Run("admits again once the window has passed", func(t *testing.T) {
		now := time.Unix(1000, 0)
		memStore := store.NewRateLimitMemoryStore(store.WithRateLimitClock(func() time.Time { return now }))
		limiter := ratelimit.NewSlidingWindowLimiter(memStore, 2, time.Minute)

		for range 2 {
			allowed, _ := limiter.Allow(ctx, "client1")
			assert.True(t, allowed)
		}

		allowed, _ := limiter.Allow(ctx, "client1")
		assert.False(t, allowed, "should be rate limited")

		now = now.Add(2 * time.Minute)

		allowed, err := limiter.Allow(ctx, "client1")

		require.NoError(t, err)
		assert.True(t, allowed, "should be allowed after the window")
	})
}

func TestPerMinute(t *testing.T) {
	ctx := context.Background()

	t.Run("non-positive limit disables throttling", func(t *testing.T) {
		limiter := ratelimit.PerMinute(store.NewRateLimitMemoryStore(), 0)

		for range 100 {
			allowed, err := limiter.Allow(ctx, "client")

			require.NoError(t, err)
			assert.True(t, allowed)
		}
	})

	t.Run("positive limit applies a one minute window", func(t *testing.T) {
		limiter := ratelimit.PerMinute(store.NewRateLimitMemoryStore(), 1)

		first, _ := limiter.Allow(ctx, "client")
		second, _ := limiter.Allow(ctx, "client")

		assert.True(t, first)
		assert.False(t, second)
	})
}
