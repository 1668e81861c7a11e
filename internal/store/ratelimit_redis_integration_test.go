//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/serroba/shortlinks/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimitRedisStoreIntegration(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr: getRedisAddr(),
	})
	defer client.Close()

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	s := store.NewRateLimitRedisStore(client)

	t.Run("counts requests in the window", func(t *testing.T) {
		key := "itest-" + uuid.NewString()
		defer client.Del(ctx, "ratelimit:"+key)

		for want := int64(1); want <= 3; want++ {
			count, err := s.Record(ctx, key, time.Minute)

			require.NoError(t, err)
			assert.Equal(t, want, count)
		}
	})

	t.Run("forgets requests older than the window", func(t *testing.T) {
		key := "itest-" + uuid.NewString()
		defer client.Del(ctx, "ratelimit:"+key)

		_, err := s.Record(ctx, key, 50*time.Millisecond)
		require.NoError(t, err)

		time.Sleep(80 * time.Millisecond)

		count, err := s.Record(ctx, key, 50*time.Millisecond)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("sets a ttl on the window key", func(t *testing.T) {
		key := "itest-" + uuid.NewString()
		defer client.Del(ctx, "ratelimit:"+key)

		_, err := s.Record(ctx, key, time.Minute)
		require.NoError(t, err)

		ttl, err := client.PTTL(ctx, "ratelimit:"+key).Result()
		require.NoError(t, err)
		assert.Greater(t, ttl, time.Duration(0))
	})
}
