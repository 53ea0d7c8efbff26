package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *RedisCache {
	t.Helper()

	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisCacheFromClient(client)
}

func TestGetSetRoundTrip(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	type project struct {
		Name     string `json:"name"`
		Provider string `json:"provider"`
	}

	require.NoError(t, c.Set(ctx, "project:1", project{Name: "site", Provider: "gcs"}, time.Minute))

	var got project
	require.NoError(t, c.Get(ctx, "project:1", &got))
	assert.Equal(t, "gcs", got.Provider)

	require.NoError(t, c.Delete(ctx, "project:1"))
	assert.ErrorIs(t, c.Get(ctx, "project:1", &got), ErrCacheMiss)
}

func TestSlidingWindowRejectsOverLimit(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		res, err := c.AllowSlidingWindow(ctx, "rl:user-1", 3, time.Minute, now.Add(time.Duration(i)*time.Second))
		require.NoError(t, err)
		assert.True(t, res.Allowed)
		assert.Equal(t, 2-i, res.Remaining)
	}

	res, err := c.AllowSlidingWindow(ctx, "rl:user-1", 3, time.Minute, now.Add(10*time.Second))
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 50*time.Second, res.RetryAfter)

	// Once the first hit leaves the window a new one fits again.
	res, err = c.AllowSlidingWindow(ctx, "rl:user-1", 3, time.Minute, now.Add(61*time.Second))
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestSlidingWindowKeysAreIndependent(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	now := time.Now()

	res, err := c.AllowSlidingWindow(ctx, "rl:a", 1, time.Minute, now)
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	res, err = c.AllowSlidingWindow(ctx, "rl:b", 1, time.Minute, now)
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	res, err = c.AllowSlidingWindow(ctx, "rl:a", 1, time.Minute, now)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
}
