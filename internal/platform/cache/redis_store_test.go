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

// setupTestRedis creates a miniredis instance for testing.
func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err, "failed to start miniredis")

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})

	return client, mr
}

func TestNewRedisStore_DefaultPrefix(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "nr", NewRedisStore(nil, "").prefix)
	assert.Equal(t, "custom", NewRedisStore(nil, "custom").prefix)
}

func TestRedisStore_SetGetExpire(t *testing.T) {
	t.Parallel()

	client, mr := setupTestRedis(t)
	s := NewRedisStore(client, "nr")
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "k", []byte(`{"a":1}`), time.Minute))
	assert.True(t, mr.Exists("nr:k"))
	assert.Equal(t, time.Minute, mr.TTL("nr:k"))

	got, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"a":1}`, string(got))

	mr.FastForward(time.Minute)
	_, ok, err = s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStore_DeletePrefix(t *testing.T) {
	t.Parallel()

	client, mr := setupTestRedis(t)
	s := NewRedisStore(client, "nr")
	ctx := context.Background()

	for _, k := range []string{"provider:binance:a", "provider:binance:b", "provider:okx:a"} {
		require.NoError(t, s.Set(ctx, k, []byte("x"), 0))
	}

	require.NoError(t, s.DeletePrefix(ctx, "provider:binance:"))

	assert.False(t, mr.Exists("nr:provider:binance:a"))
	assert.False(t, mr.Exists("nr:provider:binance:b"))
	assert.True(t, mr.Exists("nr:provider:okx:a"))
}

func TestRedisStore_ConnectionError(t *testing.T) {
	t.Parallel()

	client, mr := setupTestRedis(t)
	mr.Close()

	_, _, err := NewRedisStore(client, "nr").Get(context.Background(), "k")
	assert.Error(t, err)
}
