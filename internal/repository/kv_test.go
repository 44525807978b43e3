package repository

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMemoryKV(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()

	_, ok, err := kv.GetItem(ctx, "projects")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, kv.SetItem(ctx, "projects", "[]"))
	require.NoError(t, kv.SetItem(ctx, "projects", `[{"id":"1"}]`))

	v, ok, err := kv.GetItem(ctx, "projects")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"id":"1"}]`, v)
	assert.NoError(t, kv.Ping(ctx))
}

func newRedisKV(t *testing.T) (*RedisKV, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisKV(rdb, "hma:", zap.NewNop()), mr
}

func TestRedisKV_RoundTripUsesPrefix(t *testing.T) {
	ctx := context.Background()
	kv, mr := newRedisKV(t)

	_, ok, err := kv.GetItem(ctx, "projectTracking")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, kv.SetItem(ctx, "projectTracking", `[]`))

	raw, err := mr.Get("hma:projectTracking")
	require.NoError(t, err)
	assert.Equal(t, `[]`, raw)

	v, ok, err := kv.GetItem(ctx, "projectTracking")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[]`, v)
	assert.NoError(t, kv.Ping(ctx))
}

func TestRedisKV_ServerDown(t *testing.T) {
	ctx := context.Background()
	kv, mr := newRedisKV(t)
	mr.Close()

	_, _, err := kv.GetItem(ctx, "projects")
	assert.Error(t, err)
	assert.Error(t, kv.SetItem(ctx, "projects", "[]"))
	assert.Error(t, kv.Ping(ctx))
}
