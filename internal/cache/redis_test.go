// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sigil-dev/ragd/internal/cache"
	"github.com/sigil-dev/ragd/internal/config"
	ragerr "github.com/sigil-dev/ragd/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*cache.Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := cache.NewRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestRedis_SetGetExpire(t *testing.T) {
	ctx := context.Background()
	c, mr := newRedis(t)

	require.NoError(t, c.Set(ctx, "What color is the sky?", []string{"The sky is blue."}, time.Hour))

	got, ok, err := c.Get(ctx, "What color is the sky?")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"The sky is blue."}, got)

	assert.Equal(t, time.Hour, mr.TTL(cache.KeyPrefix+"What color is the sky?"))

	mr.FastForward(time.Hour)
	_, ok, err = c.Get(ctx, "What color is the sky?")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedis_Miss(t *testing.T) {
	c, _ := newRedis(t)

	got, ok, err := c.Get(context.Background(), "unknown")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestRedis_EmptyPassages(t *testing.T) {
	ctx := context.Background()
	c, _ := newRedis(t)

	require.NoError(t, c.Set(ctx, "q", nil, time.Minute))
	got, ok, err := c.Get(ctx, "q")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, got)
}

func TestRedis_CorruptValue(t *testing.T) {
	c, mr := newRedis(t)
	require.NoError(t, mr.Set(cache.KeyPrefix+"q", "not json"))

	_, _, err := c.Get(context.Background(), "q")
	assert.Error(t, err)
}

func TestRedis_ServerDown(t *testing.T) {
	c, mr := newRedis(t)
	mr.Close()

	_, _, err := c.Get(context.Background(), "q")
	assert.Error(t, err)
	assert.Error(t, c.Set(context.Background(), "q", []string{"x"}, time.Minute))
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	c, err := cache.New(ctx, config.CacheConfig{Backend: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &cache.Memory{}, c)
	require.NoError(t, c.Close())

	mr := miniredis.RunT(t)
	c, err = cache.New(ctx, config.CacheConfig{Backend: "redis", RedisAddr: mr.Addr()})
	require.NoError(t, err)
	assert.IsType(t, &cache.Redis{}, c)
	_ = c.Close()

	_, err = cache.New(ctx, config.CacheConfig{Backend: "memcached"})
	assert.True(t, ragerr.HasCode(err, ragerr.CodeStoreBackendUnsupported))
}
