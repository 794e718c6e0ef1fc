// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

// Package cache provides RetrievalCache backends keyed by the raw query
// string. Queries that differ only in whitespace are distinct keys.
package cache

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/sigil-dev/ragd/internal/config"
	"github.com/sigil-dev/ragd/internal/store"
	ragerr "github.com/sigil-dev/ragd/pkg/errors"
)

// New builds the cache backend selected by cfg.
func New(ctx context.Context, cfg config.CacheConfig) (store.RetrievalCache, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemory(WithMaxEntries(cfg.MaxEntries)), nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, ragerr.Wrapf(err, ragerr.CodeCacheFailure, "connecting to redis at %s", cfg.RedisAddr)
		}
		return NewRedis(client), nil
	default:
		return nil, ragerr.New(ragerr.CodeStoreBackendUnsupported, "unsupported cache backend: "+cfg.Backend,
			ragerr.FieldBackend(cfg.Backend))
	}
}
