// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sigil-dev/ragd/internal/store"
)

// KeyPrefix namespaces cache keys in a shared redis database.
const KeyPrefix = "ragd:retrieval:"

// Compile-time interface check.
var _ store.RetrievalCache = (*Redis)(nil)

// Redis stores passages as a JSON array with a native EX expiry, so expired
// entries are never returned.
type Redis struct {
	client *redis.Client
}

// NewRedis wraps client. Close closes the client.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (r *Redis) Get(ctx context.Context, key string) ([]string, bool, error) {
	raw, err := r.client.Get(ctx, KeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}

	var passages []string
	if err := json.Unmarshal(raw, &passages); err != nil {
		return nil, false, fmt.Errorf("decoding cached passages: %w", err)
	}
	return passages, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, passages []string, ttl time.Duration) error {
	if passages == nil {
		passages = []string{}
	}
	raw, err := json.Marshal(passages)
	if err != nil {
		return fmt.Errorf("encoding passages: %w", err)
	}
	if err := r.client.Set(ctx, KeyPrefix+key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
