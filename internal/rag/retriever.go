// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package rag

import (
	"context"
	"log/slog"
	"time"

	"github.com/sigil-dev/ragd/internal/store"
	ragerr "github.com/sigil-dev/ragd/pkg/errors"
)

const (
	DefaultTopK     = 3
	DefaultCacheTTL = time.Hour
)

// Retrieval is the outcome of one retrieve call.
type Retrieval struct {
	Passages []string
	CacheHit bool
}

// RetrieverConfig holds dependencies for the Retriever.
type RetrieverConfig struct {
	Embedder Embedder
	Index    store.VectorIndex
	Cache    store.RetrievalCache
	TopK     int
	TTL      time.Duration
}

// Retriever answers a query with the nearest passages, consulting the
// cache first. Cache entries are keyed by the raw query only.
type Retriever struct {
	embedder Embedder
	index    store.VectorIndex
	cache    store.RetrievalCache
	topK     int
	ttl      time.Duration
}

func NewRetriever(cfg RetrieverConfig) *Retriever {
	r := &Retriever{
		embedder: cfg.Embedder,
		index:    cfg.Index,
		cache:    cfg.Cache,
		topK:     cfg.TopK,
		ttl:      cfg.TTL,
	}
	if r.topK <= 0 {
		r.topK = DefaultTopK
	}
	if r.ttl <= 0 {
		r.ttl = DefaultCacheTTL
	}
	return r
}

// Retrieve uses the configured k and TTL.
func (r *Retriever) Retrieve(ctx context.Context, query string) (*Retrieval, error) {
	return r.RetrieveWith(ctx, query, r.topK, r.ttl)
}

// RetrieveWith returns a cached result unchanged when one is live, without
// refreshing its TTL. Otherwise it embeds the query, takes the k nearest
// passages and caches them for ttl. A cache failure degrades to a miss.
// Non-positive k or ttl fall back to the retriever's configured values, so
// every cached entry expires.
func (r *Retriever) RetrieveWith(ctx context.Context, query string, k int, ttl time.Duration) (*Retrieval, error) {
	if k <= 0 {
		k = r.topK
	}
	if ttl <= 0 {
		ttl = r.ttl
	}

	if r.cache != nil {
		passages, ok, err := r.cache.Get(ctx, query)
		switch {
		case err != nil:
			slog.Warn("retrieval cache read failed", "code", ragerr.CodeCacheFailure, "error", err)
		case ok:
			return &Retrieval{Passages: passages, CacheHit: true}, nil
		}
	}

	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, ragerr.Wrapf(err, ragerr.CodeEmbeddingUpstreamFailure, "embedding query")
	}

	passages, err := r.index.Query(ctx, vector, k)
	if err != nil {
		return nil, ragerr.Wrapf(err, ragerr.CodeIndexQueryFailure, "querying index")
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, query, passages, ttl); err != nil {
			slog.Warn("retrieval cache write failed", "code", ragerr.CodeCacheFailure, "error", err)
		}
	}

	return &Retrieval{Passages: passages}, nil
}
