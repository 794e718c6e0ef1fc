// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package store

import (
	"context"
	"time"
)

// VectorIndex holds one entry per ingested document and answers exact
// nearest-neighbour queries over them.
type VectorIndex interface {
	// Add appends an entry and returns its index id. Ids are assigned by
	// the backend and never reused.
	Add(ctx context.Context, text string, vector []float32) (int64, error)
	// Query returns the texts of the k nearest entries, nearest first.
	// Equidistant entries are ordered by insertion. Fewer than k texts are
	// returned when the index holds fewer entries.
	Query(ctx context.Context, vector []float32, k int) ([]string, error)
	Size(ctx context.Context) (int, error)
	Close() error
}

// DocumentStore is the durable record of every ingested document.
type DocumentStore interface {
	Insert(ctx context.Context, doc *Document) (string, error)
	List(ctx context.Context, opts ListOpts) ([]*Document, error)
	Count(ctx context.Context) (int, error)
	Close() error
}

// HistoryLog is the append-only log of completed chat exchanges.
type HistoryLog interface {
	Append(ctx context.Context, query, response string) (*ChatRecord, error)
	// Recent returns up to limit records, newest first.
	Recent(ctx context.Context, limit int) ([]*ChatRecord, error)
	Close() error
}

// RetrievalCache maps a raw query string to the passages retrieved for it.
type RetrievalCache interface {
	// Get returns the cached passages while the entry is live. An expired
	// entry reports ok=false.
	Get(ctx context.Context, key string) (passages []string, ok bool, err error)
	Set(ctx context.Context, key string, passages []string, ttl time.Duration) error
	Close() error
}
