// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

// Package rag implements the retrieval-augmented generation pipeline:
// ingestion into a vector index and document store, cached retrieval,
// prompt assembly, generation and history logging.
//
// Adapters below this package return unclassified errors; each stage
// attaches the error code for the failure it represents.
package rag

import "context"

// Embedder turns text into a fixed-dimension vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
