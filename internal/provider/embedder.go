// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package provider

import (
	"context"
	"fmt"

	ragerr "github.com/sigil-dev/ragd/pkg/errors"
)

// Embedder binds an EmbeddingProvider to one model and a fixed vector
// dimension. Upstream and shape errors are returned unclassified so the
// caller can attach its own error code.
type Embedder struct {
	provider   EmbeddingProvider
	model      string
	dimensions int
}

func NewEmbedder(p EmbeddingProvider, model string, dimensions int) (*Embedder, error) {
	if p == nil || model == "" {
		return nil, ragerr.New(ragerr.CodeProviderRequestInvalid, "embedder requires a provider and a model")
	}
	if dimensions <= 0 {
		return nil, ragerr.Errorf(ragerr.CodeProviderRequestInvalid, "embedding dimensions must be positive, got %d", dimensions)
	}
	return &Embedder{provider: p, model: model, dimensions: dimensions}, nil
}

// Embed returns the vector for text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.provider.Embed(ctx, EmbedRequest{
		Model:      e.model,
		Input:      []string{text},
		Dimensions: e.dimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: embedding with %s: %w", e.provider.Name(), e.model, err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("%s: expected 1 embedding, got %d", e.provider.Name(), len(vectors))
	}
	if len(vectors[0]) != e.dimensions {
		return nil, fmt.Errorf("%s: embedding has %d dimensions, want %d", e.provider.Name(), len(vectors[0]), e.dimensions)
	}
	return vectors[0], nil
}

func (e *Embedder) Dimensions() int { return e.dimensions }

// Model returns the "provider/model" reference of the embedding model.
func (e *Embedder) Model() string { return e.provider.Name() + "/" + e.model }
