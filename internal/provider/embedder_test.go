// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package provider_test

import (
	"context"
	"errors"
	"testing"

	"github.com/sigil-dev/ragd/internal/provider"
	ragerr "github.com/sigil-dev/ragd/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbedder_Embed(t *testing.T) {
	p := &mockEmbeddingProvider{
		mockProvider: mockProvider{name: "openai"},
		vectors:      [][]float32{{0.1, 0.2, 0.3}},
	}
	e, err := provider.NewEmbedder(p, "text-embedding-3-small", 3)
	require.NoError(t, err)

	vec, err := e.Embed(context.Background(), "The sky is blue.")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
	assert.Equal(t, []string{"The sky is blue."}, p.lastReq.Input)
	assert.Equal(t, "text-embedding-3-small", p.lastReq.Model)
	assert.Equal(t, 3, p.lastReq.Dimensions)
}

func TestEmbedder_DimensionMismatch(t *testing.T) {
	p := &mockEmbeddingProvider{
		mockProvider: mockProvider{name: "openai"},
		vectors:      [][]float32{{0.1, 0.2}},
	}
	e, err := provider.NewEmbedder(p, "m", 3)
	require.NoError(t, err)

	_, err = e.Embed(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 dimensions")
}

func TestEmbedder_UpstreamErrorIsUnclassified(t *testing.T) {
	upstream := errors.New("429 too many requests")
	p := &mockEmbeddingProvider{mockProvider: mockProvider{name: "openai"}, err: upstream}
	e, err := provider.NewEmbedder(p, "m", 3)
	require.NoError(t, err)

	_, err = e.Embed(context.Background(), "x")
	require.ErrorIs(t, err, upstream)
	assert.Equal(t, ragerr.Code(""), ragerr.CodeOf(err))
}

func TestNewEmbedder_Validation(t *testing.T) {
	_, err := provider.NewEmbedder(nil, "m", 3)
	assert.True(t, ragerr.HasCode(err, ragerr.CodeProviderRequestInvalid))

	p := &mockEmbeddingProvider{mockProvider: mockProvider{name: "openai"}}
	_, err = provider.NewEmbedder(p, "m", 0)
	assert.True(t, ragerr.HasCode(err, ragerr.CodeProviderRequestInvalid))
}
