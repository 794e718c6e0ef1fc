// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package provider_test

import (
	"context"

	"github.com/sigil-dev/ragd/internal/provider"
	"github.com/sigil-dev/ragd/pkg/health"
)

// mockProvider is a chat provider with a fixed availability.
type mockProvider struct {
	name      string
	available bool
	closed    bool
}

func (m *mockProvider) Name() string                     { return m.name }
func (m *mockProvider) Available(_ context.Context) bool { return m.available }

func (m *mockProvider) Chat(_ context.Context, _ provider.ChatRequest) (<-chan provider.ChatEvent, error) {
	ch := make(chan provider.ChatEvent, 2)
	ch <- provider.ChatEvent{Type: provider.EventTypeTextDelta, Text: "hello"}
	ch <- provider.ChatEvent{Type: provider.EventTypeDone}
	close(ch)
	return ch, nil
}

func (m *mockProvider) Close() error {
	m.closed = true
	return nil
}

func (m *mockProvider) HealthMetrics() health.Metrics {
	return health.Metrics{Available: m.available}
}

// mockEmbeddingProvider also serves embeddings of a fixed vector.
type mockEmbeddingProvider struct {
	mockProvider
	vectors [][]float32
	err     error
	lastReq provider.EmbedRequest
}

func (m *mockEmbeddingProvider) Embed(_ context.Context, req provider.EmbedRequest) ([][]float32, error) {
	m.lastReq = req
	return m.vectors, m.err
}
