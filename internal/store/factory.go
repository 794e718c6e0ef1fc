// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	ragerr "github.com/sigil-dev/ragd/pkg/errors"
)

// IndexFactory opens a VectorIndex backend.
type IndexFactory func(ctx context.Context, cfg Config) (VectorIndex, error)

// DocumentFactory opens a DocumentStore backend.
type DocumentFactory func(ctx context.Context, cfg Config) (DocumentStore, error)

// HistoryFactory opens a HistoryLog backend.
type HistoryFactory func(ctx context.Context, cfg Config) (HistoryLog, error)

var (
	indexFactories    = map[string]IndexFactory{}
	documentFactories = map[string]DocumentFactory{}
	historyFactories  = map[string]HistoryFactory{}
	factoriesMu       sync.RWMutex
)

// RegisterIndexBackend registers a VectorIndex backend under name.
// Backend packages call this from init(). This function is goroutine-safe.
func RegisterIndexBackend(name string, f IndexFactory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	indexFactories[name] = f
}

// RegisterDocumentBackend registers a DocumentStore backend under name.
func RegisterDocumentBackend(name string, f DocumentFactory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	documentFactories[name] = f
}

// RegisterHistoryBackend registers a HistoryLog backend under name.
func RegisterHistoryBackend(name string, f HistoryFactory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	historyFactories[name] = f
}

// resolveBackend returns the effective backend name, defaulting to "sqlite".
func resolveBackend(name string) string {
	if name == "" {
		return "sqlite"
	}
	return name
}

// NewVectorIndex opens the named VectorIndex backend.
func NewVectorIndex(ctx context.Context, backend string, cfg Config) (VectorIndex, error) {
	backend = resolveBackend(backend)

	factoriesMu.RLock()
	f, ok := indexFactories[backend]
	factoriesMu.RUnlock()
	if !ok {
		return nil, unsupported("index", backend, indexFactories)
	}
	if cfg.Dimensions <= 0 {
		return nil, ragerr.Errorf(ragerr.CodeIndexDimensionInvalid, "index dimensions must be positive, got %d", cfg.Dimensions)
	}
	if cfg.Metric == "" {
		cfg.Metric = MetricCosine
	}
	return f(ctx, cfg)
}

// NewDocumentStore opens the named DocumentStore backend.
func NewDocumentStore(ctx context.Context, backend string, cfg Config) (DocumentStore, error) {
	backend = resolveBackend(backend)

	factoriesMu.RLock()
	f, ok := documentFactories[backend]
	factoriesMu.RUnlock()
	if !ok {
		return nil, unsupported("document", backend, documentFactories)
	}
	return f(ctx, cfg)
}

// NewHistoryLog opens the named HistoryLog backend.
func NewHistoryLog(ctx context.Context, backend string, cfg Config) (HistoryLog, error) {
	backend = resolveBackend(backend)

	factoriesMu.RLock()
	f, ok := historyFactories[backend]
	factoriesMu.RUnlock()
	if !ok {
		return nil, unsupported("history", backend, historyFactories)
	}
	return f(ctx, cfg)
}

func unsupported[F any](kind, backend string, registered map[string]F) error {
	factoriesMu.RLock()
	names := make([]string, 0, len(registered))
	for n := range registered {
		names = append(names, n)
	}
	factoriesMu.RUnlock()
	sort.Strings(names)

	return ragerr.New(ragerr.CodeStoreBackendUnsupported,
		fmt.Sprintf("unsupported %s backend: %q (registered: %v)", kind, backend, names),
		ragerr.FieldBackend(backend))
}
