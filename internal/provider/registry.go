// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package provider

import (
	"context"
	"slices"
	"strings"
	"sync"

	ragerr "github.com/sigil-dev/ragd/pkg/errors"
	"github.com/sigil-dev/ragd/pkg/health"
)

// Registry holds the configured chat and embedding providers and resolves
// "provider/model" references against them.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	embedders map[string]EmbeddingProvider
}

func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
		embedders: make(map[string]EmbeddingProvider),
	}
}

// Register adds a chat provider. A provider that also implements
// EmbeddingProvider is registered for embeddings too.
func (r *Registry) Register(name string, p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[name] = p
	if e, ok := p.(EmbeddingProvider); ok {
		r.embedders[name] = e
	}
}

func (r *Registry) Get(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[name]
	if !ok {
		return nil, ragerr.New(ragerr.CodeProviderNotFound, "provider not found: "+name, ragerr.FieldProvider(name))
	}
	return p, nil
}

// Names returns the registered provider names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Route resolves a "provider/model" ref to a chat provider and model name.
func (r *Registry) Route(ctx context.Context, ref string) (Provider, string, error) {
	name, model, err := ParseRef(ref)
	if err != nil {
		return nil, "", err
	}

	p, err := r.Get(name)
	if err != nil {
		return nil, "", err
	}
	if !p.Available(ctx) {
		return nil, "", ragerr.New(ragerr.CodeProviderUpstreamFailure, "provider unavailable: "+name, ragerr.FieldProvider(name))
	}
	return p, model, nil
}

// Embedder resolves a "provider/model" ref to an Embedder producing
// vectors of the given dimension.
func (r *Registry) Embedder(ref string, dimensions int) (*Embedder, error) {
	name, model, err := ParseRef(ref)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	e, ok := r.embedders[name]
	r.mu.RUnlock()
	if !ok {
		return nil, ragerr.New(ragerr.CodeProviderNotFound, "no embedding provider registered as "+name, ragerr.FieldProvider(name))
	}
	return NewEmbedder(e, model, dimensions)
}

// Health returns a snapshot for every provider that reports health.
func (r *Registry) Health() map[string]health.Metrics {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]health.Metrics, len(r.providers))
	for name, p := range r.providers {
		if hr, ok := p.(HealthReporter); ok {
			out[name] = hr.HealthMetrics()
		}
	}
	return out
}

// Close shuts down all registered providers.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for _, p := range r.providers {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return ragerr.Join(errs...)
	}
	return nil
}

// ParseRef splits a "provider/model" reference on the first "/".
func ParseRef(ref string) (providerName, model string, err error) {
	idx := strings.Index(ref, "/")
	if idx <= 0 || idx == len(ref)-1 {
		return "", "", ragerr.Errorf(ragerr.CodeProviderInvalidModelRef,
			"model reference %q must use provider/model format", ref)
	}
	return ref[:idx], ref[idx+1:], nil
}
