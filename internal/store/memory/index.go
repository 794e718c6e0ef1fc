// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

// Package memory provides an in-process VectorIndex. Contents are lost
// on restart.
package memory

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/sigil-dev/ragd/internal/store"
)

func init() {
	store.RegisterIndexBackend("memory", func(_ context.Context, cfg store.Config) (store.VectorIndex, error) {
		return NewVectorIndex(cfg.Dimensions, cfg.Metric)
	})
}

// Compile-time interface check.
var _ store.VectorIndex = (*VectorIndex)(nil)

type entry struct {
	id     int64
	text   string
	vector []float32
}

// VectorIndex is a brute-force index guarded by a RWMutex. Ids are the
// entry count at insertion, assigned under the write lock.
type VectorIndex struct {
	mu         sync.RWMutex
	entries    []entry
	dimensions int
	distance   func(a, b []float32) float64
}

// NewVectorIndex creates an empty index.
func NewVectorIndex(dimensions int, metric store.Metric) (*VectorIndex, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("%w: dimensions must be positive, got %d", store.ErrInvalidInput, dimensions)
	}

	var distance func(a, b []float32) float64
	switch metric {
	case store.MetricCosine, "":
		distance = cosineDistance
	case store.MetricL2:
		distance = l2Distance
	default:
		return nil, fmt.Errorf("%w: unsupported metric %q", store.ErrInvalidInput, metric)
	}

	return &VectorIndex{dimensions: dimensions, distance: distance}, nil
}

// Add appends an entry. The vector is copied.
func (v *VectorIndex) Add(_ context.Context, text string, vector []float32) (int64, error) {
	if len(vector) != v.dimensions {
		return 0, fmt.Errorf("%w: got %d, want %d", store.ErrDimensionMismatch, len(vector), v.dimensions)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	id := int64(len(v.entries))
	v.entries = append(v.entries, entry{id: id, text: text, vector: slices.Clone(vector)})
	return id, nil
}

// Query returns the texts of the k nearest entries. The stable sort keeps
// equidistant entries in insertion order.
func (v *VectorIndex) Query(_ context.Context, vector []float32, k int) ([]string, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", store.ErrInvalidInput, k)
	}
	if len(vector) != v.dimensions {
		return nil, fmt.Errorf("%w: got %d, want %d", store.ErrDimensionMismatch, len(vector), v.dimensions)
	}

	type scored struct {
		text string
		dist float64
	}

	v.mu.RLock()
	results := make([]scored, len(v.entries))
	for i, e := range v.entries {
		results[i] = scored{text: e.text, dist: v.distance(vector, e.vector)}
	}
	v.mu.RUnlock()

	slices.SortStableFunc(results, func(a, b scored) int {
		switch {
		case a.dist < b.dist:
			return -1
		case a.dist > b.dist:
			return 1
		default:
			return 0
		}
	})

	n := min(k, len(results))
	texts := make([]string, n)
	for i := range n {
		texts[i] = results[i].text
	}
	return texts, nil
}

// Size returns the number of entries.
func (v *VectorIndex) Size(context.Context) (int, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.entries), nil
}

func (v *VectorIndex) Close() error { return nil }

// cosineDistance is 1 - cos(a, b). A zero vector is at distance 1 from
// everything.
func cosineDistance(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}

func l2Distance(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
