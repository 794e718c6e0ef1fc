// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package cache

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/sigil-dev/ragd/internal/store"
)

// Compile-time interface check.
var _ store.RetrievalCache = (*Memory)(nil)

const (
	// DefaultMaxEntries bounds the memory cache when no cap is configured.
	DefaultMaxEntries = 10000

	// DefaultSweepInterval is how often expired entries are purged.
	DefaultSweepInterval = time.Minute
)

type memoryEntry struct {
	passages []string
	expiry   time.Time
}

// Memory is an in-process TTL map holding at most maxEntries keys.
// Expired entries are purged by a background sweep, on Get, and before
// a Set that would exceed the cap.
type Memory struct {
	mu         sync.Mutex
	entries    map[string]memoryEntry
	now        func() time.Time
	maxEntries int
	sweepEvery time.Duration

	done      chan struct{}
	closeOnce sync.Once
}

// MemoryOption configures a Memory cache.
type MemoryOption func(*Memory)

// WithMaxEntries caps the number of keys held. Values <= 0 keep the default.
func WithMaxEntries(n int) MemoryOption {
	return func(m *Memory) {
		if n > 0 {
			m.maxEntries = n
		}
	}
}

// WithSweepInterval sets the background purge period. A value <= 0
// disables the sweeper; expired entries are then only dropped on access.
func WithSweepInterval(d time.Duration) MemoryOption {
	return func(m *Memory) { m.sweepEvery = d }
}

// NewMemory returns an empty cache using the wall clock and starts its
// sweeper. Close stops it.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		entries:    make(map[string]memoryEntry),
		now:        time.Now,
		maxEntries: DefaultMaxEntries,
		sweepEvery: DefaultSweepInterval,
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.sweepEvery > 0 {
		go m.sweepLoop(m.sweepEvery)
	}
	return m
}

func (m *Memory) sweepLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.Purge()
		case <-m.done:
			return
		}
	}
}

// SetNowFunc overrides the clock.
func (m *Memory) SetNowFunc(fn func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = fn
}

// Get returns the passages stored under key while now < expiry.
func (m *Memory) Get(_ context.Context, key string) ([]string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !m.now().Before(e.expiry) {
		delete(m.entries, key)
		return nil, false, nil
	}
	return slices.Clone(e.passages), true, nil
}

// Set stores passages under key until now + ttl, replacing any entry.
// When the cache is full, expired entries are purged first and then the
// entry closest to expiry is evicted.
func (m *Memory) Set(_ context.Context, key string, passages []string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if _, exists := m.entries[key]; !exists && len(m.entries) >= m.maxEntries {
		m.purgeLocked(now)
		for len(m.entries) >= m.maxEntries {
			m.evictSoonestLocked()
		}
	}

	stored := slices.Clone(passages)
	if stored == nil {
		stored = []string{}
	}
	m.entries[key] = memoryEntry{passages: stored, expiry: now.Add(ttl)}
	return nil
}

// Purge drops expired entries and returns how many were removed.
func (m *Memory) Purge() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.purgeLocked(m.now())
}

// purgeLocked must be called with m.mu held.
func (m *Memory) purgeLocked(now time.Time) int {
	n := 0
	for k, e := range m.entries {
		if !now.Before(e.expiry) {
			delete(m.entries, k)
			n++
		}
	}
	return n
}

// evictSoonestLocked must be called with m.mu held.
func (m *Memory) evictSoonestLocked() {
	var (
		victim  string
		soonest time.Time
		found   bool
	)
	for k, e := range m.entries {
		if !found || e.expiry.Before(soonest) {
			victim, soonest, found = k, e.expiry, true
		}
	}
	if found {
		delete(m.entries, victim)
	}
}

// Len returns the number of entries, including expired ones not yet purged.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Close stops the sweeper. It is safe to call more than once.
func (m *Memory) Close() error {
	m.closeOnce.Do(func() { close(m.done) })
	return nil
}
