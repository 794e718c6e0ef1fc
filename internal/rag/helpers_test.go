// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package rag_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sigil-dev/ragd/internal/cache"
	"github.com/sigil-dev/ragd/internal/extract"
	"github.com/sigil-dev/ragd/internal/provider"
	"github.com/sigil-dev/ragd/internal/rag"
	"github.com/sigil-dev/ragd/internal/store"
	"github.com/sigil-dev/ragd/internal/store/memory"
)

const dims = 3

// keywordEmbedder maps text onto three axes by keyword. Identical text
// always yields the same vector.
type keywordEmbedder struct {
	calls atomic.Int32
	err   error
}

func (e *keywordEmbedder) Model() string { return "fake/keywords" }

func (e *keywordEmbedder) Dimensions() int { return 3 }

func (e *keywordEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.calls.Add(1)
	if e.err != nil {
		return nil, e.err
	}
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "sky"):
		return []float32{1, 0, 0}, nil
	case strings.Contains(lower, "grass"):
		return []float32{0, 1, 0}, nil
	default:
		return []float32{0, 0, 1}, nil
	}
}

// recordingIndex wraps the in-memory index, counting queries and
// remembering which text went to which id.
type recordingIndex struct {
	*memory.VectorIndex
	queries atomic.Int32
	addErr  error

	mu    sync.Mutex
	texts map[int64]string
}

func newRecordingIndex() *recordingIndex {
	idx, err := memory.NewVectorIndex(dims, store.MetricCosine)
	if err != nil {
		panic(err)
	}
	return &recordingIndex{VectorIndex: idx, texts: map[int64]string{}}
}

func (r *recordingIndex) Add(ctx context.Context, text string, vector []float32) (int64, error) {
	if r.addErr != nil {
		return 0, r.addErr
	}
	id, err := r.VectorIndex.Add(ctx, text, vector)
	if err == nil {
		r.mu.Lock()
		r.texts[id] = text
		r.mu.Unlock()
	}
	return id, err
}

func (r *recordingIndex) Query(ctx context.Context, vector []float32, k int) ([]string, error) {
	r.queries.Add(1)
	return r.VectorIndex.Query(ctx, vector, k)
}

type fakeDocuments struct {
	mu   sync.Mutex
	docs []*store.Document
	err  error
}

func (f *fakeDocuments) Insert(_ context.Context, doc *store.Document) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	cp := *doc
	if cp.ID == "" {
		cp.ID = fmt.Sprintf("doc-%d", len(f.docs)+1)
	}
	f.docs = append(f.docs, &cp)
	return cp.ID, nil
}

func (f *fakeDocuments) List(_ context.Context, _ store.ListOpts) ([]*store.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*store.Document(nil), f.docs...), f.err
}

func (f *fakeDocuments) Count(context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.docs), nil
}

func (f *fakeDocuments) Close() error { return nil }

type fakeHistory struct {
	mu      sync.Mutex
	records []*store.ChatRecord
	err     error
	limit   int
}

func (f *fakeHistory) Append(_ context.Context, query, response string) (*store.ChatRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	rec := &store.ChatRecord{ID: int64(len(f.records) + 1), Query: query, Response: response}
	f.records = append(f.records, rec)
	return rec, nil
}

func (f *fakeHistory) Recent(_ context.Context, limit int) ([]*store.ChatRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.limit = limit
	var out []*store.ChatRecord
	for i := len(f.records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, f.records[i])
	}
	return out, nil
}

func (f *fakeHistory) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

func (f *fakeHistory) Close() error { return nil }

// failingCache errors on every call.
type failingCache struct{}

func (failingCache) Get(context.Context, string) ([]string, bool, error) {
	return nil, false, errors.New("cache down")
}

func (failingCache) Set(context.Context, string, []string, time.Duration) error {
	return errors.New("cache down")
}

func (failingCache) Close() error { return nil }

// scriptedProvider replays events and records the last request.
type scriptedProvider struct {
	events  []provider.ChatEvent
	chatErr error

	mu      sync.Mutex
	lastReq provider.ChatRequest
}

func (p *scriptedProvider) Name() string                   { return "scripted" }
func (p *scriptedProvider) Available(context.Context) bool { return true }
func (p *scriptedProvider) Close() error                   { return nil }

func (p *scriptedProvider) Chat(_ context.Context, req provider.ChatRequest) (<-chan provider.ChatEvent, error) {
	p.mu.Lock()
	p.lastReq = req
	p.mu.Unlock()
	if p.chatErr != nil {
		return nil, p.chatErr
	}
	ch := make(chan provider.ChatEvent, len(p.events))
	for _, ev := range p.events {
		ch <- ev
	}
	close(ch)
	return ch, nil
}

func answering(text string) *scriptedProvider {
	return &scriptedProvider{events: []provider.ChatEvent{
		{Type: provider.EventTypeTextDelta, Text: text},
		{Type: provider.EventTypeUsage, Usage: &provider.Usage{InputTokens: 42, OutputTokens: 3}},
		{Type: provider.EventTypeDone},
	}}
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// pipeline bundles a fully wired set of components over fakes.
type pipeline struct {
	embedder *keywordEmbedder
	index    *recordingIndex
	docs     *fakeDocuments
	history  *fakeHistory
	cache    *cache.Memory
	clock    *fakeClock
	llm      *scriptedProvider

	ingestor  *rag.Ingestor
	retriever *rag.Retriever
	generator *rag.Generator
	orch      *rag.ChatOrchestrator
	service   *rag.Service
	states    []rag.State
}

func newPipeline(llm *scriptedProvider) *pipeline {
	p := &pipeline{
		embedder: &keywordEmbedder{},
		index:    newRecordingIndex(),
		docs:     &fakeDocuments{},
		history:  &fakeHistory{},
		cache:    cache.NewMemory(cache.WithSweepInterval(0)),
		clock:    newClock(),
		llm:      llm,
	}
	p.cache.SetNowFunc(p.clock.Now)

	p.ingestor = rag.NewIngestor(rag.IngestorConfig{
		Extractor: extract.New(),
		Embedder:  p.embedder,
		Index:     p.index,
		Documents: p.docs,
		Now:       p.clock.Now,
	})
	p.retriever = rag.NewRetriever(rag.RetrieverConfig{
		Embedder: p.embedder,
		Index:    p.index,
		Cache:    p.cache,
		TopK:     3,
		TTL:      time.Hour,
	})
	p.generator = rag.NewGenerator(llm, "test-model", 256)
	p.orch = rag.NewChatOrchestrator(rag.OrchestratorConfig{
		Retriever: p.retriever,
		Generator: p.generator,
		History:   p.history,
		OnState:   func(s rag.State) { p.states = append(p.states, s) },
	})
	p.service = rag.NewService(rag.ServiceConfig{
		Ingestor:     p.ingestor,
		Orchestrator: p.orch,
		Index:        p.index,
		Documents:    p.docs,
		History:      p.history,
		Embedding:    p.embedder,
		Generator:    p.generator,
	})
	return p
}
