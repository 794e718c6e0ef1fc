// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package rag

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/sigil-dev/ragd/internal/store"
	ragerr "github.com/sigil-dev/ragd/pkg/errors"
	"github.com/sigil-dev/ragd/pkg/health"
)

// previewRunes is how much of a document ListDocuments shows.
const previewRunes = 100

// DocumentSummary is a listing row.
type DocumentSummary struct {
	ID      string
	Title   string
	Source  string
	Preview string
}

// ProviderHealth reports per-provider health for the status endpoint.
type ProviderHealth interface {
	Health() map[string]health.Metrics
}

// EmbeddingModel describes the embedder reported by Status.
type EmbeddingModel interface {
	Model() string
	Dimensions() int
}

// ServiceConfig wires a Service.
type ServiceConfig struct {
	Ingestor     *Ingestor
	Orchestrator *ChatOrchestrator
	Index        store.VectorIndex
	Documents    store.DocumentStore
	History      store.HistoryLog
	Providers    ProviderHealth
	Embedding    EmbeddingModel
	Generator    *Generator
}

// Service is the request surface of the pipeline.
type Service struct {
	ingestor     *Ingestor
	orchestrator *ChatOrchestrator
	index        store.VectorIndex
	documents    store.DocumentStore
	history      store.HistoryLog
	providers    ProviderHealth
	embedding    EmbeddingModel
	generator    *Generator
}

func NewService(cfg ServiceConfig) *Service {
	return &Service{
		ingestor:     cfg.Ingestor,
		orchestrator: cfg.Orchestrator,
		index:        cfg.Index,
		documents:    cfg.Documents,
		history:      cfg.History,
		providers:    cfg.Providers,
		embedding:    cfg.Embedding,
		generator:    cfg.Generator,
	}
}

func (s *Service) AddDocument(ctx context.Context, cmd AddDocumentCommand) (*IngestResult, error) {
	return s.ingestor.AddDocument(ctx, cmd)
}

func (s *Service) UploadFile(ctx context.Context, cmd UploadFileCommand) (*IngestResult, error) {
	return s.ingestor.UploadFile(ctx, cmd)
}

func (s *Service) Chat(ctx context.Context, cmd ChatCommand) (*Answer, error) {
	return s.orchestrator.Answer(ctx, cmd)
}

// ListDocuments returns every stored document in insertion order.
func (s *Service) ListDocuments(ctx context.Context) ([]DocumentSummary, error) {
	docs, err := s.documents.List(ctx, store.ListOpts{})
	if err != nil {
		return nil, ragerr.Wrapf(err, ragerr.CodeStoreDatabaseFailure, "listing documents")
	}

	out := make([]DocumentSummary, 0, len(docs))
	for _, d := range docs {
		out = append(out, DocumentSummary{
			ID:      d.ID,
			Title:   d.Title,
			Source:  d.Source,
			Preview: Preview(d.Text),
		})
	}
	return out, nil
}

// ChatHistory returns the most recent exchanges, newest first.
func (s *Service) ChatHistory(ctx context.Context, q HistoryQuery) ([]*store.ChatRecord, error) {
	if err := Validate(q); err != nil {
		return nil, err
	}

	recs, err := s.history.Recent(ctx, q.EffectiveLimit())
	if err != nil {
		return nil, ragerr.Wrapf(err, ragerr.CodeHistoryQueryFailure, "reading chat history")
	}
	return recs, nil
}

// Status reports index size, document count, the models in use and
// provider health.
func (s *Service) Status(ctx context.Context) (*health.Report, error) {
	size, err := s.index.Size(ctx)
	if err != nil {
		return nil, ragerr.Wrapf(err, ragerr.CodeIndexQueryFailure, "reading index size")
	}
	docs, err := s.documents.Count(ctx)
	if err != nil {
		return nil, ragerr.Wrapf(err, ragerr.CodeStoreDatabaseFailure, "counting documents")
	}

	report := &health.Report{
		Status:    "ok",
		IndexSize: int64(size),
		Documents: int64(docs),
		Providers: map[string]health.Metrics{},
		CheckedAt: time.Now().UTC(),
	}
	if s.embedding != nil {
		report.Embedding = s.embedding.Model()
		report.EmbeddingDimensions = s.embedding.Dimensions()
	}
	if s.generator != nil {
		report.Generation = s.generator.Model()
	}
	if s.providers != nil {
		report.Providers = s.providers.Health()
	}
	if report.Degraded() {
		report.Status = "degraded"
	}
	return report, nil
}

// Preview truncates text to its first 100 runes, marking the cut with "...".
func Preview(text string) string {
	if utf8.RuneCountInString(text) <= previewRunes {
		return text
	}
	runes := []rune(text)
	return string(runes[:previewRunes]) + "..."
}
