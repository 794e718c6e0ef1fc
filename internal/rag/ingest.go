// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package rag

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/sigil-dev/ragd/internal/extract"
	"github.com/sigil-dev/ragd/internal/store"
	ragerr "github.com/sigil-dev/ragd/pkg/errors"
)

// IngestResult describes a document written to both backends.
type IngestResult struct {
	DocumentID string
	IndexID    int64
	Title      string
	Source     extract.Format
	Chars      int
}

// IngestorConfig holds dependencies for the Ingestor.
type IngestorConfig struct {
	Extractor *extract.Extractor
	Embedder  Embedder
	Index     store.VectorIndex
	Documents store.DocumentStore
	Now       func() time.Time
}

// Ingestor runs extract → normalize → embed → index → store. The index
// and store writes happen under one lock so a concurrent ingestion can
// never interleave between them.
type Ingestor struct {
	extractor *extract.Extractor
	embedder  Embedder
	index     store.VectorIndex
	documents store.DocumentStore
	now       func() time.Time

	writeMu sync.Mutex
}

func NewIngestor(cfg IngestorConfig) *Ingestor {
	ex := cfg.Extractor
	if ex == nil {
		ex = extract.New()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Ingestor{
		extractor: ex,
		embedder:  cfg.Embedder,
		index:     cfg.Index,
		documents: cfg.Documents,
		now:       now,
	}
}

// AddDocument ingests manually entered text. An empty title defaults to
// "Document <UTC timestamp>".
func (i *Ingestor) AddDocument(ctx context.Context, cmd AddDocumentCommand) (*IngestResult, error) {
	if err := Validate(cmd); err != nil {
		return nil, err
	}

	text, err := i.extractor.Extract([]byte(cmd.Text), extract.FormatManual)
	if err != nil {
		return nil, err
	}

	title := cmd.Title
	if title == "" {
		title = "Document " + i.now().UTC().Format("2006-01-02 15:04:05") + " UTC"
	}

	return i.ingest(ctx, text, title, extract.FormatManual)
}

// UploadFile ingests a file, choosing the extractor by extension. An
// unsupported extension fails before anything is embedded or written.
func (i *Ingestor) UploadFile(ctx context.Context, cmd UploadFileCommand) (*IngestResult, error) {
	if err := Validate(cmd); err != nil {
		return nil, err
	}

	text, format, err := i.extractor.ExtractFile(cmd.Filename, cmd.Data)
	if err != nil {
		return nil, ragerr.With(err, ragerr.FieldFilename(cmd.Filename))
	}

	return i.ingest(ctx, text, cmd.Filename, format)
}

func (i *Ingestor) ingest(ctx context.Context, text, title string, source extract.Format) (*IngestResult, error) {
	vector, err := i.embedder.Embed(ctx, text)
	if err != nil {
		return nil, ragerr.Wrapf(err, ragerr.CodeEmbeddingUpstreamFailure, "embedding document %q", title)
	}

	i.writeMu.Lock()
	defer i.writeMu.Unlock()

	indexID, err := i.index.Add(ctx, text, vector)
	if err != nil {
		return nil, ragerr.Wrapf(err, ragerr.CodeIndexWriteFailure, "adding document %q to index", title)
	}

	docID, err := i.documents.Insert(ctx, &store.Document{
		IndexID:   indexID,
		Title:     title,
		Source:    string(source),
		Text:      text,
		Vector:    vector,
		CreatedAt: i.now().UTC(),
	})
	if err != nil {
		slog.Error("document store diverged from index",
			"index_id", indexID,
			"title", title,
			"code", ragerr.CodeIngestPartial,
			"error", err,
		)
		return nil, ragerr.Wrap(err, ragerr.CodeIngestPartial,
			"document indexed but not stored; index and document store need reconciliation",
			ragerr.FieldIndexID(strconv.FormatInt(indexID, 10)),
			ragerr.Field("committed", "index"),
		)
	}

	slog.Info("document ingested",
		"doc_id", docID,
		"index_id", indexID,
		"source", source,
		"chars", len(text),
	)

	return &IngestResult{
		DocumentID: docID,
		IndexID:    indexID,
		Title:      title,
		Source:     source,
		Chars:      len(text),
	}, nil
}
