// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package rag_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/sigil-dev/ragd/internal/extract"
	"github.com/sigil-dev/ragd/internal/rag"
	ragerr "github.com/sigil-dev/ragd/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddDocument_WritesIndexAndStore(t *testing.T) {
	ctx := context.Background()
	p := newPipeline(answering("ok"))

	res, err := p.ingestor.AddDocument(ctx, rag.AddDocumentCommand{Text: "  The sky\nis blue.  "})
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.IndexID)
	assert.Equal(t, extract.FormatManual, res.Source)
	assert.Equal(t, "Document 2026-03-01 12:00:00 UTC", res.Title)

	size, _ := p.index.Size(ctx)
	assert.Equal(t, 1, size)

	require.Len(t, p.docs.docs, 1)
	doc := p.docs.docs[0]
	assert.Equal(t, "The sky is blue.", doc.Text)
	assert.Equal(t, []float32{1, 0, 0}, doc.Vector)
	assert.Equal(t, "manual_input", doc.Source)
	assert.Equal(t, res.DocumentID, doc.ID)
}

func TestAddDocument_KeepsTitle(t *testing.T) {
	p := newPipeline(answering("ok"))

	res, err := p.ingestor.AddDocument(context.Background(), rag.AddDocumentCommand{Text: "grass", Title: "Lawn"})
	require.NoError(t, err)
	assert.Equal(t, "Lawn", res.Title)
}

func TestAddDocument_RejectsBlankText(t *testing.T) {
	p := newPipeline(answering("ok"))

	_, err := p.ingestor.AddDocument(context.Background(), rag.AddDocumentCommand{Text: " \n\t "})
	require.Error(t, err)
	assert.True(t, ragerr.HasCode(err, ragerr.CodeRAGCommandInvalid))
	assert.Zero(t, p.embedder.calls.Load())
}

func TestUploadFile_UnsupportedFormatWritesNothing(t *testing.T) {
	ctx := context.Background()
	p := newPipeline(answering("ok"))

	_, err := p.ingestor.UploadFile(ctx, rag.UploadFileCommand{Filename: "data.txt", Data: []byte("The sky is blue.")})
	require.Error(t, err)
	assert.True(t, ragerr.HasCode(err, ragerr.CodeExtractFormatUnsupported))
	assert.Equal(t, ".txt", ragerr.FieldsOf(err)["format"])
	assert.Equal(t, "data.txt", ragerr.FieldsOf(err)["filename"])
	assert.Equal(t, 415, ragerr.HTTPStatus(err))

	assert.Zero(t, p.embedder.calls.Load())
	size, _ := p.index.Size(ctx)
	assert.Zero(t, size)
	assert.Empty(t, p.docs.docs)
}

func TestUploadFile_CSV(t *testing.T) {
	p := newPipeline(answering("ok"))

	res, err := p.ingestor.UploadFile(context.Background(), rag.UploadFileCommand{
		Filename: "colors.csv",
		Data:     []byte("thing,color\nsky,blue\ngrass,green\n"),
	})
	require.NoError(t, err)
	assert.Equal(t, extract.FormatCSV, res.Source)
	assert.Equal(t, "colors.csv", res.Title)
	assert.Equal(t, "sky blue grass green", p.docs.docs[0].Text)
}

func TestUploadFile_RejectsEmptyData(t *testing.T) {
	p := newPipeline(answering("ok"))

	_, err := p.ingestor.UploadFile(context.Background(), rag.UploadFileCommand{Filename: "a.csv"})
	assert.True(t, ragerr.HasCode(err, ragerr.CodeRAGCommandInvalid))
}

func TestIngest_EmbeddingFailure(t *testing.T) {
	ctx := context.Background()
	p := newPipeline(answering("ok"))
	p.embedder.err = errors.New("503 from embeddings api")

	_, err := p.ingestor.AddDocument(ctx, rag.AddDocumentCommand{Text: "The sky is blue."})
	require.Error(t, err)
	assert.True(t, ragerr.HasCode(err, ragerr.CodeEmbeddingUpstreamFailure))
	assert.Equal(t, 502, ragerr.HTTPStatus(err))

	size, _ := p.index.Size(ctx)
	assert.Zero(t, size)
	assert.Empty(t, p.docs.docs)
}

func TestIngest_IndexFailure(t *testing.T) {
	p := newPipeline(answering("ok"))
	p.index.addErr = errors.New("disk full")

	_, err := p.ingestor.AddDocument(context.Background(), rag.AddDocumentCommand{Text: "The sky is blue."})
	require.Error(t, err)
	assert.True(t, ragerr.HasCode(err, ragerr.CodeIndexWriteFailure))
	assert.Empty(t, p.docs.docs, "store is not written when the index rejects")
}

func TestIngest_StoreFailureIsPartial(t *testing.T) {
	ctx := context.Background()
	p := newPipeline(answering("ok"))
	p.docs.err = errors.New("connection refused")

	_, err := p.ingestor.AddDocument(ctx, rag.AddDocumentCommand{Text: "The sky is blue."})
	require.Error(t, err)
	assert.True(t, ragerr.HasCode(err, ragerr.CodeIngestPartial))
	assert.Equal(t, 500, ragerr.HTTPStatus(err))

	fields := ragerr.FieldsOf(err)
	assert.Equal(t, "0", fields["index_id"])
	assert.Equal(t, "index", fields["committed"])

	size, _ := p.index.Size(ctx)
	assert.Equal(t, 1, size, "the index write is not rolled back")
}

func TestIngest_ConcurrentDualWritesStayPaired(t *testing.T) {
	ctx := context.Background()
	p := newPipeline(answering("ok"))

	const n = 25
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := p.ingestor.AddDocument(ctx, rag.AddDocumentCommand{Text: fmt.Sprintf("note %d about the sky", i)})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	require.Len(t, p.docs.docs, n)
	ids := map[int64]bool{}
	for _, doc := range p.docs.docs {
		assert.False(t, ids[doc.IndexID], "index id %d reused", doc.IndexID)
		ids[doc.IndexID] = true
		assert.Equal(t, p.index.texts[doc.IndexID], doc.Text)
	}
}
