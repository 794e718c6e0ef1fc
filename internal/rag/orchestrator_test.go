// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package rag_test

import (
	"context"
	"errors"
	"testing"

	"github.com/sigil-dev/ragd/internal/provider"
	"github.com/sigil-dev/ragd/internal/rag"
	ragerr "github.com/sigil-dev/ragd/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnswer_CompletesAndLogs(t *testing.T) {
	ctx := context.Background()
	p := newPipeline(answering("Blue."))
	_, err := p.ingestor.AddDocument(ctx, rag.AddDocumentCommand{Text: "The sky is blue."})
	require.NoError(t, err)

	ans, err := p.orch.Answer(ctx, rag.ChatCommand{Query: "What color is the sky?"})
	require.NoError(t, err)
	assert.Equal(t, "Blue.", ans.Response)
	assert.Equal(t, []string{"The sky is blue."}, ans.Passages)
	assert.Equal(t, int64(1), ans.RecordID)
	assert.Equal(t, 42, ans.Usage.InputTokens)

	assert.Equal(t, []rag.State{
		rag.StateReceived, rag.StateRetrieving, rag.StatePrompting, rag.StateGenerating, rag.StateLogged,
	}, p.states)

	require.Equal(t, 1, p.history.Len())
	assert.Equal(t, "What color is the sky?", p.history.records[0].Query)
	assert.Equal(t, "Blue.", p.history.records[0].Response)

	sent := p.llm.lastReq.Messages[0].Content
	assert.Contains(t, sent, "The sky is blue.")
	assert.Contains(t, sent, "What color is the sky?")
}

func TestAnswer_GenerationFailureLeavesHistoryUnchanged(t *testing.T) {
	ctx := context.Background()
	p := newPipeline(&scriptedProvider{events: []provider.ChatEvent{
		{Type: provider.EventTypeError, Error: "upstream 500"},
	}})
	_, _ = p.history.Append(ctx, "earlier", "answer")
	before := p.history.Len()

	_, err := p.orch.Answer(ctx, rag.ChatCommand{Query: "What color is the sky?"})
	require.Error(t, err)
	assert.True(t, ragerr.HasCode(err, ragerr.CodeGenerationUpstreamFailure))
	assert.Equal(t, before, p.history.Len())
	assert.Equal(t, rag.StateFailed, p.states[len(p.states)-1])
	assert.NotContains(t, p.states, rag.StateLogged)
}

func TestAnswer_RetrievalFailureSkipsGeneration(t *testing.T) {
	p := newPipeline(answering("never"))
	p.embedder.err = errors.New("embeddings down")

	_, err := p.orch.Answer(context.Background(), rag.ChatCommand{Query: "sky?"})
	require.Error(t, err)
	assert.True(t, ragerr.HasCode(err, ragerr.CodeEmbeddingUpstreamFailure))
	assert.Equal(t, []rag.State{rag.StateReceived, rag.StateRetrieving, rag.StateFailed}, p.states)
	assert.Zero(t, p.history.Len())
	assert.Empty(t, p.llm.lastReq.Messages, "generator was not called")
}

func TestAnswer_HistoryFailure(t *testing.T) {
	p := newPipeline(answering("Blue."))
	p.history.err = errors.New("db locked")

	_, err := p.orch.Answer(context.Background(), rag.ChatCommand{Query: "sky?"})
	require.Error(t, err)
	assert.True(t, ragerr.HasCode(err, ragerr.CodeHistoryAppendFailure))
	assert.Equal(t, rag.StateFailed, p.states[len(p.states)-1])
}

func TestAnswer_RejectsBlankQuery(t *testing.T) {
	p := newPipeline(answering("x"))

	_, err := p.orch.Answer(context.Background(), rag.ChatCommand{Query: "  "})
	require.Error(t, err)
	assert.True(t, ragerr.HasCode(err, ragerr.CodeRAGCommandInvalid))
	assert.Equal(t, 400, ragerr.HTTPStatus(err))
	assert.Zero(t, p.embedder.calls.Load())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "generating", rag.StateGenerating.String())
	assert.Equal(t, "failed", rag.StateFailed.String())
	assert.Equal(t, "unknown", rag.State(99).String())
}
