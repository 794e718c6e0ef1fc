// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package main

import (
	"encoding/json"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ragerr "github.com/sigil-dev/ragd/pkg/errors"
	"github.com/sigil-dev/ragd/pkg/health"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestIngest_Text(t *testing.T) {
	isolate(t)

	var got map[string]string
	addr := fakeServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/documents", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(w, http.StatusCreated, map[string]any{"message": "Document added successfully", "id": "doc-1", "index_id": 4})
	}))

	out, err := run(t, "ingest", "--addr", addr, "--title", "Colors", "The", "sky", "is", "blue.")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"text": "The sky is blue.", "title": "Colors"}, got)
	assert.Contains(t, out, "Document added successfully (id doc-1, index 4)")
}

func TestIngest_File(t *testing.T) {
	isolate(t)

	path := filepath.Join(t.TempDir(), "colors.csv")
	require.NoError(t, os.WriteFile(path, []byte("k,v\nsky,blue\n"), 0o600))

	addr := fakeServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/documents/upload", r.URL.Path)
		file, header, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		defer file.Close() //nolint:errcheck
		data, _ := io.ReadAll(file)
		assert.Equal(t, "colors.csv", header.Filename)
		assert.Equal(t, "k,v\nsky,blue\n", string(data))
		writeJSON(w, http.StatusCreated, map[string]any{
			"message": "File processed successfully", "filename": "colors.csv", "id": "doc-2", "index_id": 5,
		})
	}))

	out, err := run(t, "ingest", "--addr", addr, "--file", path)
	require.NoError(t, err)
	assert.Contains(t, out, "File processed successfully: colors.csv (id doc-2, index 5)")
}

func TestIngest_RequiresInput(t *testing.T) {
	isolate(t)

	_, err := run(t, "ingest", "--addr", "127.0.0.1:1", "   ")
	require.Error(t, err)
	assert.True(t, ragerr.HasCode(err, ragerr.CodeCLIInputInvalid))
}

func TestIngest_TextAndFileConflict(t *testing.T) {
	isolate(t)

	_, err := run(t, "ingest", "--addr", "127.0.0.1:1", "--file", "x.csv", "text")
	require.Error(t, err)
	assert.True(t, ragerr.HasCode(err, ragerr.CodeCLIInputInvalid))
}

func TestChat_PrintsResponse(t *testing.T) {
	isolate(t)

	addr := fakeServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "What color is the sky?", body["query"])
		writeJSON(w, http.StatusOK, map[string]string{"response": "Blue."})
	}))

	out, err := run(t, "chat", "--addr", addr, "What color is the sky?")
	require.NoError(t, err)
	assert.Equal(t, "Blue.\n", out)
}

func TestChat_ServerProblemIsReported(t *testing.T) {
	isolate(t)

	addr := fakeServer(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/problem+json")
		w.WriteHeader(http.StatusBadGateway)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": 502,
			"detail": "generating answer: connection reset",
			"errors": []map[string]any{{"location": "code", "value": "generation.upstream.failure"}},
		})
	}))

	_, err := run(t, "chat", "--addr", addr, "hello")
	require.Error(t, err)
	assert.True(t, ragerr.HasCode(err, ragerr.CodeCLIRequestFailure))
	assert.Contains(t, err.Error(), "502")
	assert.Contains(t, err.Error(), "generating answer")
	assert.Equal(t, "generation.upstream.failure", ragerr.FieldsOf(err)["server_code"])
}

func TestChat_RequiresQuestion(t *testing.T) {
	isolate(t)

	_, err := run(t, "chat")
	require.Error(t, err)
}

func TestHistory(t *testing.T) {
	isolate(t)

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	addr := fakeServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/chat/history", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("limit"))
		writeJSON(w, http.StatusOK, map[string]any{"history": []map[string]any{
			{"id": 2, "query": "q2", "response": "r2", "created_at": at},
			{"id": 1, "query": "q1", "response": "r1", "created_at": at},
		}})
	}))

	out, err := run(t, "history", "--addr", addr, "--limit", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "#2")
	assert.Contains(t, out, "Q: q2\nA: r2")
	assert.Less(t, strings.Index(out, "#2"), strings.Index(out, "#1"), "newest first")
}

func TestHistory_Empty(t *testing.T) {
	isolate(t)

	addr := fakeServer(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"history": []any{}})
	}))

	out, err := run(t, "history", "--addr", addr)
	require.NoError(t, err)
	assert.Contains(t, out, "No chat history.")
}

func TestDocuments(t *testing.T) {
	isolate(t)

	addr := fakeServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/documents", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]any{"documents": []map[string]string{
			{"id": "a", "title": "Colors", "source": "manual_input", "preview": "The sky is blue."},
		}})
	}))

	out, err := run(t, "documents", "--addr", addr)
	require.NoError(t, err)
	assert.Contains(t, out, "a  [manual_input] Colors")
	assert.Contains(t, out, "The sky is blue.")
}

func TestStatus(t *testing.T) {
	isolate(t)

	addr := fakeServer(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, health.Report{
			Status:              "degraded",
			IndexSize:           12,
			Documents:           12,
			Embedding:           "openai/text-embedding-3-small",
			EmbeddingDimensions: 1536,
			Generation:          "deepseek/deepseek-chat",
			Providers: map[string]health.Metrics{
				"openai":   {Available: true},
				"deepseek": {Available: false, FailureCount: 2, LastError: "429 rate limited"},
			},
		})
	}))

	out, err := run(t, "status", "--addr", addr)
	require.NoError(t, err)
	assert.Contains(t, out, "Status:     degraded")
	assert.Contains(t, out, "Index:      12 vectors")
	assert.Contains(t, out, "Embedding:  openai/text-embedding-3-small (1536 dims)")
	assert.Contains(t, out, "Provider:   deepseek cooling down (2 failures): 429 rate limited")
	assert.Contains(t, out, "Provider:   openai available")
}

func TestStatus_ServerNotRunning(t *testing.T) {
	isolate(t)

	out, err := run(t, "status", "--addr", closedAddr(t))
	require.NoError(t, err)
	assert.Contains(t, out, "not running")
}

func TestClientFor_WildcardListenDialsLoopback(t *testing.T) {
	isolate(t)
	t.Setenv("RAGD_NETWORKING_LISTEN", "0.0.0.0:7000")

	_, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:7000", clientFor(newChatCmd()).baseURL)
}

// closedAddr returns an address nothing listens on.
func closedAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return addr
}
