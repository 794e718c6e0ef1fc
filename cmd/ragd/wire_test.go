// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sigil-dev/ragd/internal/config"
	ragerr "github.com/sigil-dev/ragd/pkg/errors"
	"github.com/sigil-dev/ragd/pkg/health"
)

func wireConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Networking: config.NetworkingConfig{Listen: "127.0.0.1:0"},
		Providers: map[string]config.ProviderConfig{
			"openai":   {APIKey: "sk-test"},
			"deepseek": {APIKey: "ds-test"},
		},
		Models: config.ModelsConfig{
			Embedding:           "openai/text-embedding-3-small",
			EmbeddingDimensions: 8,
			Generation:          "deepseek/deepseek-chat",
			MaxTokens:           256,
		},
		Retrieval: config.RetrievalConfig{TopK: 3, CacheTTL: time.Hour, Metric: "cosine"},
		Storage: config.StorageConfig{
			DataDir:   t.TempDir(),
			Index:     config.BackendConfig{Backend: "sqlite"},
			Documents: config.DocumentsConfig{Backend: "sqlite"},
			History:   config.HistoryLogConfig{Backend: "sqlite"},
		},
		Cache: config.CacheConfig{Backend: "memory"},
	}
}

func TestWire_BuildsServingApp(t *testing.T) {
	app, err := Wire(context.Background(), wireConfig(t))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, app.Close()) })

	require.NotNil(t, app.Server)
	require.NotNil(t, app.Service)
	assert.Equal(t, []string{"deepseek", "openai"}, app.Providers.Names())

	w := httptest.NewRecorder()
	app.Server.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var report health.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, "ok", report.Status)
	assert.Equal(t, int64(0), report.IndexSize)
	assert.Equal(t, "deepseek/deepseek-chat", report.Generation)
	assert.Equal(t, "openai/text-embedding-3-small", report.Embedding)
	assert.Equal(t, 8, report.EmbeddingDimensions)
	assert.Contains(t, report.Providers, "openai")
}

func TestWire_MemoryIndex(t *testing.T) {
	cfg := wireConfig(t)
	cfg.Storage.Index.Backend = "memory"

	app, err := Wire(context.Background(), cfg)
	require.NoError(t, err)
	assert.NoError(t, app.Close())
}

func TestWire_MissingEmbeddingProvider(t *testing.T) {
	cfg := wireConfig(t)
	delete(cfg.Providers, "openai")

	_, err := Wire(context.Background(), cfg)
	require.Error(t, err)
	assert.True(t, ragerr.HasCode(err, ragerr.CodeProviderNotFound))
}

func TestWire_MissingGenerationProvider(t *testing.T) {
	cfg := wireConfig(t)
	delete(cfg.Providers, "deepseek")

	_, err := Wire(context.Background(), cfg)
	require.Error(t, err)
	assert.True(t, ragerr.HasCode(err, ragerr.CodeProviderNotFound))
}

func TestWire_UnreachableRedisFails(t *testing.T) {
	cfg := wireConfig(t)
	cfg.Cache = config.CacheConfig{Backend: "redis", RedisAddr: closedAddr(t)}

	_, err := Wire(context.Background(), cfg)
	require.Error(t, err)
	assert.True(t, ragerr.HasCode(err, ragerr.CodeCacheFailure))
}

func TestAppClose_Idempotent(t *testing.T) {
	app, err := Wire(context.Background(), wireConfig(t))
	require.NoError(t, err)
	assert.NoError(t, app.Close())
	assert.NoError(t, app.Close())
}
