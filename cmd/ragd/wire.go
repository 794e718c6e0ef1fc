// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package main

import (
	"context"
	"io"
	"log/slog"
	"slices"

	"github.com/sigil-dev/ragd/internal/cache"
	"github.com/sigil-dev/ragd/internal/config"
	"github.com/sigil-dev/ragd/internal/extract"
	"github.com/sigil-dev/ragd/internal/provider"
	anthropicprov "github.com/sigil-dev/ragd/internal/provider/anthropic"
	googleprov "github.com/sigil-dev/ragd/internal/provider/google"
	openaiprov "github.com/sigil-dev/ragd/internal/provider/openai"
	"github.com/sigil-dev/ragd/internal/rag"
	"github.com/sigil-dev/ragd/internal/server"
	"github.com/sigil-dev/ragd/internal/store"
	_ "github.com/sigil-dev/ragd/internal/store/memory"   // register memory index backend
	_ "github.com/sigil-dev/ragd/internal/store/mongo"    // register mongo document backend
	_ "github.com/sigil-dev/ragd/internal/store/postgres" // register postgres history backend
	_ "github.com/sigil-dev/ragd/internal/store/sqlite"   // register sqlite backends
	ragerr "github.com/sigil-dev/ragd/pkg/errors"
)

// App holds all wired subsystems and manages their lifecycle.
type App struct {
	Server    *server.Server
	Service   *rag.Service
	Providers *provider.Registry

	closers []io.Closer
}

// Close releases every subsystem in reverse order of creation.
func (a *App) Close() error {
	var errs []error
	for _, c := range slices.Backward(a.closers) {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	if len(errs) > 0 {
		return ragerr.Join(errs...)
	}
	return nil
}

// Wire creates all subsystems and wires them together.
func Wire(ctx context.Context, cfg *config.Config) (app *App, err error) {
	app = &App{}
	defer func() {
		if err != nil {
			_ = app.Close()
			app = nil
		}
	}()

	// 1. Providers.
	reg := provider.NewRegistry()
	if err := registerProviders(cfg, reg); err != nil {
		return nil, err
	}
	app.Providers = reg
	app.closers = append(app.closers, reg)

	embedder, err := reg.Embedder(cfg.Models.Embedding, cfg.Models.EmbeddingDimensions)
	if err != nil {
		return nil, ragerr.Wrapf(err, ragerr.CodeCLISetupFailure, "resolving embedding model %s", cfg.Models.Embedding)
	}

	genName, genModel, err := provider.ParseRef(cfg.Models.Generation)
	if err != nil {
		return nil, err
	}
	genProvider, err := reg.Get(genName)
	if err != nil {
		return nil, ragerr.Wrapf(err, ragerr.CodeCLISetupFailure, "resolving generation model %s", cfg.Models.Generation)
	}

	// 2. Storage.
	storeCfg, err := store.ConfigFrom(cfg)
	if err != nil {
		return nil, err
	}

	index, err := store.NewVectorIndex(ctx, cfg.Storage.Index.Backend, storeCfg)
	if err != nil {
		return nil, ragerr.Wrapf(err, ragerr.CodeCLISetupFailure, "opening vector index")
	}
	app.closers = append(app.closers, index)

	documents, err := store.NewDocumentStore(ctx, cfg.Storage.Documents.Backend, storeCfg)
	if err != nil {
		return nil, ragerr.Wrapf(err, ragerr.CodeCLISetupFailure, "opening document store")
	}
	app.closers = append(app.closers, documents)

	history, err := store.NewHistoryLog(ctx, cfg.Storage.History.Backend, storeCfg)
	if err != nil {
		return nil, ragerr.Wrapf(err, ragerr.CodeCLISetupFailure, "opening history log")
	}
	app.closers = append(app.closers, history)

	// 3. Retrieval cache.
	retrievalCache, err := cache.New(ctx, cfg.Cache)
	if err != nil {
		return nil, ragerr.Wrapf(err, ragerr.CodeCLISetupFailure, "opening retrieval cache")
	}
	app.closers = append(app.closers, retrievalCache)

	// 4. Pipeline.
	ingestor := rag.NewIngestor(rag.IngestorConfig{
		Extractor: extract.New(extract.WithTextUploads(cfg.Ingest.AllowTextUpload)),
		Embedder:  embedder,
		Index:     index,
		Documents: documents,
	})
	retriever := rag.NewRetriever(rag.RetrieverConfig{
		Embedder: embedder,
		Index:    index,
		Cache:    retrievalCache,
		TopK:     cfg.Retrieval.TopK,
		TTL:      cfg.Retrieval.CacheTTL,
	})
	generator := rag.NewGenerator(genProvider, genModel, cfg.Models.MaxTokens)
	orchestrator := rag.NewChatOrchestrator(rag.OrchestratorConfig{
		Retriever: retriever,
		Generator: generator,
		History:   history,
		OnState: func(s rag.State) {
			slog.Debug("chat state", "state", s.String())
		},
	})
	app.Service = rag.NewService(rag.ServiceConfig{
		Ingestor:     ingestor,
		Orchestrator: orchestrator,
		Index:        index,
		Documents:    documents,
		History:      history,
		Providers:    reg,
		Embedding:    embedder,
		Generator:    generator,
	})

	// 5. HTTP server.
	srv, err := server.New(server.Config{
		ListenAddr:  cfg.Networking.Listen,
		CORSOrigins: cfg.Networking.CORSOrigins,
		RateLimit: server.RateLimitConfig{
			RequestsPerSecond: cfg.Networking.RateLimitRPS,
			Burst:             cfg.Networking.RateLimitBurst,
		},
		Version: version,
	}, app.Service)
	if err != nil {
		return nil, err
	}
	app.Server = srv
	app.closers = append(app.closers, srv)

	return app, nil
}

// registerProviders constructs every provider that has an API key.
// Providers without credentials are skipped; Wire fails later if the
// configured models need them.
func registerProviders(cfg *config.Config, reg *provider.Registry) error {
	for _, name := range config.KnownProviders {
		pc := cfg.Provider(name)
		if pc.APIKey == "" {
			slog.Debug("skipping provider without api key", "provider", name)
			continue
		}

		var (
			p   provider.Provider
			err error
		)
		switch name {
		case "openai":
			p, err = openaiprov.New(openaiprov.Config{APIKey: pc.APIKey, BaseURL: pc.Endpoint})
		case "deepseek":
			p, err = openaiprov.NewDeepSeek(pc.APIKey, pc.Endpoint)
		case "anthropic":
			p, err = anthropicprov.New(anthropicprov.Config{APIKey: pc.APIKey, BaseURL: pc.Endpoint})
		case "google":
			p, err = googleprov.New(googleprov.Config{APIKey: pc.APIKey, BaseURL: pc.Endpoint})
		default:
			continue
		}
		if err != nil {
			return ragerr.Wrapf(err, ragerr.CodeCLISetupFailure, "creating %s provider", name)
		}
		reg.Register(name, p)
		slog.Debug("registered provider", "provider", name)
	}
	return nil
}
