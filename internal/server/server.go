// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sigil-dev/ragd/internal/rag"
	"github.com/sigil-dev/ragd/internal/store"
	ragerr "github.com/sigil-dev/ragd/pkg/errors"
	"github.com/sigil-dev/ragd/pkg/health"
)

// defaultMaxUploadBytes bounds a multipart upload.
const defaultMaxUploadBytes = 32 << 20

// Pipeline is the request surface the HTTP binding forwards to.
type Pipeline interface {
	AddDocument(ctx context.Context, cmd rag.AddDocumentCommand) (*rag.IngestResult, error)
	UploadFile(ctx context.Context, cmd rag.UploadFileCommand) (*rag.IngestResult, error)
	Chat(ctx context.Context, cmd rag.ChatCommand) (*rag.Answer, error)
	ListDocuments(ctx context.Context) ([]rag.DocumentSummary, error)
	ChatHistory(ctx context.Context, q rag.HistoryQuery) ([]*store.ChatRecord, error)
	Status(ctx context.Context) (*health.Report, error)
}

// Config holds HTTP server configuration.
type Config struct {
	ListenAddr     string
	CORSOrigins    []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	RateLimit      RateLimitConfig
	MaxUploadBytes int64
	Version        string
}

// Server wraps a chi router with huma API and HTTP server.
type Server struct {
	router   chi.Router
	api      huma.API
	cfg      Config
	pipeline Pipeline

	done      chan struct{}
	closeOnce sync.Once
}

// New creates a Server with chi router, huma API, health endpoint, CORS and
// rate limiting, and registers the pipeline routes.
func New(cfg Config, pipeline Pipeline) (*Server, error) {
	if cfg.ListenAddr == "" {
		return nil, ragerr.New(ragerr.CodeServerConfigInvalid, "listen address is required")
	}
	if pipeline == nil {
		return nil, ragerr.New(ragerr.CodeServerConfigInvalid, "pipeline is required")
	}
	if err := cfg.RateLimit.Validate(); err != nil {
		return nil, err
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	// Generation can be slow; leave room for it.
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 120 * time.Second
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaultMaxUploadBytes
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}

	done := make(chan struct{})

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	if len(cfg.CORSOrigins) > 0 {
		r.Use(corsMiddleware(cfg.CORSOrigins))
	}
	r.Use(rateLimitMiddleware(cfg.RateLimit, done))

	// Huma API with OpenAPI spec
	humaConfig := huma.DefaultConfig("ragd", cfg.Version)
	humaConfig.Info.Description = "Retrieval-augmented question answering over ingested documents"
	// Plain bodies: no $schema link injected into responses.
	humaConfig.CreateHooks = nil
	api := humachi.New(r, humaConfig)

	// Health endpoint
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Tags:        []string{"system"},
	}, func(_ context.Context, _ *struct{}) (*HealthResponse, error) {
		return &HealthResponse{Body: HealthBody{Status: "ok"}}, nil
	})

	srv := &Server{
		router:   r,
		api:      api,
		cfg:      cfg,
		pipeline: pipeline,
		done:     done,
	}

	srv.registerRoutes()
	srv.registerUploadRoute()

	return srv, nil
}

// Handler returns the underlying http.Handler for testing.
func (s *Server) Handler() http.Handler {
	return s.router
}

// API returns the huma API for registering additional operations.
func (s *Server) API() huma.API {
	return s.api
}

// Start runs the HTTP server and blocks until the context is cancelled,
// then performs graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return ragerr.Wrapf(err, ragerr.CodeServerStartFailure, "listening on %s", s.cfg.ListenAddr)
	}
	return s.Serve(ctx, ln)
}

// Serve is Start on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return ragerr.Wrapf(err, ragerr.CodeServerStartFailure, "serving")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return ragerr.Wrapf(err, ragerr.CodeServerShutdownFailure, "shutting down")
	}

	return <-errCh
}

// Close stops background goroutines. It is safe to call more than once.
func (s *Server) Close() error {
	s.closeOnce.Do(func() { close(s.done) })
	return nil
}

// HealthBody is the JSON body of the health endpoint response.
type HealthBody struct {
	Status string `json:"status" example:"ok" doc:"Health status"`
}

// HealthResponse wraps the health check response.
type HealthResponse struct {
	Body HealthBody
}

func corsMiddleware(origins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	})
}
