// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sigil-dev/ragd/internal/rag"
	"github.com/sigil-dev/ragd/internal/server"
	"github.com/sigil-dev/ragd/internal/store"
	ragerr "github.com/sigil-dev/ragd/pkg/errors"
	"github.com/sigil-dev/ragd/pkg/health"
)

func main() {
	spec, err := generateSpec()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	outPath := "api/openapi/spec.json"
	if len(os.Args) > 1 {
		outPath = os.Args[1]
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "error creating output dir: %v\n", err)
		os.Exit(1)
	}

	if err := os.WriteFile(outPath, spec, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "error writing spec: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("OpenAPI spec written to %s\n", outPath)
}

// generateSpec builds a server over a no-op pipeline and returns the
// OpenAPI document huma derives from the route types.
func generateSpec() ([]byte, error) {
	srv, err := server.New(server.Config{ListenAddr: "127.0.0.1:0"}, stubPipeline{})
	if err != nil {
		return nil, ragerr.Errorf(ragerr.CodeCLISetupFailure, "creating server: %w", err)
	}
	defer srv.Close() //nolint:errcheck

	return json.MarshalIndent(srv.API().OpenAPI(), "", "  ")
}

// stubPipeline is never invoked during spec generation.
type stubPipeline struct{}

func (stubPipeline) AddDocument(context.Context, rag.AddDocumentCommand) (*rag.IngestResult, error) {
	return nil, nil
}

func (stubPipeline) UploadFile(context.Context, rag.UploadFileCommand) (*rag.IngestResult, error) {
	return nil, nil
}

func (stubPipeline) Chat(context.Context, rag.ChatCommand) (*rag.Answer, error) { return nil, nil }

func (stubPipeline) ListDocuments(context.Context) ([]rag.DocumentSummary, error) { return nil, nil }

func (stubPipeline) ChatHistory(context.Context, rag.HistoryQuery) ([]*store.ChatRecord, error) {
	return nil, nil
}

func (stubPipeline) Status(context.Context) (*health.Report, error) { return nil, nil }
