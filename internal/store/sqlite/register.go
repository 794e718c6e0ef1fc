// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package sqlite

import (
	"context"
	"fmt"
	"os"

	"github.com/sigil-dev/ragd/internal/store"
)

func init() {
	store.RegisterIndexBackend("sqlite", newIndex)
	store.RegisterDocumentBackend("sqlite", newDocuments)
	store.RegisterHistoryBackend("sqlite", newHistory)
}

func ensureDataDir(cfg store.Config) error {
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return fmt.Errorf("creating data dir %s: %w", cfg.DataDir, err)
	}
	return nil
}

func newIndex(_ context.Context, cfg store.Config) (store.VectorIndex, error) {
	if err := ensureDataDir(cfg); err != nil {
		return nil, err
	}
	idx, err := NewVectorIndex(cfg.Path("index.db"), cfg.Dimensions, cfg.Metric)
	if err != nil {
		return nil, fmt.Errorf("creating vector index: %w", err)
	}
	return idx, nil
}

func newDocuments(_ context.Context, cfg store.Config) (store.DocumentStore, error) {
	if err := ensureDataDir(cfg); err != nil {
		return nil, err
	}
	ds, err := NewDocumentStore(cfg.Path("documents.db"))
	if err != nil {
		return nil, fmt.Errorf("creating document store: %w", err)
	}
	return ds, nil
}

func newHistory(_ context.Context, cfg store.Config) (store.HistoryLog, error) {
	if err := ensureDataDir(cfg); err != nil {
		return nil, err
	}
	hl, err := NewHistoryLog(cfg.Path("history.db"))
	if err != nil {
		return nil, fmt.Errorf("creating history log: %w", err)
	}
	return hl, nil
}
