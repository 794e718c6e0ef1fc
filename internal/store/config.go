// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package store

import (
	"path/filepath"

	"github.com/sigil-dev/ragd/internal/config"
)

// Config carries everything a backend factory may need. Each backend
// reads only its own fields.
type Config struct {
	DataDir       string
	Dimensions    int
	Metric        Metric
	MongoURI      string
	MongoDatabase string
	PostgresDSN   string
}

// ConfigFrom derives a store Config from the application config.
func ConfigFrom(cfg *config.Config) (Config, error) {
	metric, err := ParseMetric(cfg.Retrieval.Metric)
	if err != nil {
		return Config{}, err
	}

	dataDir := cfg.Storage.DataDir
	if dataDir == "" {
		dataDir = config.DefaultDataDir()
	}

	return Config{
		DataDir:       dataDir,
		Dimensions:    cfg.Models.EmbeddingDimensions,
		Metric:        metric,
		MongoURI:      cfg.Storage.Documents.MongoURI,
		MongoDatabase: cfg.Storage.Documents.MongoDatabase,
		PostgresDSN:   cfg.Storage.History.PostgresDSN,
	}, nil
}

// Path joins name onto the data directory.
func (c Config) Path(name string) string {
	return filepath.Join(c.DataDir, name)
}
