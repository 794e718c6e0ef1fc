// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package store

import (
	"time"

	ragerr "github.com/sigil-dev/ragd/pkg/errors"
)

// Document is an ingested text together with its embedding.
type Document struct {
	ID        string
	IndexID   int64
	Title     string
	Source    string
	Text      string
	Vector    []float32
	CreatedAt time.Time
}

// ChatRecord is one completed question/answer exchange.
type ChatRecord struct {
	ID        int64
	Query     string
	Response  string
	CreatedAt time.Time
}

// ListOpts pages through a listing. A zero Limit means no limit.
type ListOpts struct {
	Limit  int
	Offset int
}

// Metric is the distance function used by a VectorIndex.
type Metric string

const (
	MetricCosine Metric = "cosine"
	MetricL2     Metric = "l2"
)

// Valid reports whether m is a supported metric.
func (m Metric) Valid() bool {
	return m == MetricCosine || m == MetricL2
}

// ParseMetric converts a config value into a Metric. The empty string
// selects cosine.
func ParseMetric(s string) (Metric, error) {
	if s == "" {
		return MetricCosine, nil
	}
	m := Metric(s)
	if !m.Valid() {
		return "", ragerr.Errorf(ragerr.CodeStoreInvalidInput, "unsupported distance metric %q", s)
	}
	return m, nil
}
