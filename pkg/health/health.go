// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package health

import "time"

// Metrics is a point-in-time snapshot of an upstream model provider's
// health, safe to serialize to JSON.
type Metrics struct {
	FailureCount        int64      `json:"failure_count"`
	ConsecutiveFailures int64      `json:"consecutive_failures"`
	LastError           string     `json:"last_error,omitempty"`
	LastFailureAt       *time.Time `json:"last_failure_at,omitempty"`
	CooldownUntil       *time.Time `json:"cooldown_until,omitempty"`
	Available           bool       `json:"available"`
}

// Report summarizes pipeline readiness for the status endpoint.
type Report struct {
	Status              string             `json:"status"`
	IndexSize           int64              `json:"index_size"`
	Documents           int64              `json:"documents"`
	Embedding           string             `json:"embedding_model"`
	EmbeddingDimensions int                `json:"embedding_dimensions"`
	Generation          string             `json:"generation_model"`
	Providers           map[string]Metrics `json:"providers"`
	CheckedAt           time.Time          `json:"checked_at"`
}

// Degraded reports whether any provider in the report is unavailable.
func (r Report) Degraded() bool {
	for _, m := range r.Providers {
		if !m.Available {
			return true
		}
	}
	return false
}
