// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSpec(t *testing.T) {
	spec, err := generateSpec()
	require.NoError(t, err)
	assert.Contains(t, string(spec), "openapi")
	assert.Contains(t, string(spec), "3.1")
	assert.Contains(t, string(spec), "/api/v1/documents")
	assert.Contains(t, string(spec), "/api/v1/documents/upload")
	assert.Contains(t, string(spec), "/api/v1/chat")
	assert.Contains(t, string(spec), "/api/v1/chat/history")
	assert.Contains(t, string(spec), "/health")
	assert.Contains(t, string(spec), "multipart/form-data")
}

func TestGenerateSpec_ValidJSON(t *testing.T) {
	spec, err := generateSpec()
	require.NoError(t, err)
	assert.Greater(t, len(spec), 100, "spec should be non-trivial")
	assert.Equal(t, byte('{'), spec[0], "spec should be JSON object")
}
