// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package rag_test

import (
	"strings"
	"testing"

	"github.com/sigil-dev/ragd/internal/rag"
	"github.com/stretchr/testify/assert"
)

func TestBuildPrompt_SeparatesContextAndQuestion(t *testing.T) {
	prompt := rag.BuildPrompt("What color is the sky?", []string{"The sky is blue.", "Grass is green."})

	ctxStart := strings.Index(prompt, "=== CONTEXT ===")
	ctxEnd := strings.Index(prompt, "=== END CONTEXT ===")
	qStart := strings.Index(prompt, "=== QUESTION ===")
	qEnd := strings.Index(prompt, "=== END QUESTION ===")

	assert.True(t, ctxStart >= 0 && ctxStart < ctxEnd && ctxEnd < qStart && qStart < qEnd)

	context := prompt[ctxStart:ctxEnd]
	assert.Contains(t, context, "[1] The sky is blue.")
	assert.Contains(t, context, "[2] Grass is green.")
	assert.NotContains(t, context, "What color")

	question := prompt[qStart:qEnd]
	assert.Contains(t, question, "What color is the sky?")
	assert.NotContains(t, question, "blue")
}

func TestBuildPrompt_Deterministic(t *testing.T) {
	a := rag.BuildPrompt("q", []string{"p1", "p2"})
	b := rag.BuildPrompt("q", []string{"p1", "p2"})
	assert.Equal(t, a, b)
}

func TestBuildPrompt_NoPassages(t *testing.T) {
	prompt := rag.BuildPrompt("q", nil)
	assert.Contains(t, prompt, "(no passages)")
	assert.Contains(t, prompt, "=== QUESTION ===\nq\n")
}
