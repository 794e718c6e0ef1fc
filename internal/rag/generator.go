// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package rag

import (
	"context"
	"errors"
	"strings"

	"github.com/sigil-dev/ragd/internal/provider"
	ragerr "github.com/sigil-dev/ragd/pkg/errors"
)

// Generation is a completed model answer.
type Generation struct {
	Text  string
	Usage *provider.Usage
}

// Generator sends one user-role message to a chat provider and collects
// the streamed answer.
type Generator struct {
	provider  provider.Provider
	model     string
	maxTokens int
}

func NewGenerator(p provider.Provider, model string, maxTokens int) *Generator {
	return &Generator{provider: p, model: model, maxTokens: maxTokens}
}

// Model returns the "provider/model" reference.
func (g *Generator) Model() string { return g.provider.Name() + "/" + g.model }

// Generate blocks until the provider finishes. Any stream error discards
// partial output and returns generation.upstream.failure.
func (g *Generator) Generate(ctx context.Context, prompt string) (*Generation, error) {
	events, err := g.provider.Chat(ctx, provider.ChatRequest{
		Model:    g.model,
		Messages: []provider.Message{provider.UserMessage(prompt)},
		Options:  provider.ChatOptions{MaxTokens: g.maxTokens},
	})
	if err != nil {
		return nil, ragerr.Wrapf(err, ragerr.CodeGenerationUpstreamFailure, "%s: starting generation", g.provider.Name())
	}

	var (
		text  strings.Builder
		usage *provider.Usage
		fail  string
	)
	for ev := range events {
		switch ev.Type {
		case provider.EventTypeTextDelta:
			text.WriteString(ev.Text)
		case provider.EventTypeUsage:
			usage = ev.Usage
		case provider.EventTypeError:
			if fail == "" {
				fail = ev.Error
			}
		}
	}

	if fail != "" {
		return nil, ragerr.Wrapf(errors.New(fail), ragerr.CodeGenerationUpstreamFailure, "%s: generation failed", g.provider.Name())
	}
	if err := ctx.Err(); err != nil {
		return nil, ragerr.Wrapf(err, ragerr.CodeGenerationUpstreamFailure, "%s: generation interrupted", g.provider.Name())
	}

	return &Generation{Text: text.String(), Usage: usage}, nil
}
