// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package rag

import (
	"context"
	"log/slog"

	"github.com/sigil-dev/ragd/internal/provider"
	"github.com/sigil-dev/ragd/internal/store"
	ragerr "github.com/sigil-dev/ragd/pkg/errors"
)

// State is a step of a single chat exchange.
type State int

const (
	StateReceived State = iota
	StateRetrieving
	StatePrompting
	StateGenerating
	StateLogged
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateReceived:
		return "received"
	case StateRetrieving:
		return "retrieving"
	case StatePrompting:
		return "prompting"
	case StateGenerating:
		return "generating"
	case StateLogged:
		return "logged"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Answer is the result of a completed exchange.
type Answer struct {
	Response string
	Passages []string
	CacheHit bool
	RecordID int64
	Usage    *provider.Usage
}

// OrchestratorConfig holds dependencies for the ChatOrchestrator.
type OrchestratorConfig struct {
	Retriever *Retriever
	Generator *Generator
	History   store.HistoryLog
	// OnState, when set, observes every state transition.
	OnState func(State)
}

// ChatOrchestrator runs Received → Retrieving → Prompting → Generating →
// Logged. A failure in any stage ends the exchange in Failed and nothing
// is written to the history log.
type ChatOrchestrator struct {
	retriever *Retriever
	generator *Generator
	history   store.HistoryLog
	onState   func(State)
}

func NewChatOrchestrator(cfg OrchestratorConfig) *ChatOrchestrator {
	return &ChatOrchestrator{
		retriever: cfg.Retriever,
		generator: cfg.Generator,
		history:   cfg.History,
		onState:   cfg.OnState,
	}
}

func (o *ChatOrchestrator) enter(s State) {
	if o.onState != nil {
		o.onState(s)
	}
}

func (o *ChatOrchestrator) fail(err error, stage string) error {
	o.enter(StateFailed)
	slog.Error("chat exchange failed", "stage", stage, "code", ragerr.CodeOf(err), "error", err)
	return err
}

// Answer runs one exchange for cmd.Query.
func (o *ChatOrchestrator) Answer(ctx context.Context, cmd ChatCommand) (*Answer, error) {
	o.enter(StateReceived)
	if err := Validate(cmd); err != nil {
		return nil, o.fail(err, "received")
	}

	o.enter(StateRetrieving)
	retrieval, err := o.retriever.Retrieve(ctx, cmd.Query)
	if err != nil {
		return nil, o.fail(err, "retrieving")
	}

	o.enter(StatePrompting)
	prompt := BuildPrompt(cmd.Query, retrieval.Passages)

	o.enter(StateGenerating)
	gen, err := o.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, o.fail(err, "generating")
	}

	rec, err := o.history.Append(ctx, cmd.Query, gen.Text)
	if err != nil {
		return nil, o.fail(ragerr.Wrapf(err, ragerr.CodeHistoryAppendFailure, "recording exchange"), "logging")
	}
	o.enter(StateLogged)

	attrs := []any{
		"record_id", rec.ID,
		"cache_hit", retrieval.CacheHit,
		"passages", len(retrieval.Passages),
	}
	if gen.Usage != nil {
		attrs = append(attrs, "input_tokens", gen.Usage.InputTokens, "output_tokens", gen.Usage.OutputTokens)
	}
	slog.Info("chat answered", attrs...)

	return &Answer{
		Response: gen.Text,
		Passages: retrieval.Passages,
		CacheHit: retrieval.CacheHit,
		RecordID: rec.ID,
		Usage:    gen.Usage,
	}, nil
}
