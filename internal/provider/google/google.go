// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package google

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/sigil-dev/ragd/internal/provider"
	ragerr "github.com/sigil-dev/ragd/pkg/errors"
	"github.com/sigil-dev/ragd/pkg/health"
)

// Config holds Google provider configuration.
type Config struct {
	APIKey  string
	BaseURL string
}

// Provider implements provider.Provider and provider.EmbeddingProvider
// using the Gemini API.
type Provider struct {
	client *genai.Client
	health *provider.HealthTracker
}

// New creates a new Google provider. Returns an error if the API key is missing.
func New(cfg Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, ragerr.New(ragerr.CodeProviderRequestInvalid, "google: missing api_key in config", ragerr.FieldProvider("google"))
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(context.Background(), clientCfg)
	if err != nil {
		return nil, ragerr.Wrapf(err, ragerr.CodeProviderUpstreamFailure, "google: creating client")
	}

	h, err := provider.NewHealthTracker(provider.DefaultHealthCooldown)
	if err != nil {
		return nil, ragerr.Wrapf(err, ragerr.CodeProviderRequestInvalid, "google: creating health tracker")
	}

	return &Provider{client: client, health: h}, nil
}

func (p *Provider) Name() string { return "google" }

func (p *Provider) Available(_ context.Context) bool {
	return p.health.IsHealthy()
}

func (p *Provider) HealthMetrics() health.Metrics { return p.health.HealthMetrics() }

func (p *Provider) Close() error { return nil }

func (p *Provider) Chat(ctx context.Context, req provider.ChatRequest) (<-chan provider.ChatEvent, error) {
	contents, err := convertMessages(req.Messages)
	if err != nil {
		return nil, err
	}
	cfg := buildConfig(req)

	eventCh := make(chan provider.ChatEvent, 100)

	go func() {
		defer close(eventCh)
		p.streamChat(ctx, req.Model, contents, cfg, eventCh)
	}()

	return eventCh, nil
}

// Embed returns one vector per input via the batch embeddings endpoint.
func (p *Provider) Embed(ctx context.Context, req provider.EmbedRequest) ([][]float32, error) {
	contents := make([]*genai.Content, 0, len(req.Input))
	for _, text := range req.Input {
		contents = append(contents, genai.NewContentFromText(text, genai.RoleUser))
	}

	resp, err := p.client.Models.EmbedContent(ctx, req.Model, contents, embedConfig(req))
	if err != nil {
		p.health.RecordFailure(err)
		return nil, err
	}
	p.health.RecordSuccess()

	if len(resp.Embeddings) != len(req.Input) {
		return nil, fmt.Errorf("google: expected %d embeddings, got %d", len(req.Input), len(resp.Embeddings))
	}

	out := make([][]float32, len(resp.Embeddings))
	for i, e := range resp.Embeddings {
		if e != nil {
			out[i] = e.Values
		}
	}
	return out, nil
}

func embedConfig(req provider.EmbedRequest) *genai.EmbedContentConfig {
	cfg := &genai.EmbedContentConfig{TaskType: "RETRIEVAL_DOCUMENT"}
	if req.Dimensions > 0 {
		cfg.OutputDimensionality = genai.Ptr(int32(req.Dimensions))
	}
	return cfg
}

// buildConfig converts a provider.ChatRequest into a genai.GenerateContentConfig.
func buildConfig(req provider.ChatRequest) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}

	if req.Options.Temperature != nil {
		cfg.Temperature = genai.Ptr(*req.Options.Temperature)
	}
	if req.Options.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.Options.MaxTokens)
	}

	var system []string
	if req.SystemPrompt != "" {
		system = append(system, req.SystemPrompt)
	}
	for _, msg := range req.Messages {
		if msg.Role == provider.MessageRoleSystem {
			system = append(system, msg.Content)
		}
	}
	if len(system) > 0 {
		parts := make([]*genai.Part, 0, len(system))
		for _, s := range system {
			parts = append(parts, &genai.Part{Text: s})
		}
		cfg.SystemInstruction = &genai.Content{Parts: parts}
	}

	return cfg
}

// convertMessages maps messages onto genai contents. Gemini calls the
// assistant role "model"; system messages go to SystemInstruction.
func convertMessages(msgs []provider.Message) ([]*genai.Content, error) {
	var result []*genai.Content

	for _, msg := range msgs {
		switch msg.Role {
		case provider.MessageRoleUser:
			result = append(result, &genai.Content{Role: genai.RoleUser, Parts: []*genai.Part{{Text: msg.Content}}})
		case provider.MessageRoleAssistant:
			result = append(result, &genai.Content{Role: genai.RoleModel, Parts: []*genai.Part{{Text: msg.Content}}})
		case provider.MessageRoleSystem:
			continue
		default:
			return nil, ragerr.Errorf(ragerr.CodeProviderRequestInvalid, "google: unsupported message role %q", msg.Role)
		}
	}

	return result, nil
}

// streamChat converts SDK stream responses into provider.ChatEvent values.
func (p *Provider) streamChat(
	ctx context.Context,
	model string,
	contents []*genai.Content,
	config *genai.GenerateContentConfig,
	ch chan<- provider.ChatEvent,
) {
	for result, err := range p.client.Models.GenerateContentStream(ctx, model, contents, config) {
		if err != nil {
			p.health.RecordFailure(err)
			ch <- provider.ChatEvent{Type: provider.EventTypeError, Error: err.Error()}
			return
		}

		for _, candidate := range result.Candidates {
			if candidate.Content == nil {
				continue
			}
			for _, part := range candidate.Content.Parts {
				if part.Text != "" {
					ch <- provider.ChatEvent{Type: provider.EventTypeTextDelta, Text: part.Text}
				}
			}
		}

		if result.UsageMetadata != nil {
			ch <- provider.ChatEvent{
				Type: provider.EventTypeUsage,
				Usage: &provider.Usage{
					InputTokens:     int(result.UsageMetadata.PromptTokenCount),
					OutputTokens:    int(result.UsageMetadata.CandidatesTokenCount),
					CacheReadTokens: int(result.UsageMetadata.CachedContentTokenCount),
				},
			}
		}
	}

	p.health.RecordSuccess()
	ch <- provider.ChatEvent{Type: provider.EventTypeDone}
}
