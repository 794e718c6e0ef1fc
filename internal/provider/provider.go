// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package provider

import (
	"context"

	"github.com/sigil-dev/ragd/pkg/health"
)

// Provider is a chat completion backend. Chat streams its answer as
// ChatEvents on the returned channel, which is closed after a done or
// error event.
type Provider interface {
	Name() string
	Available(ctx context.Context) bool
	Chat(ctx context.Context, req ChatRequest) (<-chan ChatEvent, error)
	Close() error
}

// EmbeddingProvider is a backend that maps text to vectors.
type EmbeddingProvider interface {
	Name() string
	Embed(ctx context.Context, req EmbedRequest) ([][]float32, error)
}

// HealthReporter is implemented by providers that track upstream health.
type HealthReporter interface {
	HealthMetrics() health.Metrics
}

// ChatRequest represents a request to the LLM.
type ChatRequest struct {
	Model        string
	Messages     []Message
	SystemPrompt string
	Options      ChatOptions
}

// ChatOptions contains model configuration.
type ChatOptions struct {
	Temperature *float32
	MaxTokens   int
}

// Message represents a conversation message.
type Message struct {
	Role    MessageRole
	Content string
}

// MessageRole defines the role of a message sender.
type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
	MessageRoleSystem    MessageRole = "system"
)

// UserMessage returns a single user-role message.
func UserMessage(content string) Message {
	return Message{Role: MessageRoleUser, Content: content}
}

// ChatEvent is a streaming response event.
type ChatEvent struct {
	Type  EventType
	Text  string
	Usage *Usage
	Error string
}

// EventType defines the type of chat event.
type EventType string

const (
	EventTypeTextDelta EventType = "text_delta"
	EventTypeUsage     EventType = "usage"
	EventTypeDone      EventType = "done"
	EventTypeError     EventType = "error"
)

// Usage tracks token consumption.
type Usage struct {
	InputTokens     int
	OutputTokens    int
	CacheReadTokens int
}

// EmbedRequest asks for one vector per input text. Dimensions is a hint
// for models that support shortened embeddings; zero keeps the model default.
type EmbedRequest struct {
	Model      string
	Input      []string
	Dimensions int
}
