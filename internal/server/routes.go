// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package server

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/sigil-dev/ragd/internal/rag"
	"github.com/sigil-dev/ragd/pkg/health"
)

const (
	msgDocumentAdded = "Document added successfully"
	msgFileProcessed = "File processed successfully"
)

func (s *Server) registerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "add-document",
		Method:        http.MethodPost,
		Path:          "/api/v1/documents",
		Summary:       "Ingest a text document",
		Tags:          []string{"documents"},
		DefaultStatus: http.StatusCreated,
	}, s.handleAddDocument)

	huma.Register(s.api, huma.Operation{
		OperationID: "list-documents",
		Method:      http.MethodGet,
		Path:        "/api/v1/documents",
		Summary:     "List ingested documents",
		Tags:        []string{"documents"},
	}, s.handleListDocuments)

	huma.Register(s.api, huma.Operation{
		OperationID: "chat",
		Method:      http.MethodPost,
		Path:        "/api/v1/chat",
		Summary:     "Answer a question from ingested documents",
		Tags:        []string{"chat"},
	}, s.handleChat)

	huma.Register(s.api, huma.Operation{
		OperationID: "chat-history",
		Method:      http.MethodGet,
		Path:        "/api/v1/chat/history",
		Summary:     "List recent chat exchanges, newest first",
		Tags:        []string{"chat"},
	}, s.handleChatHistory)

	huma.Register(s.api, huma.Operation{
		OperationID: "status",
		Method:      http.MethodGet,
		Path:        "/api/v1/status",
		Summary:     "Pipeline status",
		Tags:        []string{"system"},
	}, s.handleStatus)
}

// --- Request/Response types ---

type addDocumentInput struct {
	Body struct {
		Text  string `json:"text" minLength:"1" doc:"Document text"`
		Title string `json:"title,omitempty" maxLength:"256" doc:"Optional title"`
	}
}

// IngestBody is returned by both ingestion endpoints.
type IngestBody struct {
	Message  string `json:"message"`
	Filename string `json:"filename,omitempty"`
	ID       string `json:"id" doc:"Document store identifier"`
	IndexID  int64  `json:"index_id" doc:"Vector index identifier"`
}

type ingestOutput struct {
	Body IngestBody
}

// DocumentJSON is one row of the document listing.
type DocumentJSON struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Source  string `json:"source"`
	Preview string `json:"preview"`
}

type listDocumentsOutput struct {
	Body struct {
		Documents []DocumentJSON `json:"documents"`
	}
}

type chatInput struct {
	Body struct {
		Query string `json:"query" minLength:"1" doc:"Question to answer"`
	}
}

type chatOutput struct {
	Body struct {
		Response string `json:"response"`
	}
}

type historyInput struct {
	Limit int `query:"limit" minimum:"0" default:"10" doc:"Maximum exchanges to return, capped at 100"`
}

// ChatRecordJSON is one logged exchange.
type ChatRecordJSON struct {
	ID        int64     `json:"id"`
	Query     string    `json:"query"`
	Response  string    `json:"response"`
	CreatedAt time.Time `json:"created_at"`
}

type historyOutput struct {
	Body struct {
		History []ChatRecordJSON `json:"history"`
	}
}

type statusOutput struct {
	Body *health.Report
}

// --- Handlers ---

func (s *Server) handleAddDocument(ctx context.Context, input *addDocumentInput) (*ingestOutput, error) {
	res, err := s.pipeline.AddDocument(ctx, rag.AddDocumentCommand{
		Text:  input.Body.Text,
		Title: input.Body.Title,
	})
	if err != nil {
		return nil, toHTTPError(err)
	}
	out := &ingestOutput{}
	out.Body = IngestBody{Message: msgDocumentAdded, ID: res.DocumentID, IndexID: res.IndexID}
	return out, nil
}

func (s *Server) handleListDocuments(ctx context.Context, _ *struct{}) (*listDocumentsOutput, error) {
	docs, err := s.pipeline.ListDocuments(ctx)
	if err != nil {
		return nil, toHTTPError(err)
	}
	out := &listDocumentsOutput{}
	out.Body.Documents = make([]DocumentJSON, len(docs))
	for i, d := range docs {
		out.Body.Documents[i] = DocumentJSON{ID: d.ID, Title: d.Title, Source: d.Source, Preview: d.Preview}
	}
	return out, nil
}

func (s *Server) handleChat(ctx context.Context, input *chatInput) (*chatOutput, error) {
	answer, err := s.pipeline.Chat(ctx, rag.ChatCommand{Query: input.Body.Query})
	if err != nil {
		return nil, toHTTPError(err)
	}
	out := &chatOutput{}
	out.Body.Response = answer.Response
	return out, nil
}

func (s *Server) handleChatHistory(ctx context.Context, input *historyInput) (*historyOutput, error) {
	records, err := s.pipeline.ChatHistory(ctx, rag.HistoryQuery{Limit: input.Limit})
	if err != nil {
		return nil, toHTTPError(err)
	}
	out := &historyOutput{}
	out.Body.History = make([]ChatRecordJSON, len(records))
	for i, r := range records {
		out.Body.History[i] = ChatRecordJSON{ID: r.ID, Query: r.Query, Response: r.Response, CreatedAt: r.CreatedAt}
	}
	return out, nil
}

func (s *Server) handleStatus(ctx context.Context, _ *struct{}) (*statusOutput, error) {
	report, err := s.pipeline.Status(ctx)
	if err != nil {
		return nil, toHTTPError(err)
	}
	return &statusOutput{Body: report}, nil
}
