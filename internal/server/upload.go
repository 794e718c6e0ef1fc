// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/sigil-dev/ragd/internal/rag"
	ragerr "github.com/sigil-dev/ragd/pkg/errors"
)

const (
	uploadPath      = "/api/v1/documents/upload"
	uploadFormField = "file"
	// uploadMemory is how much of a multipart body is kept in memory before
	// spilling to temp files.
	uploadMemory = 8 << 20
)

// registerUploadRoute mounts the multipart upload handler on the raw chi
// router and describes it in the OpenAPI document by hand.
func (s *Server) registerUploadRoute() {
	s.router.Post(uploadPath, s.handleUpload)

	schema := s.api.OpenAPI().Components.Schemas.Schema(
		reflect.TypeOf(IngestBody{}), true, "IngestBody")
	errSchema := s.api.OpenAPI().Components.Schemas.Schema(
		reflect.TypeOf(huma.ErrorModel{}), true, "ErrorModel")

	s.api.OpenAPI().AddOperation(&huma.Operation{
		OperationID: "upload-document",
		Method:      http.MethodPost,
		Path:        uploadPath,
		Summary:     "Ingest a PDF or CSV file",
		Tags:        []string{"documents"},
		RequestBody: &huma.RequestBody{
			Required: true,
			Content: map[string]*huma.MediaType{
				"multipart/form-data": {
					Schema: &huma.Schema{
						Type:     "object",
						Required: []string{uploadFormField},
						Properties: map[string]*huma.Schema{
							uploadFormField: {Type: "string", Format: "binary", Description: "PDF or CSV document"},
						},
					},
				},
			},
		},
		Responses: map[string]*huma.Response{
			"201": {
				Description: "File ingested",
				Content:     map[string]*huma.MediaType{"application/json": {Schema: schema}},
			},
			"default": {
				Description: "Error",
				Content:     map[string]*huma.MediaType{"application/problem+json": {Schema: errSchema}},
			},
		},
	})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	if err := r.ParseMultipartForm(uploadMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			writeProblem(w, huma.NewError(http.StatusRequestEntityTooLarge, "upload exceeds size limit"))
			return
		}
		writeProblem(w, toHTTPError(ragerr.Wrap(err, ragerr.CodeServerRequestInvalid, "parsing multipart form")))
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			slog.Debug("removing multipart temp files", "error", err)
		}
	}()

	file, header, err := r.FormFile(uploadFormField)
	if err != nil {
		writeProblem(w, toHTTPError(ragerr.New(ragerr.CodeServerRequestInvalid, "no file part")))
		return
	}
	defer file.Close() //nolint:errcheck

	data, err := io.ReadAll(file)
	if err != nil {
		writeProblem(w, toHTTPError(ragerr.Wrap(err, ragerr.CodeServerRequestInvalid, "reading uploaded file")))
		return
	}

	res, err := s.pipeline.UploadFile(r.Context(), rag.UploadFileCommand{
		Filename: header.Filename,
		Data:     data,
	})
	if err != nil {
		writeProblem(w, toHTTPError(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	body := IngestBody{Message: msgFileProcessed, Filename: header.Filename, ID: res.DocumentID, IndexID: res.IndexID}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Warn("failed to write upload response", "error", err)
	}
}
