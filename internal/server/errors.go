// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	ragerr "github.com/sigil-dev/ragd/pkg/errors"
)

// toHTTPError maps a coded error onto an RFC 9457 problem. The machine
// code travels as the first error detail with location "code".
func toHTTPError(err error) huma.StatusError {
	status := ragerr.HTTPStatus(err)
	code := ragerr.CodeOf(err)
	if code == "" {
		code = ragerr.CodeServerInternalFailure
	}

	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "code", code, "status", status, "error", err)
	}

	details := []error{&huma.ErrorDetail{Location: "code", Value: string(code)}}
	for k, v := range ragerr.FieldsOf(err) {
		details = append(details, &huma.ErrorDetail{Location: "field." + k, Value: v})
	}

	return huma.NewError(status, err.Error(), details...)
}

// writeProblem renders a huma StatusError on a raw chi handler.
func writeProblem(w http.ResponseWriter, se huma.StatusError) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(se.GetStatus())
	if err := json.NewEncoder(w).Encode(se); err != nil {
		slog.Warn("failed to write error response", "error", err)
	}
}
