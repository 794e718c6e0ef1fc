// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package rag

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	ragerr "github.com/sigil-dev/ragd/pkg/errors"
)

const (
	// DefaultHistoryLimit is used when a history query asks for zero records.
	DefaultHistoryLimit = 10
	// MaxHistoryLimit caps a single history query.
	MaxHistoryLimit = 100
)

// AddDocumentCommand ingests text entered directly by a user.
type AddDocumentCommand struct {
	Text  string `validate:"notblank"`
	Title string `validate:"max=256"`
}

// UploadFileCommand ingests an uploaded file, dispatched on its extension.
type UploadFileCommand struct {
	Filename string `validate:"notblank,max=256"`
	Data     []byte `validate:"min=1"`
}

// ChatCommand asks a question against the ingested corpus.
type ChatCommand struct {
	Query string `validate:"notblank"`
}

// HistoryQuery selects the most recent exchanges. Zero means DefaultHistoryLimit;
// values above MaxHistoryLimit are capped.
type HistoryQuery struct {
	Limit int `validate:"gte=0"`
}

// EffectiveLimit applies the default and the cap.
func (q HistoryQuery) EffectiveLimit() int {
	switch {
	case q.Limit == 0:
		return DefaultHistoryLimit
	case q.Limit > MaxHistoryLimit:
		return MaxHistoryLimit
	default:
		return q.Limit
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	return v
}

// Validate checks a command and returns a rag.command.invalid error
// naming every failing field.
func Validate(cmd any) error {
	err := validate.Struct(cmd)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return ragerr.Wrapf(err, ragerr.CodeRAGCommandInvalid, "validating command")
	}

	msgs := make([]string, 0, len(verrs))
	fields := make([]ragerr.Attr, 0, len(verrs))
	for _, fe := range verrs {
		msg := describe(fe)
		msgs = append(msgs, msg)
		fields = append(fields, ragerr.Field(strings.ToLower(fe.Field()), msg))
	}

	return ragerr.New(ragerr.CodeRAGCommandInvalid, "invalid command: "+strings.Join(msgs, "; "), fields...)
}

func describe(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required", "notblank":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must not be empty", field)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed on %q", field, fe.Tag())
	}
}
