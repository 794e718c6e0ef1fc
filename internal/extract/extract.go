// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

// Package extract turns uploaded document bytes into normalized text.
package extract

import (
	"path/filepath"
	"strings"
	"unicode/utf8"

	ragerr "github.com/sigil-dev/ragd/pkg/errors"
)

// Format identifies the kind of document being ingested. It doubles as
// the document's recorded source.
type Format string

const (
	FormatManual Format = "manual_input"
	FormatPDF    Format = "pdf"
	FormatCSV    Format = "csv"
	FormatText   Format = "txt"
)

// FormatFromFilename maps a filename's extension to a Format. The
// extension is returned alongside so rejections can report it.
func FormatFromFilename(name string) (Format, string) {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".pdf":
		return FormatPDF, ext
	case ".csv":
		return FormatCSV, ext
	case ".txt":
		return FormatText, ext
	default:
		return "", ext
	}
}

// Extractor dispatches raw bytes to a format-specific reader.
type Extractor struct {
	allowText bool
	openPDF   func(data []byte) (pageSource, error)
}

type Option func(*Extractor)

// WithTextUploads accepts plain .txt uploads, which are rejected by default.
func WithTextUploads(allow bool) Option {
	return func(e *Extractor) { e.allowText = allow }
}

func New(opts ...Option) *Extractor {
	e := &Extractor{openPDF: openPDF}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Raw returns the text of data before normalization. PDF pages are joined
// with a newline in page order; CSV data cells are joined row-major with a
// newline.
func (e *Extractor) Raw(data []byte, format Format) (string, error) {
	switch format {
	case FormatManual:
		return string(data), nil
	case FormatText:
		if !e.allowText {
			return "", unsupported(".txt")
		}
		if !utf8.Valid(data) {
			return "", ragerr.New(ragerr.CodeExtractParseInvalid, "text upload is not valid UTF-8",
				ragerr.FieldFormat(string(format)))
		}
		return string(data), nil
	case FormatPDF:
		return e.pdfText(data)
	case FormatCSV:
		return csvText(data)
	default:
		return "", unsupported(string(format))
	}
}

// Extract returns the normalized text of data. Documents that normalize to
// an empty string are rejected.
func (e *Extractor) Extract(data []byte, format Format) (string, error) {
	raw, err := e.Raw(data, format)
	if err != nil {
		return "", err
	}

	text := Normalize(raw)
	if text == "" {
		return "", ragerr.New(ragerr.CodeExtractParseInvalid, "document contains no text",
			ragerr.FieldFormat(string(format)))
	}
	return text, nil
}

// ExtractFile detects the format from filename and extracts the text.
func (e *Extractor) ExtractFile(filename string, data []byte) (string, Format, error) {
	format, ext := FormatFromFilename(filename)
	if format == "" {
		return "", "", unsupported(ext)
	}

	text, err := e.Extract(data, format)
	if err != nil {
		return "", format, err
	}
	return text, format, nil
}

// Normalize trims surrounding whitespace and replaces each embedded line
// break with a single space.
func Normalize(text string) string {
	return lineBreaks.Replace(strings.TrimSpace(text))
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

func unsupported(ext string) error {
	if ext == "" {
		ext = "(none)"
	}
	return ragerr.New(ragerr.CodeExtractFormatUnsupported, "unsupported file format "+ext+": only .pdf and .csv are accepted",
		ragerr.FieldFormat(ext))
}
