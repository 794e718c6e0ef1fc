// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package extract

import (
	"bytes"
	"strings"

	"github.com/ledongthuc/pdf"
	ragerr "github.com/sigil-dev/ragd/pkg/errors"
)

// pageSource is the subset of a parsed PDF the extractor reads.
// Pages are numbered from 1.
type pageSource interface {
	NumPage() int
	PageText(n int) (string, error)
}

type ledongthucPDF struct {
	r *pdf.Reader
}

func openPDF(data []byte) (pageSource, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	return &ledongthucPDF{r: r}, nil
}

func (p *ledongthucPDF) NumPage() int { return p.r.NumPage() }

func (p *ledongthucPDF) PageText(n int) (string, error) {
	page := p.r.Page(n)
	if page.V.IsNull() {
		return "", nil
	}
	return page.GetPlainText(nil)
}

func (e *Extractor) pdfText(data []byte) (text string, err error) {
	// ledongthuc/pdf panics on some malformed streams.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = ragerr.Errorf(ragerr.CodeExtractParseInvalid, "reading pdf: %v", r)
		}
	}()

	src, err := e.openPDF(data)
	if err != nil {
		return "", ragerr.Wrap(err, ragerr.CodeExtractParseInvalid, "opening pdf", ragerr.FieldFormat(string(FormatPDF)))
	}

	pages := make([]string, 0, src.NumPage())
	for i := 1; i <= src.NumPage(); i++ {
		t, err := src.PageText(i)
		if err != nil {
			return "", ragerr.Wrapf(err, ragerr.CodeExtractParseInvalid, "reading pdf page %d", i)
		}
		pages = append(pages, t)
	}
	return strings.Join(pages, "\n"), nil
}
