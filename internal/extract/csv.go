// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package extract

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"strings"

	ragerr "github.com/sigil-dev/ragd/pkg/errors"
)

// csvText flattens the data rows of a CSV file. The first record is the
// header and is not part of the document text.
func csvText(data []byte) (string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	if _, err := r.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return "", nil
		}
		return "", ragerr.Wrap(err, ragerr.CodeExtractParseInvalid, "reading csv header", ragerr.FieldFormat(string(FormatCSV)))
	}

	var cells []string
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", ragerr.Wrap(err, ragerr.CodeExtractParseInvalid, "reading csv record", ragerr.FieldFormat(string(FormatCSV)))
		}
		cells = append(cells, record...)
	}
	return strings.Join(cells, "\n"), nil
}
