// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package rag

import (
	"strconv"
	"strings"
)

const promptPreamble = `Answer the question using the passages in the CONTEXT block. ` +
	`If the context does not contain the answer, say that you do not know.`

// BuildPrompt renders the single-turn prompt sent to the generation model.
// Passages are numbered inside a CONTEXT block; the query sits alone in a
// QUESTION block after it. The output depends only on the arguments.
func BuildPrompt(query string, passages []string) string {
	var b strings.Builder

	b.WriteString(promptPreamble)
	b.WriteString("\n\n=== CONTEXT ===\n")
	if len(passages) == 0 {
		b.WriteString("(no passages)\n")
	}
	for i, p := range passages {
		b.WriteString("[")
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString("] ")
		b.WriteString(p)
		b.WriteString("\n")
	}
	b.WriteString("=== END CONTEXT ===\n\n=== QUESTION ===\n")
	b.WriteString(query)
	b.WriteString("\n=== END QUESTION ===\n")

	return b.String()
}
