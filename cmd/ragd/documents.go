// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sigil-dev/ragd/internal/server"
)

func newDocumentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "documents",
		Aliases: []string{"docs"},
		Short:   "List ingested documents",
		RunE:    runDocuments,
	}

	addAddrFlag(cmd)

	return cmd
}

func runDocuments(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()

	var res struct {
		Documents []server.DocumentJSON `json:"documents"`
	}
	if err := clientFor(cmd).getJSON(cmd.Context(), "/api/v1/documents", nil, &res); err != nil {
		return err
	}

	if len(res.Documents) == 0 {
		_, err := fmt.Fprintln(out, "No documents.")
		return err
	}
	for _, d := range res.Documents {
		if _, err := fmt.Fprintf(out, "%s  [%s] %s\n    %s\n", d.ID, d.Source, d.Title, d.Preview); err != nil {
			return err
		}
	}
	return nil
}
