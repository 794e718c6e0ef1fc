// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package main

import (
	"fmt"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	ragerr "github.com/sigil-dev/ragd/pkg/errors"
	"github.com/sigil-dev/ragd/pkg/health"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show server status",
		Long:  "Query the running server's status endpoint and display index size and provider health.",
		RunE:  runStatus,
	}

	addAddrFlag(cmd)

	return cmd
}

func runStatus(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	client := clientFor(cmd)

	var report health.Report
	if err := client.getJSON(cmd.Context(), "/api/v1/status", nil, &report); err != nil {
		if ragerr.HasCode(err, ragerr.CodeCLIServerNotRunning) {
			_, _ = fmt.Fprintln(out, err)
			return nil
		}
		return err
	}

	_, _ = fmt.Fprintf(out, "Status:     %s\n", report.Status)
	_, _ = fmt.Fprintf(out, "Index:      %d vectors\n", report.IndexSize)
	_, _ = fmt.Fprintf(out, "Documents:  %d\n", report.Documents)
	_, _ = fmt.Fprintf(out, "Embedding:  %s (%d dims)\n", report.Embedding, report.EmbeddingDimensions)
	_, _ = fmt.Fprintf(out, "Generation: %s\n", report.Generation)
	for _, name := range slices.Sorted(maps.Keys(report.Providers)) {
		m := report.Providers[name]
		state := "available"
		if !m.Available {
			state = fmt.Sprintf("cooling down (%d failures)", m.FailureCount)
			if m.LastError != "" {
				state += ": " + m.LastError
			}
		}
		_, _ = fmt.Fprintf(out, "Provider:   %s %s\n", name, state)
	}
	return nil
}
