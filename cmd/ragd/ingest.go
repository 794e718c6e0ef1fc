// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sigil-dev/ragd/internal/server"
	ragerr "github.com/sigil-dev/ragd/pkg/errors"
)

func newIngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest [text]",
		Short: "Add a document to the index",
		Long: "Send text, or a PDF or CSV file with --file, to a running ragd server. " +
			"Text arguments are joined with spaces.",
		RunE: runIngest,
	}

	cmd.Flags().StringP("file", "f", "", "PDF or CSV file to upload")
	cmd.Flags().StringP("title", "t", "", "document title (text only)")
	addAddrFlag(cmd)

	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	file, _ := cmd.Flags().GetString("file")
	title, _ := cmd.Flags().GetString("title")
	out := cmd.OutOrStdout()
	client := clientFor(cmd)

	var res server.IngestBody

	if file != "" {
		if len(args) > 0 {
			return ragerr.New(ragerr.CodeCLIInputInvalid, "pass either text or --file, not both")
		}
		data, err := os.ReadFile(file)
		if err != nil {
			return ragerr.Errorf(ragerr.CodeCLIInputInvalid, "reading %s: %w", file, err)
		}
		if err := client.postFile(cmd.Context(), "/api/v1/documents/upload", "file", filepath.Base(file), data, &res); err != nil {
			return err
		}
		_, err = fmt.Fprintf(out, "%s: %s (id %s, index %d)\n", res.Message, res.Filename, res.ID, res.IndexID)
		return err
	}

	text := strings.Join(args, " ")
	if strings.TrimSpace(text) == "" {
		return ragerr.New(ragerr.CodeCLIInputInvalid, "nothing to ingest: pass text or --file")
	}

	body := map[string]string{"text": text}
	if title != "" {
		body["title"] = title
	}
	if err := client.postJSON(cmd.Context(), "/api/v1/documents", body, &res); err != nil {
		return err
	}
	_, err := fmt.Fprintf(out, "%s (id %s, index %d)\n", res.Message, res.ID, res.IndexID)
	return err
}
