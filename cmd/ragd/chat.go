// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat <question>",
		Short: "Ask a question about the ingested documents",
		Long:  "Send a question to a running ragd server and print the answer. Arguments are joined with spaces.",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runChat,
	}

	addAddrFlag(cmd)

	return cmd
}

func runChat(cmd *cobra.Command, args []string) error {
	var res struct {
		Response string `json:"response"`
	}
	query := strings.Join(args, " ")
	if err := clientFor(cmd).postJSON(cmd.Context(), "/api/v1/chat", map[string]string{"query": query}, &res); err != nil {
		return err
	}
	_, err := fmt.Fprintln(cmd.OutOrStdout(), res.Response)
	return err
}
