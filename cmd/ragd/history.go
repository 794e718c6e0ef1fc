// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package main

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/sigil-dev/ragd/internal/server"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent chat exchanges, newest first",
		RunE:  runHistory,
	}

	cmd.Flags().IntP("limit", "n", 10, "number of exchanges to show (max 100)")
	addAddrFlag(cmd)

	return cmd
}

func runHistory(cmd *cobra.Command, _ []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	out := cmd.OutOrStdout()

	var res struct {
		History []server.ChatRecordJSON `json:"history"`
	}
	q := url.Values{"limit": []string{strconv.Itoa(limit)}}
	if err := clientFor(cmd).getJSON(cmd.Context(), "/api/v1/chat/history", q, &res); err != nil {
		return err
	}

	if len(res.History) == 0 {
		_, err := fmt.Fprintln(out, "No chat history.")
		return err
	}
	for _, r := range res.History {
		if _, err := fmt.Fprintf(out, "#%d  %s\nQ: %s\nA: %s\n\n",
			r.ID, r.CreatedAt.Local().Format(time.DateTime), r.Query, r.Response); err != nil {
			return err
		}
	}
	return nil
}
