// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sigil-dev/ragd/internal/config"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the ragd HTTP server",
		Long:  "Load configuration, open the index, document store, history log and cache, and serve the HTTP API.",
		RunE:  runServe,
	}

	cmd.Flags().String("listen", "", "override listen address (host:port)")
	_ = viper.BindPFlag("networking.listen", cmd.Flags().Lookup("listen"))

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(viper.GetBool("verbose"))

	cfg, err := config.FromViper(viper.GetViper())
	if err != nil {
		return err
	}
	config.WarnInsecurePermissions(viper.ConfigFileUsed())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := Wire(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			slog.Warn("closing ragd", "error", err)
		}
	}()

	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "ragd %s listening on %s\n", version, cfg.Networking.Listen); err != nil {
		return err
	}
	slog.Info("serving",
		"listen", cfg.Networking.Listen,
		"embedding", cfg.Models.Embedding,
		"generation", cfg.Models.Generation,
		"index", cfg.Storage.Index.Backend,
		"documents", cfg.Storage.Documents.Backend,
		"history", cfg.Storage.History.Backend,
		"cache", cfg.Cache.Backend,
	)

	return app.Server.Start(ctx)
}

// setupLogging installs the process-wide slog handler.
func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}
