// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package main

import (
	"errors"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sigil-dev/ragd/internal/config"
	"github.com/sigil-dev/ragd/internal/secrets"
	ragerr "github.com/sigil-dev/ragd/pkg/errors"
)

// NewRootCmd creates the root ragd command with all subcommands registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ragd",
		Short: "ragd answers questions from your documents",
		Long: "ragd ingests text, PDF and CSV documents into a vector index and answers " +
			"questions by retrieving the closest passages and handing them to a language model.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initViper(cmd)
		},
	}

	// Global flags, mapped to viper keys in initViper.
	root.PersistentFlags().StringP("config", "c", "", "path to config file")
	root.PersistentFlags().String("data-dir", "", "path to data directory")
	root.PersistentFlags().BoolP("verbose", "v", false, "enable verbose output")
	root.PersistentFlags().String("env-file", ".env", "dotenv file loaded before configuration")

	root.AddCommand(
		newInitCmd(),
		newServeCmd(),
		newVersionCmd(),
		newIngestCmd(),
		newChatCmd(),
		newHistoryCmd(),
		newDocumentsCmd(),
		newStatusCmd(),
		newDoctorCmd(),
		newSecretCmd(),
	)

	return root
}

// initViper sets up the global Viper with defaults, env bindings, flag
// bindings, and optional config file so the standard precedence
// (flag > env > file > defaults) is handled uniformly. keyring:// values
// are resolved last.
func initViper(cmd *cobra.Command) error {
	v := viper.GetViper()

	envFile, _ := cmd.Flags().GetString("env-file")
	if err := config.LoadDotEnv(envFile); err != nil {
		return err
	}

	config.SetDefaults(v)
	config.SetupEnv(v)

	if cfgFile, _ := cmd.Flags().GetString("config"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return ragerr.Errorf(ragerr.CodeConfigLoadReadFailure, "reading config file: %w", err)
		}
	} else {
		// No SetConfigType: viper would otherwise also try the bare name
		// and pick up the ./ragd binary.
		v.SetConfigName("ragd")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/ragd")
		v.AddConfigPath("/etc/ragd")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return ragerr.Errorf(ragerr.CodeConfigLoadReadFailure, "reading config: %w", err)
			}
			if path := config.BootstrapConfig(); path != "" {
				v.SetConfigFile(path)
				if err := v.ReadInConfig(); err != nil {
					return ragerr.Errorf(ragerr.CodeConfigLoadReadFailure, "reading bootstrapped config: %w", err)
				}
			}
		}
	}

	if err := v.BindPFlag("storage.data_dir", cmd.Root().PersistentFlags().Lookup("data-dir")); err != nil {
		return ragerr.Errorf(ragerr.CodeCLISetupFailure, "binding data-dir flag: %w", err)
	}
	if err := v.BindPFlag("verbose", cmd.Root().PersistentFlags().Lookup("verbose")); err != nil {
		return ragerr.Errorf(ragerr.CodeCLISetupFailure, "binding verbose flag: %w", err)
	}

	if n := secrets.ResolveViperSecrets(v, secretStoreFactory()); n > 0 {
		slog.Debug("resolved keyring secrets", "count", n)
	}

	return nil
}
