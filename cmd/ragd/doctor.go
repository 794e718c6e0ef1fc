// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sys/unix"

	"github.com/sigil-dev/ragd/internal/config"
	ragerr "github.com/sigil-dev/ragd/pkg/errors"
	"github.com/sigil-dev/ragd/pkg/health"
)

func newDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run diagnostics",
		Long:  "Check the binary, configuration, provider credentials, the data directory, disk space and the server.",
		RunE:  runDoctor,
	}

	addAddrFlag(cmd)

	return cmd
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	w := cmd.OutOrStdout()
	client := clientFor(cmd)
	dataDir := resolveDataDir()

	checks := []struct {
		name string
		fn   func() string
	}{
		{"Binary", checkBinary},
		{"Config", checkConfig},
		{"Providers", checkProviders},
		{"Data", func() string { return checkDataDir(dataDir) }},
		{"Disk Space", func() string { return checkDiskSpace(dataDir) }},
		{"Server", func() string { return checkServer(cmd, client) }},
	}

	for _, c := range checks {
		if _, err := fmt.Fprintf(w, "%-12s %s\n", c.name+":", c.fn()); err != nil {
			return err
		}
	}

	return nil
}

// resolveDataDir returns storage.data_dir from viper or the default.
func resolveDataDir() string {
	if dir := viper.GetString("storage.data_dir"); dir != "" {
		return dir
	}
	return config.DefaultDataDir()
}

func checkBinary() string {
	return fmt.Sprintf("ragd %s (%s/%s, %s)", version, runtime.GOOS, runtime.GOARCH, runtime.Version())
}

func checkConfig() string {
	cfg, err := config.FromViper(viper.GetViper())
	if err != nil {
		return fmt.Sprintf("invalid: %s", err)
	}
	src := "defaults"
	if f := viper.ConfigFileUsed(); f != "" {
		src = f
	}
	return fmt.Sprintf("ok (%s; embedding %s, generation %s)", src, cfg.Models.Embedding, cfg.Models.Generation)
}

func checkProviders() string {
	var configured []string
	for _, name := range config.KnownProviders {
		if viper.GetString("providers."+name+".api_key") != "" {
			configured = append(configured, name)
		}
	}
	if len(configured) == 0 {
		return "no api keys configured (run 'ragd init')"
	}
	return fmt.Sprintf("api keys for %v", configured)
}

func checkDataDir(dataDir string) string {
	if _, err := os.Stat(dataDir); os.IsNotExist(err) {
		return fmt.Sprintf("%s does not exist yet (created on first serve)", dataDir)
	}
	var found []string
	for _, name := range []string{"index.db", "documents.db", "history.db"} {
		if _, err := os.Stat(filepath.Join(dataDir, name)); err == nil {
			found = append(found, name)
		}
	}
	if len(found) == 0 {
		return fmt.Sprintf("%s (no sqlite databases)", dataDir)
	}
	return fmt.Sprintf("%s %v", dataDir, found)
}

func checkDiskSpace(dataDir string) string {
	path := dataDir
	if _, err := os.Stat(path); os.IsNotExist(err) {
		path, _ = os.UserHomeDir()
	}

	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return fmt.Sprintf("unable to check: %s", err)
	}

	return formatBytes(stat.Bavail*uint64(stat.Bsize)) + " available"
}

func checkServer(cmd *cobra.Command, client *apiClient) string {
	var report health.Report
	if err := client.getJSON(cmd.Context(), "/api/v1/status", nil, &report); err != nil {
		if ragerr.HasCode(err, ragerr.CodeCLIServerNotRunning) {
			return fmt.Sprintf("not running at %s (run 'ragd serve')", client.baseURL)
		}
		return fmt.Sprintf("error: %s", err)
	}
	return fmt.Sprintf("%s at %s, %d vectors", report.Status, client.baseURL, report.IndexSize)
}

// formatBytes formats a byte count as a human-readable string.
func formatBytes(b uint64) string {
	const (
		gb = 1024 * 1024 * 1024
		mb = 1024 * 1024
	)
	switch {
	case b >= gb:
		return fmt.Sprintf("%.1f GB", float64(b)/float64(gb))
	case b >= mb:
		return fmt.Sprintf("%.1f MB", float64(b)/float64(mb))
	default:
		return fmt.Sprintf("%d bytes", b)
	}
}
