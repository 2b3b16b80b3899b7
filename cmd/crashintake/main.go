// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/wingedpig/crashintake/internal/app"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	configPath string
	logLevel   string
	logFormat  string
}

var rootCmd = &cobra.Command{
	Use:   "crashintake",
	Short: "Crash evidence intake and bug report assembly",
	Long: "crashintake finds crash dumps left by the previous session, classifies them,\n" +
		"matches reports against known issues and packs evidence for submission.",
	SilenceUsage: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVarP(&rootFlags.configPath, "config", "c", "", "Path to config file (default: auto-detect)")
	f.StringVar(&rootFlags.logLevel, "log-level", "", "Log level (overrides config)")
	f.StringVar(&rootFlags.logFormat, "log-format", "", "Log format: json or text (overrides config)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(fingerprintCmd)
	rootCmd.AddCommand(relatedCmd)
	rootCmd.AddCommand(refreshCmd)
	rootCmd.AddCommand(packCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "crashintake %s\n", version)
	},
}

// newApp loads the configuration with the persistent flag overrides and
// builds every component without starting background work.
func newApp(ctx context.Context, opts app.Options) (*app.App, error) {
	opts.ConfigPath = rootFlags.configPath
	opts.LogLevel = rootFlags.logLevel
	opts.LogFormat = rootFlags.logFormat
	opts.Version = version
	a, err := app.New(ctx, opts)
	if err != nil {
		return nil, err
	}
	if err := a.Initialize(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
