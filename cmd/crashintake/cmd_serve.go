// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/spf13/cobra"

	"github.com/wingedpig/crashintake/internal/app"
)

var serveFlags struct {
	host string
	port int
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the intake API server",
	Long: "serve checks for a crash from the previous session, refreshes the known\n" +
		"issue corpus, watches the dump directory and serves the HTTP API until\n" +
		"interrupted.",
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	f := serveCmd.Flags()
	f.StringVar(&serveFlags.host, "host", "", "HTTP server host (overrides config)")
	f.IntVar(&serveFlags.port, "port", 0, "HTTP server port (overrides config)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := app.New(cmd.Context(), app.Options{
		ConfigPath: rootFlags.configPath,
		Host:       serveFlags.host,
		Port:       serveFlags.port,
		LogLevel:   rootFlags.logLevel,
		LogFormat:  rootFlags.logFormat,
		Version:    version,
	})
	if err != nil {
		return err
	}
	return a.Run(cmd.Context())
}
