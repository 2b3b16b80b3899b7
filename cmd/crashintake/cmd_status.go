// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wingedpig/crashintake/internal/config"
	"github.com/wingedpig/crashintake/pkg/client"
)

var statusFlags struct {
	server  string
	timeout time.Duration
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the state of a running server",
	Long: "status asks a running crashintake server for its crash check decision,\n" +
		"the report being drafted and the known issues related to it.",
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	f := statusCmd.Flags()
	f.StringVar(&statusFlags.server, "server", "", "Server URL (default: from config)")
	f.DurationVar(&statusFlags.timeout, "timeout", 10*time.Second, "Request timeout")
}

func serverURL(ctx context.Context) (string, error) {
	if statusFlags.server != "" {
		return statusFlags.server, nil
	}
	cfg, _, err := config.NewLoader().Resolve(ctx, rootFlags.configPath)
	if err != nil {
		return "", err
	}
	return "http://" + cfg.Server.Addr(), nil
}

func runStatus(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	base, err := serverURL(ctx)
	if err != nil {
		return err
	}
	c := client.New(base, client.WithTimeout(statusFlags.timeout))

	d, err := c.CrashCheck.Get(ctx)
	if err != nil {
		return fmt.Errorf("crash check: %w", err)
	}
	sess, err := c.Session.Get(ctx)
	if err != nil {
		return fmt.Errorf("session: %w", err)
	}
	rel, err := c.Session.Related(ctx)
	if err != nil {
		return fmt.Errorf("related issues: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Server:      %s\n", c.BaseURL())
	fmt.Fprintf(out, "Crash check: %s", d.State)
	if d.Result.Category != "" && len(d.Evidence) > 0 {
		fmt.Fprintf(out, " (%s)", d.Result.Category)
	}
	fmt.Fprintln(out)

	title := sess.Title
	if title == "" {
		title = "(untitled)"
	}
	fmt.Fprintf(out, "Report:      %s [%s", title, sess.Origin)
	if !sess.Mutable {
		fmt.Fprint(out, ", locked")
	}
	fmt.Fprintln(out, "]")
	fmt.Fprintf(out, "Files:       %d\n", len(sess.Files))
	if sess.ArchivePath != "" {
		fmt.Fprintf(out, "Archive:     %s\n", sess.ArchivePath)
	}
	if len(rel.Issues) > 0 {
		fmt.Fprintf(out, "Related:     (%d issues)\n", len(rel.Issues))
		for _, issue := range rel.Issues {
			fmt.Fprintf(out, "  #%s  %s\n", issue.ID, issue.Title)
		}
	}
	return nil
}
