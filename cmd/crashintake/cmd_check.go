// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wingedpig/crashintake/internal/app"
	"github.com/wingedpig/crashintake/internal/environment"
)

var checkFlags struct {
	assumeModules []string
	jsonOutput    bool
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check the dump directories for a crash from the previous session",
	Args:  cobra.NoArgs,
	RunE:  runCheck,
}

func init() {
	f := checkCmd.Flags()
	f.StringSliceVar(&checkFlags.assumeModules, "assume-module", nil,
		"Treat these modules as loaded instead of probing the process")
	f.BoolVar(&checkFlags.jsonOutput, "json", false, "Print the decision as JSON")
}

func runCheck(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	var opts app.Options
	if len(checkFlags.assumeModules) > 0 {
		opts.Probe = environment.Static{Modules: checkFlags.assumeModules}
	}
	a, err := newApp(ctx, opts)
	if err != nil {
		return err
	}

	d, err := a.Intake().CheckCrash(ctx)
	if err != nil {
		return fmt.Errorf("crash check: %w", err)
	}

	out := cmd.OutOrStdout()
	if checkFlags.jsonOutput {
		return printJSON(out, d)
	}
	fmt.Fprintf(out, "State:    %s\n", d.State)
	if len(d.Evidence) == 0 {
		return nil
	}
	fmt.Fprintf(out, "Category: %s\n", d.Result.Category)
	if d.Result.Code != "" {
		fmt.Fprintf(out, "Code:     %s\n", d.Result.Code)
	}
	fmt.Fprintf(out, "Evidence: (%d files)\n", len(d.Evidence))
	for _, f := range d.Evidence {
		fmt.Fprintf(out, "  %-16s %s\n", f.Category, f.Path)
	}
	if d.Explanation != "" {
		fmt.Fprintf(out, "\n%s\n", d.Explanation)
	}
	if d.HelpURL != "" {
		fmt.Fprintf(out, "See %s\n", d.HelpURL)
	}
	return nil
}
