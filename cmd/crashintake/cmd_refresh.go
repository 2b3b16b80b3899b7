// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wingedpig/crashintake/internal/app"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Download the known issue corpus into the local cache",
	Args:  cobra.NoArgs,
	RunE:  runRefresh,
}

func runRefresh(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, app.Options{})
	if err != nil {
		return err
	}
	res := a.Intake().RefreshCorpus(ctx)
	if res.Err != nil {
		return fmt.Errorf("corpus refresh %s: %w", res.Outcome, res.Err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Cached %d issues in %s (%s)\n",
		res.Issues, a.Config().Corpus.CachePath, res.Duration.Round(time.Millisecond))
	return nil
}
