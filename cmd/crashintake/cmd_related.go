// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/wingedpig/crashintake/internal/app"
	"github.com/wingedpig/crashintake/internal/corpus"
	"github.com/wingedpig/crashintake/internal/fingerprint"
)

// reportFlags describe a report on the command line.
type reportFlags struct {
	title     string
	message   string
	stack     string
	stackFile string
}

func (f *reportFlags) register(cmd *cobra.Command, withTitle bool) {
	fs := cmd.Flags()
	if withTitle {
		fs.StringVar(&f.title, "title", "", "Report title")
	}
	fs.StringVarP(&f.message, "message", "m", "", "Error message")
	fs.StringVar(&f.stack, "stack", "", "Stack trace")
	fs.StringVar(&f.stackFile, "stack-file", "", "Read the stack trace from a file (- for stdin)")
}

func (f *reportFlags) stackTrace() (string, error) {
	if f.stackFile == "" {
		return f.stack, nil
	}
	if f.stack != "" {
		return "", errors.New("--stack and --stack-file are mutually exclusive")
	}
	var (
		data []byte
		err  error
	)
	if f.stackFile == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(f.stackFile)
	}
	if err != nil {
		return "", fmt.Errorf("read stack trace: %w", err)
	}
	return string(data), nil
}

var fingerprintFlags reportFlags

var fingerprintCmd = &cobra.Command{
	Use:   "fingerprint",
	Short: "Print the fingerprint of an error message and stack trace",
	Args:  cobra.NoArgs,
	RunE:  runFingerprint,
}

var relatedFlags struct {
	reportFlags
	refresh    bool
	jsonOutput bool
}

var relatedCmd = &cobra.Command{
	Use:   "related",
	Short: "List known issues related to a report",
	Long: "related matches a report against the cached issue corpus, by fingerprint\n" +
		"and by title and message similarity.",
	Args: cobra.NoArgs,
	RunE: runRelated,
}

func init() {
	fingerprintFlags.register(fingerprintCmd, false)

	relatedFlags.register(relatedCmd, true)
	f := relatedCmd.Flags()
	f.BoolVar(&relatedFlags.refresh, "refresh", false, "Refresh the corpus before matching")
	f.BoolVar(&relatedFlags.jsonOutput, "json", false, "Print matches as JSON")
}

func runFingerprint(cmd *cobra.Command, _ []string) error {
	stack, err := fingerprintFlags.stackTrace()
	if err != nil {
		return err
	}
	fp, ok := fingerprint.Generate(fingerprintFlags.message, stack)
	if !ok {
		return errors.New("nothing to fingerprint: message and stack trace are both empty")
	}
	fmt.Fprintln(cmd.OutOrStdout(), fp)
	return nil
}

func runRelated(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	stack, err := relatedFlags.stackTrace()
	if err != nil {
		return err
	}
	q := corpus.Query{
		Title:        relatedFlags.title,
		ErrorMessage: relatedFlags.message,
	}
	q.Fingerprint, _ = fingerprint.Generate(relatedFlags.message, stack)

	a, err := newApp(ctx, app.Options{})
	if err != nil {
		return err
	}
	if relatedFlags.refresh {
		if res := a.Intake().RefreshCorpus(ctx); res.Err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "corpus refresh failed, using cache: %v\n", res.Err)
		}
	}

	issues := a.Matcher().FindRelated(ctx, q)
	out := cmd.OutOrStdout()
	if relatedFlags.jsonOutput {
		if issues == nil {
			issues = []corpus.Issue{}
		}
		return printJSON(out, issues)
	}
	if len(issues) == 0 {
		fmt.Fprintln(out, "No related issues.")
		return nil
	}
	for _, issue := range issues {
		fmt.Fprintf(out, "#%s  %s\n    %s\n", issue.ID, issue.Title, issue.URL)
	}
	return nil
}
