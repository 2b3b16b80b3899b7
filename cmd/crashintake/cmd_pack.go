// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wingedpig/crashintake/internal/app"
	"github.com/wingedpig/crashintake/internal/evidence"
	"github.com/wingedpig/crashintake/internal/hostfs"
)

var packCmd = &cobra.Command{
	Use:   "pack PATH...",
	Short: "Pack files into a report archive",
	Long: "pack writes the given files into an archive in the attachments directory\n" +
		"using the configured format. Missing and oversized files are skipped.",
	Args: cobra.MinimumNArgs(1),
	RunE: runPack,
}

func runPack(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, app.Options{})
	if err != nil {
		return err
	}

	fsys := hostfs.NewOS()
	dumpExt := a.Config().Evidence.DumpExt
	var files []evidence.File
	for _, path := range args {
		category := evidence.CategoryUserAttachment
		if hasExt(path, dumpExt) {
			category = evidence.CategoryDump
		}
		f, err := evidence.Identify(ctx, fsys, path, category)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "skipping %s: %v\n", path, err)
			continue
		}
		files = append(files, f)
	}
	if len(files) == 0 {
		return errors.New("no readable files to pack")
	}

	archive, err := a.Assembler().Assemble(ctx, files)
	if err != nil {
		return err
	}
	if archive == "" {
		return errors.New("no files were packed")
	}
	fmt.Fprintln(cmd.OutOrStdout(), archive)
	return nil
}

func hasExt(path, ext string) bool {
	return ext != "" && len(path) >= len(ext) && path[len(path)-len(ext):] == ext
}
