// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

const defaultConfigFile = "crashintake.hjson"

var initFlags struct {
	output string
	force  bool
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a commented crashintake.hjson in the current directory",
	Long: "init walks you through the main settings and writes a fully commented\n" +
		"configuration file. Press Enter to accept the defaults shown in [brackets].",
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	f := initCmd.Flags()
	f.StringVarP(&initFlags.output, "output", "o", defaultConfigFile, "File to write")
	f.BoolVar(&initFlags.force, "force", false, "Overwrite an existing file")
}

// initAnswers are the settings asked for by init.
type initAnswers struct {
	AppName     string
	UserDataDir string
	CorpusURL   string
	Format      string
	Port        int
	JSONLogs    bool
}

func runInit(cmd *cobra.Command, _ []string) error {
	if _, err := os.Stat(initFlags.output); err == nil && !initFlags.force {
		return fmt.Errorf("%s already exists; remove it first or pass --force", initFlags.output)
	}

	out := cmd.OutOrStdout()
	reader := bufio.NewReader(cmd.InOrStdin())

	fmt.Fprintln(out, "crashintake Configuration Setup")
	fmt.Fprintln(out, "===============================")
	fmt.Fprintln(out)

	var a initAnswers
	a.AppName = prompt(reader, out, "Application name", "crashintake")
	a.UserDataDir = prompt(reader, out, "User data directory", "{{.UserConfigDir}}/{{.AppName}}")
	a.CorpusURL = prompt(reader, out, "Known issue corpus URL", "")
	a.Format = prompt(reader, out, "Archive format (zip, tar.zst)", "zip")
	port, err := strconv.Atoi(prompt(reader, out, "API server port", "7341"))
	if err != nil {
		port = 7341
	}
	a.Port = port
	a.JSONLogs = strings.ToLower(prompt(reader, out, "JSON logs? (y/n)", "y")) == "y"

	if err := os.WriteFile(initFlags.output, []byte(generateConfig(a)), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Created %s\n", initFlags.output)
	fmt.Fprintln(out, "Run: crashintake serve")
	return nil
}

func prompt(reader *bufio.Reader, w io.Writer, question, defaultVal string) string {
	if defaultVal != "" {
		fmt.Fprintf(w, "%s [%s]: ", question, defaultVal)
	} else {
		fmt.Fprintf(w, "%s: ", question)
	}
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		return defaultVal
	}
	return input
}

// escapeHJSONValue escapes a string for safe inclusion in an HJSON double-quoted value.
func escapeHJSONValue(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return s
}

func generateConfig(a initAnswers) string {
	var sb strings.Builder

	sb.WriteString(`{
  // =============================================================================
  // crashintake Configuration
  // =============================================================================
  //
  // This is an HJSON file (JSON with comments and relaxed syntax).
  //
  // Template variables available in paths:
  //   {{.UserConfigDir}} - Per-user configuration directory of the OS
  //   {{.AppName}}       - app.name
  //   {{.UserDataDir}}   - app.user_data_dir
  //   {{.TempDir}}       - app.temp_dir

  app: {
    name: "`)
	sb.WriteString(escapeHJSONValue(a.AppName))
	sb.WriteString(`"
    user_data_dir: "`)
	sb.WriteString(escapeHJSONValue(a.UserDataDir))
	sb.WriteString(`"
    // temp_dir: "{{.UserDataDir}}/temp"
  }

  // ---------------------------------------------------------------------------
  // Crash Evidence
  // ---------------------------------------------------------------------------
  evidence: {
    // Where the crash handler writes dumps
    primary_dir: "{{.TempDir}}/dumps"

    // Older location, still scanned
    legacy_dir: "{{.TempDir}}/Crashes/reports"

    dump_ext: ".dmp"
    sidecar_suffix: ".log"

    // Application logs attached to reports
    log_dir: "{{.UserDataDir}}"

    // Check for a crash whenever a new dump appears
    watch: true
  }

  // ---------------------------------------------------------------------------
  // Known Issue Corpus
  // ---------------------------------------------------------------------------
  corpus: {
`)
	if a.CorpusURL != "" {
		sb.WriteString(`    url: "`)
		sb.WriteString(escapeHJSONValue(a.CorpusURL))
		sb.WriteString("\"\n")
	} else {
		sb.WriteString("    // url: \"https://example.com/issues_report.json\"\n")
	}
	sb.WriteString(`    cache_path: "{{.TempDir}}/issues_report.json"
    timeout: "30s"

    // "0" disables periodic refresh
    refresh_interval: "6h"
  }

  // ---------------------------------------------------------------------------
  // Report Archives
  // ---------------------------------------------------------------------------
  attachments: {
    format: "`)
	sb.WriteString(escapeHJSONValue(a.Format))
	sb.WriteString(`"
    level: 6
    max_file_size: 1073741824

    // Archives and state dumps older than this are removed at startup
    reap_after: "7d"
  }

  session: {
    // Quiet period before related issues are recomputed after an edit
    debounce: "1s"
  }

  // ---------------------------------------------------------------------------
  // Server Settings
  // ---------------------------------------------------------------------------
  server: {
    host: "127.0.0.1"
    port: `)
	sb.WriteString(strconv.Itoa(a.Port))
	sb.WriteString(`
  }

  logging: {
    level: "info"
    format: "`)
	if a.JSONLogs {
		sb.WriteString("json")
	} else {
		sb.WriteString("text")
	}
	sb.WriteString(`"
  }

  events: {
    history: {
      max_events: 1000
      max_age: "1h"
    }
  }
}
`)
	return sb.String()
}
