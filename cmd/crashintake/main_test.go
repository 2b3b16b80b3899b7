// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wingedpig/crashintake/internal/config"
	"github.com/wingedpig/crashintake/internal/fingerprint"
)

// execute runs the root command with args and returns its stdout.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeTestConfig(t *testing.T) (path, dataDir string) {
	t.Helper()
	dataDir = t.TempDir()
	content := fmt.Sprintf(`{
		app: { user_data_dir: %q }
		evidence: { watch: false }
		corpus: { url: "http://127.0.0.1:1/issues.json", refresh_interval: "0" }
		logging: { level: "error", format: "text" }
	}`, dataDir)
	path = filepath.Join(dataDir, "crashintake.hjson")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path, dataDir
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "crashintake dev\n", out)
}

func TestFingerprintCommand(t *testing.T) {
	fingerprintFlags = reportFlags{}
	out, err := execute(t, "", "fingerprint", "-m", "boom", "--stack", "at x")
	require.NoError(t, err)

	want, ok := fingerprint.Generate("boom", "at x")
	require.True(t, ok)
	assert.Equal(t, want+"\n", out)
}

func TestFingerprintCommand_StackFromStdin(t *testing.T) {
	fingerprintFlags = reportFlags{}
	out, err := execute(t, "at y\n", "fingerprint", "--stack-file", "-")
	require.NoError(t, err)

	want, _ := fingerprint.Generate("", "at y\n")
	assert.Equal(t, want+"\n", out)
}

func TestFingerprintCommand_Empty(t *testing.T) {
	fingerprintFlags = reportFlags{}
	_, err := execute(t, "", "fingerprint", "-m", "  ")
	assert.Error(t, err)
}

func TestPackCommand(t *testing.T) {
	cfgPath, dataDir := writeTestConfig(t)
	src := filepath.Join(dataDir, "notes.txt")
	require.NoError(t, os.WriteFile(src, []byte("hello"), 0644))

	out, err := execute(t, "", "pack", "--config", cfgPath, src, filepath.Join(dataDir, "missing.txt"))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	archive := lines[len(lines)-1]
	assert.Contains(t, out, "skipping")
	assert.Equal(t, ".zip", filepath.Ext(archive))
	assert.FileExists(t, archive)
}

func TestPackCommand_NothingReadable(t *testing.T) {
	cfgPath, dataDir := writeTestConfig(t)
	_, err := execute(t, "", "pack", "--config", cfgPath, filepath.Join(dataDir, "missing.txt"))
	assert.Error(t, err)
}

func TestGenerateConfig_Loads(t *testing.T) {
	path := filepath.Join(t.TempDir(), defaultConfigFile)
	content := generateConfig(initAnswers{
		AppName:     `my "app"`,
		UserDataDir: t.TempDir(),
		CorpusURL:   "https://example.com/issues.json",
		Format:      "tar.zst",
		Port:        8123,
		JSONLogs:    false,
	})
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := config.NewLoader().LoadWithDefaults(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, config.NewValidator().Validate(cfg))

	assert.Equal(t, `my "app"`, cfg.App.Name)
	assert.Equal(t, "https://example.com/issues.json", cfg.Corpus.URL)
	assert.Equal(t, "tar.zst", cfg.Attachments.Format)
	assert.Equal(t, 8123, cfg.Server.Port)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.True(t, cfg.Evidence.IsWatching())
}

func TestInitCommand(t *testing.T) {
	output := filepath.Join(t.TempDir(), defaultConfigFile)
	initFlags.force = false
	answers := strings.Join([]string{"", "", "", "zip", "9000", "n"}, "\n") + "\n"

	out, err := execute(t, answers, "init", "--output", output)
	require.NoError(t, err)
	assert.Contains(t, out, "Created "+output)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(data), "port: 9000")
	assert.Contains(t, string(data), `format: "text"`)

	_, err = execute(t, "", "init", "--output", output)
	assert.Error(t, err)
}

func TestStatusCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var data any
		switch r.URL.Path {
		case "/api/v1/crashcheck":
			data = map[string]any{"state": "unknown_error", "result": map[string]any{"category": "unrecognized"},
				"evidence": []map[string]any{{"id": "a.dmp", "category": "dump"}}}
		case "/api/v1/session":
			data = map[string]any{"title": "Deploy crash", "origin": "crash_check", "mutable": true,
				"files": map[string]any{"a.dmp": map[string]any{"id": "a.dmp"}}}
		case "/api/v1/session/related":
			data = map[string]any{"issues": []map[string]any{{"id": "7", "title": "Deploy crash on start"}}}
		default:
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"data": data})
	}))
	defer srv.Close()

	out, err := execute(t, "", "status", "--server", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "Crash check: unknown_error (unrecognized)")
	assert.Contains(t, out, "Report:      Deploy crash [crash_check]")
	assert.Contains(t, out, "Files:       1")
	assert.Contains(t, out, "#7  Deploy crash on start")
}
