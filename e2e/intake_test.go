// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package e2e

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wingedpig/crashintake/internal/app"
	"github.com/wingedpig/crashintake/pkg/client"
)

const knownHash = "9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08"

var corpusDoc = fmt.Sprintf(`[
	{"id": 101, "title": "Out of memory while deploying", "body": "deployment aborted", "hash": %q, "url": "https://example.com/101"},
	{"id": "102", "title": "Unrelated", "body": "nothing to see", "url": "https://example.com/102"}
]`, knownHash)

type harness struct {
	app     *app.App
	client  *client.Client
	dataDir string
	dumpDir string
}

// startApp runs a full app against a temp data dir with one crash dump from
// the previous session already on disk.
func startApp(t *testing.T) *harness {
	t.Helper()

	corpus := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, corpusDoc)
	}))
	t.Cleanup(corpus.Close)

	dataDir := t.TempDir()
	dumpDir := filepath.Join(dataDir, "temp", "dumps")
	require.NoError(t, os.MkdirAll(dumpDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dumpDir, "crash.dmp"), []byte("MDMP"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dumpDir, "crash.dmp.log"),
		[]byte("Exception code: e0000008\n"), 0644))

	cfgPath := filepath.Join(dataDir, "crashintake.hjson")
	require.NoError(t, os.WriteFile(cfgPath, []byte(fmt.Sprintf(`{
		app: { user_data_dir: %q, version: "1.0.0" }
		evidence: { watch: false }
		corpus: { url: %q, refresh_interval: "0" }
		session: { debounce: "50ms" }
		logging: { level: "error", format: "text" }
	}`, dataDir, corpus.URL)), 0644))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx := context.Background()
	a, err := app.New(ctx, app.Options{ConfigPath: cfgPath, Listener: ln})
	require.NoError(t, err)
	require.NoError(t, a.Initialize(ctx))
	require.NoError(t, a.Start(ctx))
	t.Cleanup(func() { a.Shutdown(context.Background()) })

	return &harness{
		app:     a,
		client:  client.New("http://" + ln.Addr().String()),
		dataDir: dataDir,
		dumpDir: dumpDir,
	}
}

func TestCrashToArchive(t *testing.T) {
	h := startApp(t)
	ctx := context.Background()

	d, err := h.client.CrashCheck.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "known_error", d.State)
	assert.Equal(t, "out_of_memory", d.Result.Category)
	assert.NotEmpty(t, d.Explanation)

	info, err := h.client.CrashCheck.More(ctx)
	require.NoError(t, err)
	assert.True(t, info.Known)

	started, err := h.client.CrashCheck.Report(ctx)
	require.NoError(t, err)
	assert.Equal(t, "crash_check", started.Session.Origin)
	assert.True(t, started.Session.Mutable)
	assert.Contains(t, started.Session.Files, "crash.dmp")

	// Reporting is a one-way transition.
	_, err = h.client.CrashCheck.Dismiss(ctx)
	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, client.CodeConflict, apiErr.Code)

	sess, err := h.client.Session.SetTitle(ctx, "Deployment crashes with out of memory")
	require.NoError(t, err)
	assert.Equal(t, "Deployment crashes with out of memory", sess.Title)

	files, err := h.client.Session.ReportFiles(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, files.Files)

	path, err := h.client.Session.Archive(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, path)
	assert.FileExists(t, path)

	sess, err = h.client.Session.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, path, sess.ArchivePath)

	events, err := h.client.Events.List(ctx, &client.ListOptions{Kinds: []string{"crash.*", "archive.*"}})
	require.NoError(t, err)
	var kinds []string
	for _, e := range events {
		kinds = append(kinds, e.Kind)
	}
	assert.Contains(t, kinds, "crash.known_error")
	assert.Contains(t, kinds, "archive.ready")
}

func TestFeedbackRelatedByHash(t *testing.T) {
	h := startApp(t)
	ctx := context.Background()

	require.Eventually(t, func() bool {
		return len(h.app.Matcher().Issues(ctx)) == 2
	}, 5*time.Second, 20*time.Millisecond)

	sess, err := h.client.Triggers.Feedback(ctx, client.Feedback{
		Title:   "Caught exception",
		Message: "Something went wrong",
		Hash:    knownHash,
	})
	require.NoError(t, err)
	assert.False(t, sess.Mutable)
	assert.Equal(t, knownHash, sess.Fingerprint)

	_, err = h.client.Session.SetMessage(ctx, "edited")
	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, client.CodeImmutable, apiErr.Code)

	// Notes are still allowed on a locked report.
	_, err = h.client.Session.Annotate(ctx, "it happened twice")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		rel, err := h.client.Session.Related(ctx)
		return err == nil && len(rel.Issues) == 1 && rel.Issues[0].ID == "101"
	}, 5*time.Second, 20*time.Millisecond)
}

func TestDismissRemovesDumps(t *testing.T) {
	h := startApp(t)
	ctx := context.Background()

	n, err := h.client.CrashCheck.Dismiss(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NoFileExists(t, filepath.Join(h.dumpDir, "crash.dmp"))

	d, err := h.client.CrashCheck.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, "no_evidence", d.State)
}

func TestRenderAndSystem(t *testing.T) {
	h := startApp(t)
	ctx := context.Background()

	_, err := h.client.Session.SetTitle(ctx, "Mods vanish after restart")
	require.NoError(t, err)

	out, err := h.client.Report.Render(ctx, client.RenderOptions{Steps: "1. restart"})
	require.NoError(t, err)
	assert.Equal(t, "Mods vanish after restart", out.Title)
	assert.Contains(t, out.Body, "1. restart")

	v, err := h.client.Report.Validate(ctx, "title", "short")
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, "length", v.Reason)

	sys, err := h.client.Report.System(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", sys.AppVersion)
}
