// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"context"
	"encoding/json"
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

	"github.com/wingedpig/crashintake/internal/crashcheck"
	"github.com/wingedpig/crashintake/internal/events"
)

const testCorpus = `[
	{"id": 1, "title": "Deployment failed", "body": "could not deploy mod", "url": "https://example.com/1"}
]`

func writeConfig(t *testing.T, corpusURL string, watch bool) string {
	t.Helper()
	dir := t.TempDir()
	content := fmt.Sprintf(`{
		app: {
			version: "1.2.3"
			user_data_dir: %q
		}
		evidence: {
			watch: %t
		}
		corpus: {
			url: %q
			refresh_interval: "0"
		}
		logging: {
			level: "error"
			format: "text"
		}
	}`, dir, watch, corpusURL)
	path := filepath.Join(dir, "crashintake.hjson")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func corpusServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, testCorpus)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNew_AppliesOverrides(t *testing.T) {
	path := writeConfig(t, "http://127.0.0.1:1/issues.json", false)

	a, err := New(context.Background(), Options{
		ConfigPath: path,
		Host:       "0.0.0.0",
		Port:       9999,
		LogLevel:   "debug",
		Version:    "2.0.0",
	})
	require.NoError(t, err)

	cfg := a.Config()
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, "2.0.0", cfg.App.Version)
}

func TestNew_InvalidOverride(t *testing.T) {
	path := writeConfig(t, "http://127.0.0.1:1/issues.json", false)

	_, err := New(context.Background(), Options{ConfigPath: path, LogFormat: "xml"})
	assert.Error(t, err)
}

func TestNew_MissingConfigFile(t *testing.T) {
	_, err := New(context.Background(), Options{ConfigPath: filepath.Join(t.TempDir(), "nope.hjson")})
	assert.Error(t, err)
}

func TestApp_StartServeShutdown(t *testing.T) {
	corpus := corpusServer(t)
	path := writeConfig(t, corpus.URL, true)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	a, err := New(context.Background(), Options{ConfigPath: path, Listener: ln})
	require.NoError(t, err)
	require.NoError(t, a.Initialize(context.Background()))
	require.NoError(t, a.Start(context.Background()))

	// No dumps at startup.
	assert.Equal(t, crashcheck.NoEvidence, a.Intake().Flow().State())

	// The startup refresh fills the cache.
	require.Eventually(t, func() bool {
		return len(a.Matcher().Issues(context.Background())) == 1
	}, 5*time.Second, 20*time.Millisecond)

	resp, err := http.Get("http://" + ln.Addr().String() + "/api/v1/session")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.NotNil(t, body.Data)

	// A new dump is picked up by the watcher.
	dumpDir := a.Config().Evidence.PrimaryDir
	require.NoError(t, os.WriteFile(filepath.Join(dumpDir, "crash.dmp"), []byte("MDMP"), 0644))
	require.Eventually(t, func() bool {
		state := a.Intake().Flow().State()
		return state == crashcheck.KnownError || state == crashcheck.UnknownError
	}, 10*time.Second, 50*time.Millisecond)

	require.NoError(t, a.Shutdown(context.Background()))

	_, err = http.Get("http://" + ln.Addr().String() + "/api/v1/session")
	assert.Error(t, err)
}

func TestApp_RunStopsOnStop(t *testing.T) {
	path := writeConfig(t, "http://127.0.0.1:1/issues.json", false)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	a, err := New(context.Background(), Options{ConfigPath: path, Listener: ln})
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() { errCh <- a.Run(context.Background()) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/api/v1/crashcheck")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	a.Stop()
	a.Stop()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after Stop")
	}
}

func TestApp_StateSources(t *testing.T) {
	path := writeConfig(t, "http://127.0.0.1:1/issues.json", false)
	a, err := New(context.Background(), Options{ConfigPath: path})
	require.NoError(t, err)
	require.NoError(t, a.Initialize(context.Background()))

	persistent, err := a.persistentState(context.Background())
	require.NoError(t, err)
	assert.Contains(t, persistent, "system")
	assert.Contains(t, persistent, "crashcheck")

	settings, err := a.settingsState(context.Background())
	require.NoError(t, err)
	assert.Equal(t, path, settings.(map[string]any)["config_path"])
}

func TestApp_NoticesAcceptEveryIntent(t *testing.T) {
	path := writeConfig(t, "http://127.0.0.1:1/issues.json", false)
	a, err := New(context.Background(), Options{ConfigPath: path})
	require.NoError(t, err)

	h := a.notices()
	for _, in := range []events.Intent{
		events.KnownErrorDetected{Category: "out_of_memory", Code: "e0000008"},
		events.UnknownErrorDetected{Codes: []string{"c0000005"}},
		events.EvidenceDismissed{Removed: 1},
		events.ReportDrafted{Origin: "crash_check"},
		events.ArchiveReady{Path: "/tmp/a.zip"},
		events.ArchiveFailed{Error: "disk full"},
		events.RelatedIssuesUpdated{},
		events.CorpusRefreshed{Outcome: "ok"},
	} {
		assert.NoError(t, h.Dispatch(context.Background(), in), "%T", in)
	}
}
