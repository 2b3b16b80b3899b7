// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package intake

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wingedpig/crashintake/internal/attach"
	"github.com/wingedpig/crashintake/internal/classify"
	"github.com/wingedpig/crashintake/internal/corpus"
	"github.com/wingedpig/crashintake/internal/crashcheck"
	"github.com/wingedpig/crashintake/internal/environment"
	"github.com/wingedpig/crashintake/internal/events"
	"github.com/wingedpig/crashintake/internal/evidence"
	"github.com/wingedpig/crashintake/internal/fingerprint"
	"github.com/wingedpig/crashintake/internal/hostfs"
	"github.com/wingedpig/crashintake/internal/intakeerr"
	"github.com/wingedpig/crashintake/internal/logging"
	"github.com/wingedpig/crashintake/internal/session"
	"github.com/wingedpig/crashintake/internal/similarity"
)

const nullRefMessage = "System.NullReferenceException: Object reference not set to an instance of an object"

type fixedSource struct {
	data  []byte
	calls atomic.Int32
}

func (s *fixedSource) Fetch(context.Context) ([]byte, error) {
	s.calls.Add(1)
	return s.data, nil
}

// gateScorer blocks the first Score call until released.
type gateScorer struct {
	inner   similarity.Scorer
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func newGateScorer() *gateScorer {
	return &gateScorer{
		inner:   similarity.PartialRatio{},
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (g *gateScorer) Score(a, b string) int {
	g.once.Do(func() {
		close(g.entered)
		<-g.release
	})
	return g.inner.Score(a, b)
}

type fixture struct {
	svc     *Service
	store   *session.Store
	bus     *events.MemoryBus
	primary string
	logDir  string
	archive string
	cache   string
	source  *fixedSource
}

type fixtureOption func(*fixtureConfig)

type fixtureConfig struct {
	scorer     similarity.Scorer
	archiveDir string
}

func withScorer(s similarity.Scorer) fixtureOption {
	return func(c *fixtureConfig) { c.scorer = s }
}

func withArchiveDir(dir string) fixtureOption {
	return func(c *fixtureConfig) { c.archiveDir = dir }
}

func newFixture(t *testing.T, issues string, opts ...fixtureOption) *fixture {
	t.Helper()
	root := t.TempDir()
	fx := &fixture{
		store:   session.NewStore(),
		bus:     events.NewMemoryBus(events.MemoryBusConfig{Logger: logging.Discard()}),
		primary: filepath.Join(root, "dumps"),
		logDir:  filepath.Join(root, "userdata"),
		archive: filepath.Join(root, "archives"),
		cache:   filepath.Join(root, "issues_report.json"),
		source:  &fixedSource{data: []byte(issues)},
	}
	t.Cleanup(func() { fx.bus.Close() })

	cfg := fixtureConfig{archiveDir: fx.archive}
	for _, o := range opts {
		o(&cfg)
	}

	require.NoError(t, os.MkdirAll(fx.logDir, 0o755))
	if issues != "" {
		require.NoError(t, os.WriteFile(fx.cache, []byte(issues), 0o644))
	}

	fsys := hostfs.NewOS()
	logger := logging.Discard()
	scanner := evidence.NewScanner(fsys, evidence.Config{PrimaryDir: fx.primary}, logger, nil)
	classifier := classify.New(fsys, environment.Static{}, classify.Config{}, logger, nil)
	matcher := corpus.NewMatcher(corpus.NewCache(fsys, fx.cache), fx.source, cfg.scorer, logger, nil)

	fx.svc = New(Deps{
		FS:        fsys,
		Store:     fx.store,
		Scanner:   scanner,
		Matcher:   matcher,
		Assembler: attach.NewAssembler(fsys, attach.Config{Dir: cfg.archiveDir}, logger, nil),
		Dumper:    attach.NewDumper(fsys, fx.archive, logger),
		Flow:      crashcheck.New(fsys, scanner, classifier, fx.store, fx.bus, logger),
		Bus:       fx.bus,
		Logger:    logger,
	}, Config{Debounce: 20 * time.Millisecond, LogDir: fx.logDir})
	t.Cleanup(fx.svc.Close)
	return fx
}

func (fx *fixture) intents(t *testing.T, kind string) []events.Intent {
	t.Helper()
	records, err := fx.bus.History(events.Filter{Kinds: []string{kind}})
	require.NoError(t, err)
	out := make([]events.Intent, 0, len(records))
	for _, r := range records {
		out = append(out, r.Intent)
	}
	return out
}

const nullRefIssues = `[
	{"id": 101, "title": "Crash when deploying mods", "body": "System.NullReferenceException: Object reference not set to an instance of an object.\n   at Deploy()", "hash": "", "url": "https://example.com/101"},
	{"id": 102, "title": "Downloads are slow", "body": "Speed drops to zero", "url": "https://example.com/102"}
]`

func TestService_RecomputeFindsRelated(t *testing.T) {
	fx := newFixture(t, nullRefIssues)
	fx.svc.Start(context.Background())

	for _, msg := range []string{"System", "System.NullReference", nullRefMessage} {
		_, err := fx.store.SetMessage(msg)
		require.NoError(t, err)
	}

	want, ok := fingerprint.Generate(nullRefMessage, "")
	require.True(t, ok)
	require.Eventually(t, func() bool {
		return fx.store.Get().Fingerprint == want
	}, 2*time.Second, 5*time.Millisecond)

	require.Eventually(t, func() bool {
		return len(fx.svc.Related().Issues) == 1
	}, 2*time.Second, 5*time.Millisecond)
	related := fx.svc.Related()
	assert.Equal(t, corpus.IssueID("101"), related.Issues[0].ID)
	assert.Equal(t, want, related.Fingerprint)
	assert.Equal(t, fx.store.Generation(), related.Generation)

	// The intent is published after the result is stored.
	require.Eventually(t, func() bool {
		updates := fx.intents(t, events.KindRelatedUpdated)
		if len(updates) == 0 {
			return false
		}
		last := updates[len(updates)-1].(events.RelatedIssuesUpdated)
		return len(last.IssueIDs) == 1 && last.IssueIDs[0] == "101"
	}, 2*time.Second, 5*time.Millisecond)
}

func TestService_RecomputeMatchesTitleAndMessage(t *testing.T) {
	issues := `[
		{"id": 201, "title": "NullReferenceException in Foo.bar()", "body": ""},
		{"id": 202, "title": "Mods vanish after update", "body": "Log excerpt:\nNullReference at Foo.bar\n   at Baz.Run()"},
		{"id": 203, "title": "Downloads are slow", "body": "Speed drops to zero"}
	]`
	fx := newFixture(t, issues)
	fx.svc.Start(context.Background())

	_, err := fx.store.SetTitle("NullReference at Foo.bar")
	require.NoError(t, err)
	const message = "NullReference at Foo.bar"
	for _, msg := range []string{"Null", "NullRef", message} {
		_, err := fx.store.SetMessage(msg)
		require.NoError(t, err)
	}

	want, ok := fingerprint.Generate(message, "")
	require.True(t, ok)
	require.Eventually(t, func() bool {
		return fx.svc.Related().Fingerprint == want
	}, 2*time.Second, 5*time.Millisecond)

	related := fx.svc.Related()
	var ids []corpus.IssueID
	for _, issue := range related.Issues {
		ids = append(ids, issue.ID)
	}
	// 201 through the title, 202 through the message; 203 matches neither.
	assert.ElementsMatch(t, []corpus.IssueID{"201", "202"}, ids)
	assert.Equal(t, fx.store.Generation(), related.Generation)
}

func TestService_FingerprintMatchWithoutSimilarity(t *testing.T) {
	fp, _ := fingerprint.Generate("opaque failure", "at X()")
	issues := `[{"id": "7", "title": "Unrelated title", "body": "Unrelated body", "hash": "` + fp + `"}]`
	fx := newFixture(t, issues)
	fx.svc.Start(context.Background())

	_, err := fx.store.SetMessage("opaque failure")
	require.NoError(t, err)
	_, err = fx.store.SetStackTrace("at X()")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		r := fx.svc.Related()
		return len(r.Issues) == 1 && r.Issues[0].ID == "7"
	}, 2*time.Second, 5*time.Millisecond)
}

func TestService_RecomputeDroppedAfterClear(t *testing.T) {
	gate := newGateScorer()
	fx := newFixture(t, nullRefIssues, withScorer(gate))
	fx.svc.Start(context.Background())

	old := fx.store.Generation()
	_, err := fx.store.SetMessage(nullRefMessage)
	require.NoError(t, err)

	select {
	case <-gate.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("recompute did not start")
	}
	cleared := fx.svc.Clear()
	close(gate.release)

	// Let the in-flight run and the run for the cleared session finish.
	time.Sleep(150 * time.Millisecond)

	snap := fx.store.Get()
	assert.Equal(t, cleared.Generation, snap.Generation)
	assert.Greater(t, snap.Generation, old)
	assert.Empty(t, snap.Fingerprint)
	related := fx.svc.Related()
	assert.Empty(t, related.Issues)
	assert.Equal(t, snap.Generation, related.Generation)

	for _, in := range fx.intents(t, events.KindRelatedUpdated) {
		assert.NotEqual(t, old, in.(events.RelatedIssuesUpdated).Generation)
	}
}

func TestService_RelatedEmptyBeforeRecompute(t *testing.T) {
	fx := newFixture(t, "")
	r := fx.svc.Related()
	assert.NotNil(t, r.Issues)
	assert.Empty(t, r.Issues)
}

func TestService_MissingCorpusYieldsNoSuggestions(t *testing.T) {
	fx := newFixture(t, "")
	fx.svc.Start(context.Background())
	_, err := fx.store.SetMessage(nullRefMessage)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return fx.store.Get().Fingerprint != ""
	}, 2*time.Second, 5*time.Millisecond)
	assert.Empty(t, fx.svc.Related().Issues)
}

func TestService_RefreshCorpusPublishesAndRecomputes(t *testing.T) {
	fx := newFixture(t, "")
	fx.source.data = []byte(nullRefIssues)
	fx.svc.Start(context.Background())

	_, err := fx.store.SetMessage(nullRefMessage)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return fx.store.Get().Fingerprint != ""
	}, 2*time.Second, 5*time.Millisecond)
	assert.Empty(t, fx.svc.Related().Issues)

	res := fx.svc.RefreshCorpus(context.Background())
	assert.Equal(t, corpus.OutcomeOK, res.Outcome)
	assert.Equal(t, 2, res.Issues)

	refreshed := fx.intents(t, events.KindCorpusRefresh)
	require.Len(t, refreshed, 1)
	assert.Equal(t, corpus.OutcomeOK, refreshed[0].(events.CorpusRefreshed).Outcome)

	require.Eventually(t, func() bool {
		return len(fx.svc.Related().Issues) == 1
	}, 2*time.Second, 5*time.Millisecond)
}

func TestService_RunCorpusRefresh(t *testing.T) {
	fx := newFixture(t, "")
	fx.source.data = []byte(`[]`)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		fx.svc.RunCorpusRefresh(ctx, 20*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return len(fx.intents(t, events.KindCorpusRefresh)) >= 2
	}, 2*time.Second, 5*time.Millisecond)
	cancel()
	<-done
}

func TestService_CheckCrash(t *testing.T) {
	fx := newFixture(t, "")
	require.NoError(t, os.MkdirAll(fx.primary, 0o755))
	dump := filepath.Join(fx.primary, "crash.dmp")
	require.NoError(t, os.WriteFile(dump, []byte("MDMP"), 0o644))
	require.NoError(t, os.WriteFile(dump+".log", []byte("Exception code: e0000008\r\n"), 0o644))

	d, err := fx.svc.CheckCrash(context.Background())
	require.NoError(t, err)
	assert.Equal(t, crashcheck.KnownError, d.State)
	assert.Equal(t, classify.OutOfMemory, d.Result.Category)
	assert.Len(t, fx.intents(t, events.KindKnownError), 1)
}

func TestService_FeedbackTriggerLocksSession(t *testing.T) {
	fx := newFixture(t, nullRefIssues)
	fx.svc.Start(context.Background())

	attachment := filepath.Join(t.TempDir(), "screenshot.png")
	require.NoError(t, os.WriteFile(attachment, []byte("png"), 0o644))

	snap, err := fx.svc.HandleTrigger(context.Background(), FeedbackRequested{
		Title:   "Caught exception",
		Message: nullRefMessage,
		Hash:    "host-supplied-hash",
		Files:   []string{attachment, filepath.Join(t.TempDir(), "missing.txt")},
	})
	require.NoError(t, err)
	assert.False(t, snap.Mutable)
	assert.Equal(t, session.OriginFeedback, snap.Origin)
	assert.Equal(t, "host-supplied-hash", snap.Fingerprint)
	require.Len(t, snap.Files, 1)
	assert.Equal(t, evidence.CategoryUserAttachment, snap.Files["screenshot.png"].Category)

	_, err = fx.store.SetTitle("edited")
	assert.ErrorIs(t, err, session.ErrImmutable)

	require.Eventually(t, func() bool {
		return len(fx.svc.Related().Issues) == 1
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, "host-supplied-hash", fx.store.Get().Fingerprint)

	drafted := fx.intents(t, events.KindReportDrafted)
	require.Len(t, drafted, 1)
	assert.True(t, drafted[0].(events.ReportDrafted).Locked)
}

func TestService_FeedbackTriggerSplitsFormattedReport(t *testing.T) {
	fx := newFixture(t, "")
	formatted := "#### System\n| Platform | windows |\n#### Message\nENOENT: no such file\n" +
		"#### Context\n```\nduring deployment\n```\n#### Stack\n```\nat deploy (deploy.js:10)\n```\n"

	snap, err := fx.svc.HandleTrigger(context.Background(), FeedbackRequested{
		Title:   "Deployment failed",
		Message: formatted,
	})
	require.NoError(t, err)
	assert.Equal(t, "ENOENT: no such file", snap.Message)
	assert.Equal(t, "at deploy (deploy.js:10)", snap.StackTrace)
	assert.Equal(t, "during deployment", snap.Context)
	assert.Empty(t, snap.Fingerprint)
}

func TestService_LogErrorTrigger(t *testing.T) {
	fx := newFixture(t, "")
	logPath := filepath.Join(fx.logDir, "session-1.log")
	require.NoError(t, os.WriteFile(logPath, []byte("log"), 0o644))

	snap, err := fx.svc.HandleTrigger(context.Background(), LogErrorReported{Path: logPath})
	require.NoError(t, err)
	assert.Equal(t, evidence.CategoryApplicationLog, snap.Files["session-1.log"].Category)

	_, err = fx.svc.HandleTrigger(context.Background(), LogErrorReported{Path: filepath.Join(fx.logDir, "gone.log")})
	require.Error(t, err)
	assert.Equal(t, intakeerr.KindEvidenceUnavailable, intakeerr.KindOf(err))

	_, err = fx.svc.HandleTrigger(context.Background(), nil)
	assert.ErrorIs(t, err, ErrUnknownTrigger)
}

func TestService_AttachFiles(t *testing.T) {
	fx := newFixture(t, "")
	dir := t.TempDir()
	notes := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(notes, []byte("notes"), 0o644))

	snap, rejected := fx.svc.AttachFiles(context.Background(), []string{notes, filepath.Join(dir, "nope.txt"), dir})
	require.Len(t, rejected, 2)
	assert.Equal(t, filepath.Join(dir, "nope.txt"), rejected[0].Path)
	assert.Equal(t, dir, rejected[1].Path)
	require.Len(t, snap.Files, 1)
	assert.Equal(t, evidence.CategoryUserAttachment, snap.Files["notes.txt"].Category)
}

func TestService_GenerateReportFiles(t *testing.T) {
	fx := newFixture(t, "")
	require.NoError(t, os.MkdirAll(fx.primary, 0o755))
	dump := filepath.Join(fx.primary, "crash.dmp")
	require.NoError(t, os.WriteFile(dump, []byte("MDMP"), 0o644))
	require.NoError(t, os.WriteFile(dump+".log", []byte("Exception code: c0000005"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(fx.logDir, "main.log"), []byte("log"), 0o644))

	fx.svc.AddStateSource("settings", func(context.Context) (any, error) {
		return map[string]string{"format": "zip"}, nil
	})
	fx.svc.AddStateSource("persistent", func(context.Context) (any, error) {
		return nil, errors.New("state store offline")
	})
	_, err := fx.bus.Publish(context.Background(), events.EvidenceDismissed{})
	require.NoError(t, err)

	files, err := fx.svc.GenerateReportFiles(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "persistent")

	var names []string
	for _, f := range files {
		names = append(names, f.Filename)
	}
	assert.ElementsMatch(t, []string{
		EventLogName, "session.json", "settings.json", "crash.dmp", "crash.dmp.log", "main.log",
	}, names)

	snap := fx.store.Get()
	assert.Len(t, snap.Files, 6)
	eventLog := snap.Files[EventLogName]
	assert.Equal(t, evidence.CategoryStateSnapshot, eventLog.Category)
	data, err := os.ReadFile(eventLog.Path)
	require.NoError(t, err)
	assert.Contains(t, string(data), events.KindDismissed)
	assert.True(t, strings.HasPrefix(filepath.Base(eventLog.Path), attach.TempPrefix+"events-"))
}

func TestService_GenerateArchive(t *testing.T) {
	fx := newFixture(t, "")

	path, err := fx.svc.GenerateArchive(context.Background())
	require.NoError(t, err)
	assert.Empty(t, path)

	logPath := filepath.Join(fx.logDir, "main.log")
	require.NoError(t, os.WriteFile(logPath, []byte("log line"), 0o644))
	_, err = fx.svc.HandleTrigger(context.Background(), LogErrorReported{Path: logPath})
	require.NoError(t, err)

	path, err = fx.svc.GenerateArchive(context.Background())
	require.NoError(t, err)
	assert.FileExists(t, path)
	assert.Equal(t, path, fx.store.Get().ArchivePath)

	ready := fx.intents(t, events.KindArchiveReady)
	require.Len(t, ready, 1)
	assert.Equal(t, path, ready[0].(events.ArchiveReady).Path)
}

func TestService_GenerateArchiveFailure(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	fx := newFixture(t, "", withArchiveDir(filepath.Join(blocker, "archives")))

	logPath := filepath.Join(fx.logDir, "main.log")
	require.NoError(t, os.WriteFile(logPath, []byte("log line"), 0o644))
	_, err := fx.svc.HandleTrigger(context.Background(), LogErrorReported{Path: logPath})
	require.NoError(t, err)

	path, err := fx.svc.GenerateArchive(context.Background())
	require.Error(t, err)
	assert.Empty(t, path)
	assert.ErrorIs(t, err, intakeerr.ErrAssemblyFailed)
	assert.Empty(t, fx.store.Get().ArchivePath)

	failed := fx.intents(t, events.KindArchiveFailed)
	require.Len(t, failed, 1)
	assert.NotEmpty(t, failed[0].(events.ArchiveFailed).Error)
}
