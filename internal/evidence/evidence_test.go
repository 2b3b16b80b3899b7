// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package evidence

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wingedpig/crashintake/internal/hostfs"
	"github.com/wingedpig/crashintake/internal/logging"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func newTestScanner(t *testing.T) (*Scanner, string, string) {
	t.Helper()
	root := t.TempDir()
	primary := filepath.Join(root, "temp", "dumps")
	legacy := filepath.Join(root, "legacy", "reports")
	s := NewScanner(hostfs.NewOS(), Config{PrimaryDir: primary, LegacyDir: legacy}, logging.Discard(), nil)
	return s, primary, legacy
}

func names(files []File) []string {
	var out []string
	for _, f := range files {
		out = append(out, f.Filename)
	}
	sort.Strings(out)
	return out
}

func TestScan_CreatesPrimaryDir(t *testing.T) {
	s, primary, legacy := newTestScanner(t)

	files := s.Scan(context.Background())
	assert.Empty(t, files)

	info, err := os.Stat(primary)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	_, err = os.Stat(legacy)
	assert.True(t, os.IsNotExist(err), "legacy dir must not be created")
}

func TestScan_FindsDumpsAndSidecars(t *testing.T) {
	s, primary, legacy := newTestScanner(t)
	writeFile(t, filepath.Join(primary, "a.dmp"), "dump-a")
	writeFile(t, filepath.Join(primary, "a.dmp.log"), "Exception code: e0000008\r\n")
	writeFile(t, filepath.Join(primary, "notes.txt"), "ignored")
	writeFile(t, filepath.Join(legacy, "b.dmp"), "dump-b")

	files := s.Scan(context.Background())
	assert.Equal(t, []string{"a.dmp", "a.dmp.log", "b.dmp"}, names(files))

	for _, f := range files {
		assert.Equal(t, f.Filename, f.ID)
		switch f.Filename {
		case "a.dmp":
			assert.Equal(t, CategoryDump, f.Category)
			assert.Equal(t, int64(6), f.Size)
			assert.Equal(t, filepath.Join(primary, "a.dmp"), f.Path)
		case "a.dmp.log":
			assert.Equal(t, CategorySidecarLog, f.Category)
		}
	}

	assert.ElementsMatch(t, []string{filepath.Join(primary, "a.dmp"), filepath.Join(legacy, "b.dmp")}, s.DumpPaths(files))
}

func TestScan_UnreadableLocationIsEmpty(t *testing.T) {
	root := t.TempDir()
	blocker := filepath.Join(root, "file")
	writeFile(t, blocker, "not a dir")

	// Primary cannot be created under a regular file; legacy does not exist.
	s := NewScanner(hostfs.NewOS(), Config{
		PrimaryDir: filepath.Join(blocker, "dumps"),
		LegacyDir:  filepath.Join(root, "missing"),
	}, logging.Discard(), nil)

	assert.Empty(t, s.Scan(context.Background()))
}

func TestScan_IgnoresDirectoriesNamedLikeDumps(t *testing.T) {
	s, primary, _ := newTestScanner(t)
	require.NoError(t, os.MkdirAll(filepath.Join(primary, "weird.dmp"), 0755))

	assert.Empty(t, s.Scan(context.Background()))
}

func TestDiscard_RemovesDumpAndSidecar(t *testing.T) {
	s, primary, _ := newTestScanner(t)
	dump := filepath.Join(primary, "a.dmp")
	writeFile(t, dump, "x")
	writeFile(t, dump+".log", "y")
	lonely := filepath.Join(primary, "b.dmp")
	writeFile(t, lonely, "z")

	removed := s.Discard(context.Background(), []string{dump, lonely, filepath.Join(primary, "gone.dmp")})
	assert.Equal(t, 3, removed)

	for _, p := range []string{dump, dump + ".log", lonely} {
		_, err := os.Stat(p)
		assert.True(t, os.IsNotExist(err), p)
	}
}

func TestCollectLogs(t *testing.T) {
	s, _, _ := newTestScanner(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "vortex.log"), "log")
	writeFile(t, filepath.Join(dir, "vortex1.log"), "log")
	writeFile(t, filepath.Join(dir, "state.json"), "{}")

	files := s.CollectLogs(context.Background(), dir)
	assert.Equal(t, []string{"vortex.log", "vortex1.log"}, names(files))
	for _, f := range files {
		assert.Equal(t, CategoryApplicationLog, f.Category)
	}

	assert.Empty(t, s.CollectLogs(context.Background(), filepath.Join(dir, "missing")))
}

func TestIdentify(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.txt")
	writeFile(t, path, "12345")

	f, err := Identify(context.Background(), hostfs.NewOS(), path, CategoryUserAttachment)
	require.NoError(t, err)
	assert.Equal(t, File{ID: "report.txt", Filename: "report.txt", Path: path, Size: 5, Category: CategoryUserAttachment}, f)

	_, err = Identify(context.Background(), hostfs.NewOS(), filepath.Join(dir, "nope"), CategoryUserAttachment)
	assert.Error(t, err)

	_, err = Identify(context.Background(), hostfs.NewOS(), dir, CategoryUserAttachment)
	assert.Error(t, err)
}

func TestCategory_Valid(t *testing.T) {
	assert.True(t, CategoryDump.Valid())
	assert.True(t, CategoryUserAttachment.Valid())
	assert.False(t, Category("other").Valid())
}
