package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/assay/internal/backoff"
	"github.com/blackwell-systems/assay/internal/event"
	"github.com/blackwell-systems/assay/internal/session"
	"github.com/blackwell-systems/assay/internal/store"
)

func newWatchFixture(t *testing.T) (*Watcher, *store.DB, string, string) {
	t.Helper()
	db, err := store.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	svc := session.NewService(db, nil, backoff.Default, 0)
	sess, err := svc.Start(context.Background(), "cand-1")
	require.NoError(t, err)

	root := t.TempDir()
	w := New(svc, sess.ID, root, time.Hour, nil)
	return w, db, sess.ID, root
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func snapshotPaths(t *testing.T, db *store.DB, sessionID string) []string {
	t.Helper()
	events, err := db.ReadEvents(context.Background(), sessionID, store.Filter{
		EventTypes: []event.Type{event.TypeCodeSnapshot},
	})
	require.NoError(t, err)
	paths := make([]string, len(events))
	for i, ev := range events {
		paths[i] = ev.FilePath
	}
	return paths
}

func TestScan_DiscoversAndSkips(t *testing.T) {
	w, _, _, root := newWatchFixture(t)
	writeFile(t, root, "src/cache.js", "let c = {};")
	writeFile(t, root, "notes.md", "# plan")
	writeFile(t, root, ".env", "SECRET=1")
	writeFile(t, root, "node_modules/lib/index.js", "module.exports = {}")
	writeFile(t, root, ".git/HEAD", "ref: refs/heads/main")

	state, err := w.Scan()
	require.NoError(t, err)

	require.Len(t, state.Files, 2)
	require.Equal(t, "javascript", state.Files["src/cache.js"].Language)
	require.Equal(t, "markdown", state.Files["notes.md"].Language)
	require.NotEmpty(t, state.Files["src/cache.js"].Checksum)
}

func TestCompare_OrderedChanges(t *testing.T) {
	prev := &WorkState{Files: map[string]FileState{
		"a.go": {Checksum: "x1"},
		"b.go": {Checksum: "x2"},
	}}
	curr := &WorkState{Files: map[string]FileState{
		"a.go": {Checksum: "x1"},      // untouched
		"b.go": {Checksum: "changed"}, // modified
		"c.go": {Checksum: "x3"},      // added
	}}

	changes := Compare(prev, curr)
	require.Len(t, changes, 2)
	require.Equal(t, Change{Kind: ChangeModified, Path: "b.go", State: FileState{Checksum: "changed"}}, changes[0])
	require.Equal(t, Change{Kind: ChangeAdded, Path: "c.go", State: FileState{Checksum: "x3"}}, changes[1])

	removed := Compare(curr, prev)
	require.Len(t, removed, 2)
	require.Equal(t, ChangeModified, removed[0].Kind)
	require.Equal(t, ChangeRemoved, removed[1].Kind)
	require.Equal(t, "c.go", removed[1].Path)
}

func TestCheck_RecordsChangedFiles(t *testing.T) {
	w, db, sessID, root := newWatchFixture(t)
	ctx := context.Background()
	writeFile(t, root, "cache.js", "v1")

	initial, err := w.Scan()
	require.NoError(t, err)
	w.previous = initial

	// Unchanged workspace records nothing.
	require.NoError(t, w.Check(ctx))
	require.Empty(t, snapshotPaths(t, db, sessID))

	writeFile(t, root, "cache.js", "v2")
	writeFile(t, root, "util.js", "helper")
	require.NoError(t, w.Check(ctx))
	require.Equal(t, []string{"cache.js", "util.js"}, snapshotPaths(t, db, sessID))

	// Deleting a file is observed but does not append.
	require.NoError(t, os.Remove(filepath.Join(root, "util.js")))
	require.NoError(t, w.Check(ctx))
	require.Len(t, snapshotPaths(t, db, sessID), 2)
}

func TestCheck_ReportsChanges(t *testing.T) {
	var seen []Change
	w, _, _, root := newWatchFixture(t)
	w.changeFn = func(c Change) { seen = append(seen, c) }
	writeFile(t, root, "main.go", "package main")
	w.previous = &WorkState{Files: map[string]FileState{}}

	require.NoError(t, w.Check(context.Background()))
	require.Len(t, seen, 1)
	require.Equal(t, ChangeAdded, seen[0].Kind)
	require.Equal(t, "main.go", seen[0].Path)
	require.Equal(t, "go", seen[0].State.Language)
}

func TestRun_InitialSnapshotThenCancel(t *testing.T) {
	w, db, sessID, root := newWatchFixture(t)
	writeFile(t, root, "a.py", "print('hi')")
	writeFile(t, root, "b.py", "print('bye')")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool {
		return len(snapshotPaths(t, db, sessID)) == 2
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}
