// Package watcher captures a candidate's workspace into a session by
// polling the working directory, detecting file changes, and recording
// snapshot events for anything that was added or modified.
package watcher

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/blackwell-systems/assay/internal/artifact"
	"github.com/blackwell-systems/assay/internal/session"
)

// DefaultInterval is how often the workspace is re-scanned.
const DefaultInterval = 2 * time.Second

// WorkState is a point-in-time picture of the workspace: every capturable
// file keyed by its relative path.
type WorkState struct {
	Timestamp time.Time
	Files     map[string]FileState
}

// FileState identifies one file's content at scan time.
type FileState struct {
	Checksum string
	Size     int64
	Language string
}

// Watcher polls a workspace directory and records changed files into a
// session. changeFn, when set, is called for every detected change after
// it has been recorded.
type Watcher struct {
	svc       *session.Service
	sessionID string
	root      string
	interval  time.Duration
	maxSize   int64
	previous  *WorkState
	changeFn  func(Change)
}

// New creates a watcher over root that records into the given session.
// interval <= 0 selects the default; maxSize <= 0 disables the size cap.
func New(svc *session.Service, sessionID, root string, interval time.Duration, changeFn func(Change)) *Watcher {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Watcher{
		svc:       svc,
		sessionID: sessionID,
		root:      root,
		interval:  interval,
		maxSize:   DefaultMaxFileSize,
		changeFn:  changeFn,
	}
}

// Run starts the watch loop. It takes an initial snapshot of every file
// already present, then re-scans at every interval. Blocks until ctx is
// cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	initial, err := w.Scan()
	if err != nil {
		return fmt.Errorf("initial scan: %w", err)
	}
	for _, c := range Compare(&WorkState{Files: map[string]FileState{}}, initial) {
		if err := w.record(ctx, c); err != nil {
			return err
		}
	}
	w.previous = initial

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.Check(ctx); err != nil {
				return err
			}
		}
	}
}

// Check performs a single cycle: re-scan the workspace, diff against the
// previous state, record every added or modified file, and advance the
// baseline. Removals are reported to changeFn but produce no event; the
// log keeps the last content seen.
func (w *Watcher) Check(ctx context.Context) error {
	curr, err := w.Scan()
	if err != nil {
		return fmt.Errorf("scanning %s: %w", w.root, err)
	}

	for _, c := range Compare(w.previous, curr) {
		if err := w.record(ctx, c); err != nil {
			return err
		}
	}

	w.previous = curr
	return nil
}

// Scan walks the workspace and fingerprints every capturable file.
func (w *Watcher) Scan() (*WorkState, error) {
	files, err := discover(w.root, w.maxSize)
	if err != nil {
		return nil, err
	}
	return &WorkState{Timestamp: time.Now(), Files: files}, nil
}

func (w *Watcher) record(ctx context.Context, c Change) error {
	if c.Kind != ChangeRemoved {
		content, err := os.ReadFile(c.absPath(w.root))
		if err != nil {
			// The file can vanish between scan and read; skip, the next
			// cycle reconciles.
			if os.IsNotExist(err) {
				return nil
			}
			return fmt.Errorf("reading %s: %w", c.Path, err)
		}
		// Re-check: the file may have changed since the scan hashed it.
		if artifact.Checksum(content) != c.State.Checksum {
			return nil
		}
		if _, err := w.svc.RecordSnapshot(ctx, w.sessionID, c.Path, c.State.Language, content); err != nil {
			return fmt.Errorf("recording %s: %w", c.Path, err)
		}
	}
	if w.changeFn != nil {
		w.changeFn(c)
	}
	return nil
}
