package watcher

import (
	"path/filepath"
	"sort"
)

// ChangeKind classifies what happened to a file between two scans.
type ChangeKind string

const (
	ChangeAdded    ChangeKind = "added"
	ChangeModified ChangeKind = "modified"
	ChangeRemoved  ChangeKind = "removed"
)

// Change is one detected workspace edit.
type Change struct {
	Kind  ChangeKind
	Path  string
	State FileState
}

func (c Change) absPath(root string) string {
	return filepath.Join(root, filepath.FromSlash(c.Path))
}

// Compare diffs two workspace states and returns the changes, ordered by
// path so repeated runs over the same edit produce the same sequence of
// recorded events.
func Compare(prev, curr *WorkState) []Change {
	if prev == nil {
		prev = &WorkState{}
	}
	var changes []Change

	for path, state := range curr.Files {
		old, existed := prev.Files[path]
		switch {
		case !existed:
			changes = append(changes, Change{Kind: ChangeAdded, Path: path, State: state})
		case old.Checksum != state.Checksum:
			changes = append(changes, Change{Kind: ChangeModified, Path: path, State: state})
		}
	}

	for path, state := range prev.Files {
		if _, exists := curr.Files[path]; !exists {
			changes = append(changes, Change{Kind: ChangeRemoved, Path: path, State: state})
		}
	}

	sort.Slice(changes, func(i, j int) bool {
		if changes[i].Path != changes[j].Path {
			return changes[i].Path < changes[j].Path
		}
		return changes[i].Kind < changes[j].Kind
	})
	return changes
}
