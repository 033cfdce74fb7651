// Package session owns the per-upload extraction state: the parsed
// tree, the user's selection and expansion sets, and export of the
// selected subset. A session is created when a file is accepted and
// discarded wholesale when the next file is loaded; the parsing core
// never mutates it.
package session

import (
	"fmt"
	"sort"

	"github.com/RayLabsHQ/formatfuse/pkg/archive"
	"github.com/RayLabsHQ/formatfuse/pkg/format"
)

// Session is the root object of one user-initiated extraction.
type Session struct {
	Filename string
	Format   format.DetectedFormat
	Tree     *archive.Tree
	Warnings []archive.Warning

	selected map[string]struct{}
	expanded map[string]struct{}
}

// New creates a session around a parsed tree.
func New(filename string, f format.DetectedFormat, tree *archive.Tree, warnings []archive.Warning) *Session {
	return &Session{
		Filename: filename,
		Format:   f,
		Tree:     tree,
		Warnings: warnings,
		selected: make(map[string]struct{}),
		expanded: make(map[string]struct{}),
	}
}

// Select marks the node at path. Selecting a directory stands for every
// file leaf beneath it at export time.
func (s *Session) Select(path string) error {
	n, ok := s.Tree.Lookup(path)
	if !ok {
		return fmt.Errorf("%w: %q", archive.ErrNotFound, path)
	}
	s.selected[n.Path] = struct{}{}
	return nil
}

// Deselect unmarks the node at path. Unknown paths are a no-op.
func (s *Session) Deselect(path string) {
	delete(s.selected, archive.NormalizePath(path))
}

// IsSelected reports whether path is in the selection set.
func (s *Session) IsSelected(path string) bool {
	_, ok := s.selected[archive.NormalizePath(path)]
	return ok
}

// Selected returns the selection set in sorted order.
func (s *Session) Selected() []string {
	paths := make([]string, 0, len(s.selected))
	for p := range s.selected {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// ClearSelection empties the selection set.
func (s *Session) ClearSelection() {
	clear(s.selected)
}

// Expand marks a directory as expanded in the UI-facing state.
func (s *Session) Expand(path string) {
	s.expanded[archive.NormalizePath(path)] = struct{}{}
}

// Collapse removes a directory from the expanded set.
func (s *Session) Collapse(path string) {
	delete(s.expanded, archive.NormalizePath(path))
}

// IsExpanded reports whether a directory is expanded.
func (s *Session) IsExpanded(path string) bool {
	_, ok := s.expanded[archive.NormalizePath(path)]
	return ok
}
