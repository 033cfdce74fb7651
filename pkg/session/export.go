package session

import (
	"path"
	"time"

	"github.com/RayLabsHQ/formatfuse/pkg/archive"
)

// ExportFile is one (relativePath, bytes) pair of an export.
type ExportFile struct {
	Path    string
	ModTime time.Time
	Data    []byte
}

// Name returns the suggested download name for the file.
func (f ExportFile) Name() string {
	return path.Base(f.Path)
}

// ExportResult is either a single extracted file or a multi-entry
// bundle destined for repackaging. Exactly one of the two is set.
type ExportResult struct {
	Single *ExportFile
	Bundle []ExportFile
}

// Export resolves the current selection into an export result.
// Directories expand to every file leaf beneath them; duplicates from
// overlapping selections collapse to one occurrence. An empty selection
// returns archive.ErrEmptySelection, never a zero-length success.
func (s *Session) Export() (*ExportResult, error) {
	if len(s.selected) == 0 {
		return nil, archive.ErrEmptySelection
	}

	seen := make(map[string]struct{})
	var files []ExportFile
	for _, p := range s.Selected() {
		n, ok := s.Tree.Lookup(p)
		if !ok {
			// Selection predates the current tree; treat as stale.
			continue
		}
		for _, leaf := range n.Files() {
			if _, dup := seen[leaf.Path]; dup {
				continue
			}
			seen[leaf.Path] = struct{}{}
			f := ExportFile{Path: leaf.Path}
			if leaf.Entry != nil {
				f.ModTime = leaf.Entry.ModTime
				f.Data = leaf.Entry.Content
			}
			files = append(files, f)
		}
	}
	if len(files) == 0 {
		return nil, archive.ErrEmptySelection
	}

	if len(files) == 1 {
		return &ExportResult{Single: &files[0]}, nil
	}
	return &ExportResult{Bundle: files}, nil
}
