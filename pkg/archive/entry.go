// Package archive defines the entry and tree model shared by every
// container parser in the extraction pipeline, along with the error and
// warning taxonomy of the pipeline itself.
package archive

import (
	"fmt"
	"io/fs"
	"strings"
	"time"
)

// Entry is one record extracted from a container: a file or directory
// with metadata and, for non-empty files, its content. Content buffers
// are owned by the entry and never mutated after creation.
type Entry struct {
	Path    string // Slash-separated relative path, no leading slash
	Size    int64  // Uncompressed size in bytes, 0 for directories
	ModTime time.Time
	IsDir   bool
	Mode    fs.FileMode // Zero when the container carried no mode bits
	Content []byte      // Present only for files with Size > 0
}

// ValidatePath checks that p is an acceptable entry path: relative,
// slash-separated, every segment non-empty and free of traversal.
// Violating paths are rejected, never rewritten.
func ValidatePath(p string) error {
	if p == "" {
		return fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	if strings.HasPrefix(p, "/") {
		return fmt.Errorf("%w: absolute path %q", ErrInvalidPath, p)
	}
	for _, seg := range strings.Split(p, "/") {
		switch seg {
		case "":
			return fmt.Errorf("%w: empty segment in %q", ErrInvalidPath, p)
		case ".", "..":
			return fmt.Errorf("%w: traversal segment in %q", ErrInvalidPath, p)
		}
	}
	return nil
}

// NormalizePath strips the trailing slash that directory records carry
// in several container formats. It performs no other rewriting.
func NormalizePath(p string) string {
	return strings.TrimSuffix(p, "/")
}
