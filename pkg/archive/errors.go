package archive

import "errors"

var (
	// ErrUnsupportedFormat is returned when detection yields no known
	// container or compression format.
	ErrUnsupportedFormat = errors.New("archive: unsupported format")

	// ErrUnsupportedAlgorithm is returned for a recognized but
	// unimplemented compression algorithm.
	ErrUnsupportedAlgorithm = errors.New("archive: unsupported compression algorithm")

	// ErrCorruptHeader is returned when a container header fails
	// structural sanity checks before any entry could be read.
	ErrCorruptHeader = errors.New("archive: corrupt header")

	// ErrDecompression is returned when a compression layer rejects its
	// stream outright. No partial output is produced.
	ErrDecompression = errors.New("archive: decompression failure")

	// ErrInvalidPath is returned when an entry path contains traversal
	// segments or is otherwise structurally invalid.
	ErrInvalidPath = errors.New("archive: invalid entry path")

	// ErrEmptySelection is returned when an export is requested with
	// nothing selected.
	ErrEmptySelection = errors.New("archive: empty selection")

	// ErrNotFound is returned when a path does not exist in the tree.
	ErrNotFound = errors.New("archive: path not found")
)
