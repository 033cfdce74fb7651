// Package delegate routes container formats without a local parser to
// general-purpose archive libraries, normalizing their output to the
// shared entry shape so tree assembly and export run unchanged.
package delegate

import (
	"fmt"

	"github.com/RayLabsHQ/formatfuse/pkg/archive"
	"github.com/RayLabsHQ/formatfuse/pkg/format"
)

// Parse extracts data with the library registered for the container
// kind. Entries with invalid paths are dropped with a warning, matching
// the local parser's policy.
func Parse(c format.Container, data []byte) ([]*archive.Entry, []archive.Warning, error) {
	switch c {
	case format.ContainerZip:
		return parseZip(data)
	case format.ContainerSevenZip:
		return parseSevenZip(data)
	case format.ContainerRar:
		return parseRar(data)
	case format.ContainerISO:
		return parseISO(data)
	default:
		return nil, nil, fmt.Errorf("%w: no delegate for container %q", archive.ErrUnsupportedFormat, c)
	}
}

// checkPath applies the shared path policy and records a warning for
// rejects. It returns the normalized path and whether the entry may be
// kept.
func checkPath(raw string, warnings *[]archive.Warning) (string, bool) {
	path := archive.NormalizePath(raw)
	if err := archive.ValidatePath(path); err != nil {
		*warnings = append(*warnings, archive.Warning{
			Kind:   archive.WarnInvalidPath,
			Path:   raw,
			Detail: err.Error(),
		})
		return "", false
	}
	return path, true
}
