package delegate

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/nwaples/rardecode/v2"

	"github.com/RayLabsHQ/formatfuse/pkg/archive"
)

func parseRar(data []byte) ([]*archive.Entry, []archive.Warning, error) {
	r, err := rardecode.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: rar: %v", archive.ErrCorruptHeader, err)
	}

	var entries []*archive.Entry
	var warnings []archive.Warning
	for {
		hdr, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			if len(entries) == 0 {
				return nil, nil, fmt.Errorf("%w: rar: %v", archive.ErrCorruptHeader, err)
			}
			warnings = append(warnings, archive.Warning{
				Kind:   archive.WarnCorruptHeader,
				Detail: err.Error(),
			})
			break
		}

		// RAR stores backslash separators on archives produced on
		// Windows.
		path, ok := checkPath(strings.ReplaceAll(hdr.Name, `\`, "/"), &warnings)
		if !ok {
			continue
		}
		if hdr.IsDir {
			entries = append(entries, &archive.Entry{
				Path:    path,
				ModTime: hdr.ModificationTime,
				IsDir:   true,
				Mode:    hdr.Mode(),
			})
			continue
		}

		content, err := io.ReadAll(r)
		if err != nil {
			warnings = append(warnings, archive.Warning{
				Kind:   archive.WarnTruncated,
				Path:   path,
				Detail: fmt.Sprintf("read entry: %v", err),
			})
			continue
		}
		e := &archive.Entry{
			Path:    path,
			Size:    int64(len(content)),
			ModTime: hdr.ModificationTime,
			Mode:    hdr.Mode(),
		}
		if len(content) > 0 {
			e.Content = content
		}
		entries = append(entries, e)
	}
	return entries, warnings, nil
}
