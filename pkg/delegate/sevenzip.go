package delegate

import (
	"bytes"
	"fmt"
	"io"

	"github.com/bodgit/sevenzip"

	"github.com/RayLabsHQ/formatfuse/pkg/archive"
)

func parseSevenZip(data []byte) ([]*archive.Entry, []archive.Warning, error) {
	r, err := sevenzip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: 7z: %v", archive.ErrCorruptHeader, err)
	}

	var entries []*archive.Entry
	var warnings []archive.Warning
	for _, f := range r.File {
		path, ok := checkPath(f.Name, &warnings)
		if !ok {
			continue
		}
		info := f.FileInfo()
		if info.IsDir() {
			entries = append(entries, &archive.Entry{
				Path:    path,
				ModTime: f.Modified,
				IsDir:   true,
				Mode:    info.Mode(),
			})
			continue
		}

		rc, err := f.Open()
		if err != nil {
			warnings = append(warnings, archive.Warning{
				Kind:   archive.WarnTruncated,
				Path:   path,
				Detail: fmt.Sprintf("open entry: %v", err),
			})
			continue
		}
		content, err := io.ReadAll(rc)
		rc.Close()
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
			ModTime: f.Modified,
			Mode:    info.Mode(),
		}
		if len(content) > 0 {
			e.Content = content
		}
		entries = append(entries, e)
	}
	return entries, warnings, nil
}
