package delegate

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zip"

	"github.com/RayLabsHQ/formatfuse/pkg/archive"
)

func parseZip(data []byte) ([]*archive.Entry, []archive.Warning, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		// Non-local names are handled by the shared path policy below;
		// anything else means the central directory is unreadable.
		return nil, nil, fmt.Errorf("%w: zip: %v", archive.ErrCorruptHeader, err)
	}

	var entries []*archive.Entry
	var warnings []archive.Warning
	for _, f := range zr.File {
		path, ok := checkPath(f.Name, &warnings)
		if !ok {
			continue
		}
		if f.FileInfo().IsDir() {
			entries = append(entries, &archive.Entry{
				Path:    path,
				ModTime: f.Modified,
				IsDir:   true,
				Mode:    f.Mode(),
			})
			continue
		}

		content, err := readZipFile(f)
		if err != nil {
			warnings = append(warnings, archive.Warning{
				Kind:   archive.WarnTruncated,
				Path:   path,
				Detail: err.Error(),
			})
			continue
		}
		e := &archive.Entry{
			Path:    path,
			Size:    int64(len(content)),
			ModTime: f.Modified,
			Mode:    f.Mode(),
		}
		if len(content) > 0 {
			e.Content = content
		}
		entries = append(entries, e)
	}
	return entries, warnings, nil
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open entry: %w", err)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
