package session

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/zip"
)

// WriteBundle repackages exported files into a single zip archive
// written to w, preserving the order and relative paths of the bundle.
func WriteBundle(w io.Writer, files []ExportFile) error {
	zw := zip.NewWriter(w)
	for _, f := range files {
		hdr := &zip.FileHeader{
			Name:     f.Path,
			Method:   zip.Deflate,
			Modified: f.ModTime,
		}
		fw, err := zw.CreateHeader(hdr)
		if err != nil {
			return fmt.Errorf("create bundle entry %q: %w", f.Path, err)
		}
		if _, err := fw.Write(f.Data); err != nil {
			return fmt.Errorf("write bundle entry %q: %w", f.Path, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalize bundle: %w", err)
	}
	return nil
}
