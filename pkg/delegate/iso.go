package delegate

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/kdomanski/iso9660"

	"github.com/RayLabsHQ/formatfuse/pkg/archive"
)

func parseISO(data []byte) ([]*archive.Entry, []archive.Warning, error) {
	img, err := iso9660.OpenImage(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: iso: %v", archive.ErrCorruptHeader, err)
	}
	root, err := img.RootDir()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: iso: %v", archive.ErrCorruptHeader, err)
	}

	var entries []*archive.Entry
	var warnings []archive.Warning

	type frame struct {
		file   *iso9660.File
		prefix string
	}
	stack := []frame{{file: root}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		children, err := f.file.GetChildren()
		if err != nil {
			warnings = append(warnings, archive.Warning{
				Kind:   archive.WarnCorruptHeader,
				Path:   f.prefix,
				Detail: fmt.Sprintf("read directory: %v", err),
			})
			continue
		}
		for _, child := range children {
			name := isoName(child.Name())
			if name == "" || name == "." || name == ".." {
				continue
			}
			raw := name
			if f.prefix != "" {
				raw = f.prefix + "/" + name
			}
			path, ok := checkPath(raw, &warnings)
			if !ok {
				continue
			}
			if child.IsDir() {
				entries = append(entries, &archive.Entry{
					Path:    path,
					ModTime: child.ModTime(),
					IsDir:   true,
					Mode:    child.Mode() & 0o777,
				})
				stack = append(stack, frame{file: child, prefix: path})
				continue
			}

			content, err := io.ReadAll(child.Reader())
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
				ModTime: child.ModTime(),
				Mode:    child.Mode() & 0o777,
			}
			if len(content) > 0 {
				e.Content = content
			}
			entries = append(entries, e)
		}
	}
	return entries, warnings, nil
}

// isoName strips the ";1" version suffix ISO9660 appends to file
// identifiers.
func isoName(name string) string {
	if i := strings.IndexByte(name, ';'); i >= 0 {
		name = name[:i]
	}
	return name
}
