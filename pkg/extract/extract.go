// Package extract wires detection, decompression, container parsing and
// tree assembly into the single pipeline behind one upload. Each run is
// a pure function of the input bytes, the filename hint and the options;
// repeated runs over the same input produce structurally equal results.
package extract

import (
	"fmt"
	"strings"

	"github.com/RayLabsHQ/formatfuse/pkg/archive"
	"github.com/RayLabsHQ/formatfuse/pkg/compress"
	"github.com/RayLabsHQ/formatfuse/pkg/delegate"
	"github.com/RayLabsHQ/formatfuse/pkg/format"
	"github.com/RayLabsHQ/formatfuse/pkg/progress"
	"github.com/RayLabsHQ/formatfuse/pkg/tarball"
)

// Stage identifies the pipeline stage a failure originated from.
type Stage string

const (
	StageDetect     Stage = "detect"
	StageDecompress Stage = "decompress"
	StageParse      Stage = "parse"
)

// StageError tags a pipeline failure with the stage that produced it.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Options configures one pipeline run.
type Options struct {
	// Progress receives monotonically non-decreasing updates during
	// decompression and parsing. May be nil.
	Progress chan<- progress.Update
}

// Result is the published outcome of a successful pipeline run.
type Result struct {
	Format   format.DetectedFormat
	Entries  []*archive.Entry
	Tree     *archive.Tree
	Warnings []archive.Warning
}

// Extract runs the full pipeline over data. The returned tree is
// immutable; warnings carry every recoverable condition hit along the
// way. Failures are StageError values naming the failed stage.
func Extract(data []byte, filename string, opts Options) (*Result, error) {
	f := format.Detect(data, filename)
	if f.Unknown() {
		return nil, &StageError{StageDetect, fmt.Errorf("%w: %q", archive.ErrUnsupportedFormat, filename)}
	}

	payload := data
	parseLo := 0.0
	if f.Compression != compress.None {
		rep := progress.NewWindowed(opts.Progress, int64(len(data)), 0, 40)
		var err error
		payload, err = compress.Decompress(data, []compress.Algorithm{f.Compression}, rep)
		if err != nil {
			return nil, &StageError{StageDecompress, err}
		}
		rep.Done()
		parseLo = 40
	}

	container := f.Container
	if container == format.ContainerNone {
		// A bare wrapper: sniff the payload for a container the suffix
		// did not announce, otherwise surface it as a single file.
		inner := format.Detect(payload, "")
		if inner.Container != format.ContainerNone {
			container = inner.Container
		}
	}

	var (
		entries  []*archive.Entry
		warnings []archive.Warning
		err      error
	)
	switch {
	case container == format.ContainerTar:
		rep := progress.NewWindowed(opts.Progress, int64(len(payload)), parseLo, 100)
		entries, warnings, err = tarball.Parse(payload, rep)
		rep.Done()
	case format.ShouldDelegate(format.DetectedFormat{Container: container}):
		rep := progress.NewWindowed(opts.Progress, 1, parseLo, 100)
		entries, warnings, err = delegate.Parse(container, payload)
		rep.Done()
	default:
		entries = []*archive.Entry{singleFile(payload, filename)}
		progress.NewWindowed(opts.Progress, 1, parseLo, 100).Done()
	}
	if err != nil {
		return nil, &StageError{StageParse, err}
	}

	return &Result{
		Format:   f,
		Entries:  entries,
		Tree:     archive.Build(entries),
		Warnings: warnings,
	}, nil
}

// singleFile wraps a decompressed payload that carries no container as
// one synthetic entry named after the upload, minus the wrapper suffix.
func singleFile(payload []byte, filename string) *archive.Entry {
	e := &archive.Entry{
		Path: innerName(filename),
		Size: int64(len(payload)),
	}
	if len(payload) > 0 {
		e.Content = payload
	}
	return e
}

// innerName derives the payload name from the upload name by stripping
// the compression suffix, e.g. "notes.txt.gz" to "notes.txt".
func innerName(filename string) string {
	name := filename
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	lower := strings.ToLower(name)
	for _, suffix := range []string{".gz", ".bz2", ".xz", ".zst", ".lz4"} {
		if strings.HasSuffix(lower, suffix) {
			name = name[:len(name)-len(suffix)]
			break
		}
	}
	if name == "" {
		name = "file"
	}
	return name
}
