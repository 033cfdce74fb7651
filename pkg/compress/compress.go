// Package compress implements the decompression side of the supported
// compression wrappers. Every algorithm validates its magic before
// attempting a full decode and fails fast on a stream it does not
// recognize; there is no best-effort decoding.
package compress

import (
	"bytes"
	"compress/bzip2"
	"fmt"
	"io"

	ddzstd "github.com/DataDog/zstd"
	"github.com/klauspost/compress/gzip"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"

	"github.com/RayLabsHQ/formatfuse/pkg/archive"
	"github.com/RayLabsHQ/formatfuse/pkg/progress"
)

// Algorithm identifies one compression wrapper.
type Algorithm int

const (
	None Algorithm = iota
	Gzip
	Bzip2
	Xz
	Zstd
	Lz4
)

func (a Algorithm) String() string {
	switch a {
	case None:
		return "none"
	case Gzip:
		return "gzip"
	case Bzip2:
		return "bzip2"
	case Xz:
		return "xz"
	case Zstd:
		return "zstd"
	case Lz4:
		return "lz4"
	default:
		return "unknown"
	}
}

// magics holds the stream signatures checked before decoding.
var magics = map[Algorithm][][]byte{
	Gzip:  {{0x1F, 0x8B}},
	Bzip2: {[]byte("BZh")},
	Xz:    {{0xFD, 0x37, 0x7A, 0x58, 0x5A, 0x00}},
	Zstd:  {{0x28, 0xB5, 0x2F, 0xFD}},
	Lz4:   {{0x04, 0x22, 0x4D, 0x18}},
}

// HasMagic reports whether data begins with one of the algorithm's
// stream signatures.
func HasMagic(a Algorithm, data []byte) bool {
	for _, m := range magics[a] {
		if bytes.HasPrefix(data, m) {
			return true
		}
	}
	return false
}

// Decompress unwraps data through the listed algorithms. The list is in
// creation order (innermost first), so decoding walks it right to left:
// the outermost wrapper comes off first. rep may be nil.
func Decompress(data []byte, algos []Algorithm, rep *progress.Reporter) ([]byte, error) {
	out := data
	for i := len(algos) - 1; i >= 0; i-- {
		var err error
		out, err = decode(algos[i], out)
		if err != nil {
			return nil, err
		}
		rep.Add(int64(len(data)))
	}
	return out, nil
}

func decode(a Algorithm, data []byte) ([]byte, error) {
	if a == None {
		return data, nil
	}
	if _, ok := magics[a]; !ok {
		return nil, fmt.Errorf("%w: %s", archive.ErrUnsupportedAlgorithm, a)
	}
	if !HasMagic(a, data) {
		return nil, fmt.Errorf("%w: input lacks %s magic", archive.ErrDecompression, a)
	}

	switch a {
	case Gzip:
		return decodeGzip(data)
	case Bzip2:
		return readAll(a, bzip2.NewReader(bytes.NewReader(data)))
	case Xz:
		r, err := xz.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%w: xz: %v", archive.ErrDecompression, err)
		}
		return readAll(a, r)
	case Zstd:
		out, err := ddzstd.Decompress(nil, data)
		if err != nil {
			return nil, fmt.Errorf("%w: zstd: %v", archive.ErrDecompression, err)
		}
		return out, nil
	case Lz4:
		return readAll(a, lz4.NewReader(bytes.NewReader(data)))
	default:
		return nil, fmt.Errorf("%w: %s", archive.ErrUnsupportedAlgorithm, a)
	}
}

func decodeGzip(data []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: gzip: %v", archive.ErrDecompression, err)
	}
	defer zr.Close()
	return readAll(Gzip, zr)
}

func readAll(a Algorithm, r io.Reader) ([]byte, error) {
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", archive.ErrDecompression, a, err)
	}
	return out, nil
}
