// Package format classifies uploaded byte blobs into known container and
// compression formats. Structural magic-byte signatures are evaluated
// first; a filename-suffix table serves as the fallback when no
// signature matches, at reduced confidence.
package format

import (
	"bytes"
	"strings"

	"github.com/RayLabsHQ/formatfuse/pkg/compress"
)

// Container identifies a container layout carried inside (or instead of)
// a compression wrapper.
type Container int

const (
	// ContainerNone marks a bare file or bare compression wrapper.
	ContainerNone Container = iota
	ContainerTar
	ContainerZip
	ContainerSevenZip
	ContainerRar
	ContainerISO
)

func (c Container) String() string {
	switch c {
	case ContainerNone:
		return "none"
	case ContainerTar:
		return "tar"
	case ContainerZip:
		return "zip"
	case ContainerSevenZip:
		return "7z"
	case ContainerRar:
		return "rar"
	case ContainerISO:
		return "iso"
	default:
		return "unknown"
	}
}

// Confidence levels. A structural signature always beats a suffix match;
// suffix-only confidence scales with how specific the suffix was.
const (
	ConfidenceStructural     = 0.85
	ConfidenceCompoundSuffix = 0.7 // e.g. ".tar.zst"
	ConfidenceSuffix         = 0.6 // e.g. ".tar", ".zip"
	ConfidenceGenericSuffix  = 0.5 // e.g. bare ".zst"
)

// DetectedFormat is the detector's classification of one input blob.
type DetectedFormat struct {
	Container   Container
	Compression compress.Algorithm // compress.None when not wrapped
	Confidence  float64

	// ExtensionMismatch is set when the filename suffix suggested a
	// different format than the matched structural signature. The
	// signature wins; the mismatch is surfaced as a hint to the caller.
	ExtensionMismatch bool
}

// Unknown reports whether no classification was possible.
func (f DetectedFormat) Unknown() bool {
	return f.Container == ContainerNone && f.Compression == compress.None
}

func (f DetectedFormat) String() string {
	switch {
	case f.Unknown():
		return "unknown"
	case f.Container == ContainerNone:
		return f.Compression.String()
	case f.Compression == compress.None:
		return f.Container.String()
	default:
		return f.Container.String() + "+" + f.Compression.String()
	}
}

// signature couples a byte pattern at a fixed offset with the format it
// identifies. Longer patterns sharing a prefix are listed first.
type signature struct {
	offset      int
	magic       []byte
	container   Container
	compression compress.Algorithm
}

var signatures = []signature{
	// RAR v5 before v4: the v4 magic is a prefix of v5.
	{offset: 0, magic: []byte{0x52, 0x61, 0x72, 0x21, 0x1A, 0x07, 0x01, 0x00}, container: ContainerRar},
	{offset: 0, magic: []byte{0x52, 0x61, 0x72, 0x21, 0x1A, 0x07, 0x00}, container: ContainerRar},
	{offset: 0, magic: []byte{0x37, 0x7A, 0xBC, 0xAF, 0x27, 0x1C}, container: ContainerSevenZip},
	{offset: 0, magic: []byte{0x50, 0x4B, 0x03, 0x04}, container: ContainerZip},
	{offset: 0, magic: []byte{0x50, 0x4B, 0x05, 0x06}, container: ContainerZip}, // Empty zip
	{offset: 0, magic: []byte{0x1F, 0x8B}, compression: compress.Gzip},
	{offset: 0, magic: []byte("BZh"), compression: compress.Bzip2},
	{offset: 0, magic: []byte{0xFD, 0x37, 0x7A, 0x58, 0x5A, 0x00}, compression: compress.Xz},
	{offset: 0, magic: []byte{0x28, 0xB5, 0x2F, 0xFD}, compression: compress.Zstd},
	{offset: 0, magic: []byte{0x04, 0x22, 0x4D, 0x18}, compression: compress.Lz4},
	// ustar magic sits past the name/mode/size fields of the first header.
	{offset: 257, magic: []byte("ustar"), container: ContainerTar},
	// ISO9660 volume descriptors, one per supported sector layout.
	{offset: 0x8001, magic: []byte("CD001"), container: ContainerISO},
	{offset: 0x8801, magic: []byte("CD001"), container: ContainerISO},
	{offset: 0x9001, magic: []byte("CD001"), container: ContainerISO},
}

// suffixRule maps a filename suffix to a format at a given confidence.
// Compound suffixes must precede their generic tails.
type suffixRule struct {
	suffix      string
	container   Container
	compression compress.Algorithm
	confidence  float64
}

var suffixes = []suffixRule{
	{".tar.gz", ContainerTar, compress.Gzip, ConfidenceCompoundSuffix},
	{".tgz", ContainerTar, compress.Gzip, ConfidenceCompoundSuffix},
	{".tar.bz2", ContainerTar, compress.Bzip2, ConfidenceCompoundSuffix},
	{".tbz2", ContainerTar, compress.Bzip2, ConfidenceCompoundSuffix},
	{".tar.xz", ContainerTar, compress.Xz, ConfidenceCompoundSuffix},
	{".txz", ContainerTar, compress.Xz, ConfidenceCompoundSuffix},
	{".tar.zst", ContainerTar, compress.Zstd, ConfidenceCompoundSuffix},
	{".tzst", ContainerTar, compress.Zstd, ConfidenceCompoundSuffix},
	{".tar.lz4", ContainerTar, compress.Lz4, ConfidenceCompoundSuffix},
	{".tar", ContainerTar, compress.None, ConfidenceSuffix},
	{".zip", ContainerZip, compress.None, ConfidenceSuffix},
	{".7z", ContainerSevenZip, compress.None, ConfidenceSuffix},
	{".rar", ContainerRar, compress.None, ConfidenceSuffix},
	{".iso", ContainerISO, compress.None, ConfidenceSuffix},
	{".gz", ContainerNone, compress.Gzip, ConfidenceGenericSuffix},
	{".bz2", ContainerNone, compress.Bzip2, ConfidenceGenericSuffix},
	{".xz", ContainerNone, compress.Xz, ConfidenceGenericSuffix},
	{".zst", ContainerNone, compress.Zstd, ConfidenceGenericSuffix},
	{".lz4", ContainerNone, compress.Lz4, ConfidenceGenericSuffix},
}

// Detect classifies data, consulting filename only where the structure
// is silent. Deterministic and side-effect-free.
func Detect(data []byte, filename string) DetectedFormat {
	name := strings.ToLower(filename)

	if sig, ok := matchSignature(data); ok {
		f := DetectedFormat{
			Container:   sig.container,
			Compression: sig.compression,
			Confidence:  ConfidenceStructural,
		}
		rule, suffixMatched := matchSuffix(name)
		if !suffixMatched {
			return f
		}
		if f.Container == ContainerNone && f.Compression != compress.None {
			// A bare wrapper signature says nothing about the payload.
			// A compound suffix naming the same wrapper supplies the
			// container; anything else is a mismatch hint.
			if rule.compression == f.Compression {
				f.Container = rule.container
			} else {
				f.ExtensionMismatch = true
			}
			return f
		}
		if rule.container != f.Container || rule.compression != f.Compression {
			f.ExtensionMismatch = true
		}
		return f
	}

	if rule, ok := matchSuffix(name); ok {
		return DetectedFormat{
			Container:   rule.container,
			Compression: rule.compression,
			Confidence:  rule.confidence,
		}
	}

	return DetectedFormat{}
}

func matchSignature(data []byte) (signature, bool) {
	for _, sig := range signatures {
		end := sig.offset + len(sig.magic)
		if end > len(data) {
			continue
		}
		if bytes.Equal(data[sig.offset:end], sig.magic) {
			return sig, true
		}
	}
	return signature{}, false
}

func matchSuffix(name string) (suffixRule, bool) {
	for _, rule := range suffixes {
		if strings.HasSuffix(name, rule.suffix) {
			return rule, true
		}
	}
	return suffixRule{}, false
}

// ShouldDelegate reports whether extraction of the detected container
// must be routed to a general-purpose archive library instead of the
// local tar parser. Pure compression wrappers are never delegated.
func ShouldDelegate(f DetectedFormat) bool {
	switch f.Container {
	case ContainerZip, ContainerSevenZip, ContainerRar, ContainerISO:
		return true
	default:
		return false
	}
}
