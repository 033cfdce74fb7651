package archive

import "fmt"

// WarningKind classifies recoverable conditions encountered during a
// parse. Warnings ride along with a successful result; they never abort
// the pipeline.
type WarningKind int

const (
	// WarnTruncated marks a declared entry size running past the end of
	// the buffer. Entries read before that point are kept.
	WarnTruncated WarningKind = iota

	// WarnCorruptHeader marks a header that failed structural sanity
	// after at least one entry was already read.
	WarnCorruptHeader

	// WarnInvalidPath marks an entry dropped because its path failed
	// validation.
	WarnInvalidPath

	// WarnChecksum marks a header checksum mismatch. The entry is kept.
	WarnChecksum

	// WarnLongName marks a path truncated at the classic field width
	// because no extended-naming record was present.
	WarnLongName

	// WarnSkippedEntry marks an entry type that is not reproduced
	// (links, device nodes) and was skipped.
	WarnSkippedEntry
)

func (k WarningKind) String() string {
	switch k {
	case WarnTruncated:
		return "truncated archive"
	case WarnCorruptHeader:
		return "corrupt header"
	case WarnInvalidPath:
		return "invalid path"
	case WarnChecksum:
		return "checksum mismatch"
	case WarnLongName:
		return "long name truncated"
	case WarnSkippedEntry:
		return "entry skipped"
	default:
		return "unknown"
	}
}

// Warning records one recoverable condition and the entry it affected.
type Warning struct {
	Kind   WarningKind
	Path   string // Affected entry path, when known
	Detail string
}

func (w Warning) String() string {
	if w.Path == "" {
		return fmt.Sprintf("%s: %s", w.Kind, w.Detail)
	}
	return fmt.Sprintf("%s: %s: %s", w.Kind, w.Path, w.Detail)
}
