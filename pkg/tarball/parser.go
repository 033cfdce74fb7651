package tarball

import (
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/RayLabsHQ/formatfuse/pkg/archive"
	"github.com/RayLabsHQ/formatfuse/pkg/progress"
)

// Parse reads the container at data and returns the entries explicitly
// present in it plus any recoverable warnings. Intermediate directories
// implied by entry paths are not synthesized here; tree assembly does
// that. rep may be nil.
//
// A header that fails structural sanity before any entry was read aborts
// with archive.ErrCorruptHeader. After the first entry, corruption and
// truncation stop the parse and surface as warnings on the partial
// result instead.
func Parse(data []byte, rep *progress.Reporter) ([]*archive.Entry, []archive.Warning, error) {
	p := &parser{data: data, rep: rep}
	if err := p.run(); err != nil {
		return nil, nil, err
	}
	return p.entries, p.warnings, nil
}

type parser struct {
	data     []byte
	off      int
	rep      *progress.Reporter
	entries  []*archive.Entry
	warnings []archive.Warning

	// Naming state carried from extended headers to the entry they
	// describe. Cleared after each real entry.
	longName string
	paxPath  string
	paxSize  int64
	paxHas   struct{ size, mtime bool }
	paxMTime time.Time
}

func (p *parser) run() error {
	for {
		if p.off+BlockSize > len(p.data) {
			if p.off < len(p.data) {
				p.warn(archive.WarnTruncated, "", "archive ends inside a header block")
			}
			return nil
		}

		block := p.data[p.off : p.off+BlockSize]
		if isZeroBlock(block) {
			// End-of-archive marker. Trailing bytes are padding and are
			// not validated.
			p.rep.Done()
			return nil
		}

		hdr, err := decodeHeader(block)
		if err != nil {
			if len(p.entries) == 0 {
				return fmt.Errorf("%w: offset %d: %v", archive.ErrCorruptHeader, p.off, err)
			}
			p.warn(archive.WarnCorruptHeader, "", fmt.Sprintf("offset %d: %v", p.off, err))
			return nil
		}
		if !checksumOK(block, hdr.chksum) {
			p.warn(archive.WarnChecksum, hdr.fullName(), "header checksum does not match")
		}
		start := p.off
		p.off += BlockSize

		if !p.handle(hdr) {
			return nil
		}
		p.rep.Add(int64(p.off - start))
	}
}

// handle consumes one header and its content region. It returns false
// when parsing must stop (truncation).
func (p *parser) handle(hdr *header) bool {
	size := hdr.size
	if hdr.typeflag != TypePAXRecords && p.paxHas.size {
		size = p.paxSize
	}

	content, ok := p.content(hdr, size)
	if !ok {
		return false
	}

	switch hdr.typeflag {
	case TypeGNULongName:
		p.longName = parseString(content)
		return true
	case TypeGNULongLink:
		// Link targets are not reproduced; the override is discarded.
		return true
	case TypePAXRecords:
		p.applyPAX(content)
		return true
	case TypePAXGlobal:
		return true
	}

	name := hdr.fullName()
	switch {
	case p.paxPath != "":
		name = p.paxPath
	case p.longName != "":
		name = p.longName
	default:
		if hdr.nameFull && !hdr.ustar {
			p.warn(archive.WarnLongName, name, "no extended-naming record; path cut at 100 bytes")
		}
	}
	mtime := time.Unix(hdr.mtime, 0).UTC()
	if p.paxHas.mtime {
		mtime = p.paxMTime
	}
	p.clearPending()

	path := archive.NormalizePath(name)
	if err := archive.ValidatePath(path); err != nil {
		p.warn(archive.WarnInvalidPath, name, err.Error())
		return true
	}

	switch hdr.typeflag {
	case TypeDir:
		p.entries = append(p.entries, &archive.Entry{
			Path:    path,
			ModTime: mtime,
			IsDir:   true,
			Mode:    fs.FileMode(hdr.mode) & fs.ModePerm,
		})
	case TypeRegular, TypeRegularAlt, TypeContiguous:
		e := &archive.Entry{
			Path:    path,
			Size:    size,
			ModTime: mtime,
			Mode:    fs.FileMode(hdr.mode) & fs.ModePerm,
		}
		if size > 0 {
			// The entry owns its content; the source buffer stays
			// untouched and read-only.
			e.Content = append([]byte(nil), content...)
		}
		p.entries = append(p.entries, e)
	default:
		p.warn(archive.WarnSkippedEntry, path,
			fmt.Sprintf("entry type %q is not reproduced", hdr.typeflag))
	}
	return true
}

// content slices the data region following the current header and
// advances the cursor to the next block boundary. Directories carry no
// content regardless of their declared size.
func (p *parser) content(hdr *header, size int64) ([]byte, bool) {
	if hdr.typeflag == TypeDir || size == 0 {
		return nil, true
	}
	if int64(p.off)+size > int64(len(p.data)) {
		p.warn(archive.WarnTruncated, hdr.fullName(),
			fmt.Sprintf("declared size %d exceeds remaining %d bytes", size, len(p.data)-p.off))
		return nil, false
	}
	end := p.off + int(size)
	content := p.data[p.off:end]
	// Round up to the block boundary; the padding is skipped, not
	// validated byte-for-byte.
	p.off = end + (BlockSize-int(size)%BlockSize)%BlockSize
	if p.off > len(p.data) {
		p.off = len(p.data)
	}
	return content, true
}

// applyPAX parses "length key=value\n" records from an extended header
// and retains the ones that affect entry construction.
func (p *parser) applyPAX(content []byte) {
	rest := string(content)
	for len(rest) > 0 {
		sp := strings.IndexByte(rest, ' ')
		if sp < 0 {
			return
		}
		recLen, err := strconv.Atoi(rest[:sp])
		if err != nil || recLen <= sp || recLen > len(rest) {
			return
		}
		record := rest[sp+1 : recLen]
		rest = rest[recLen:]

		record = strings.TrimSuffix(record, "\n")
		key, value, ok := strings.Cut(record, "=")
		if !ok {
			continue
		}
		switch key {
		case "path":
			p.paxPath = value
		case "size":
			if n, err := strconv.ParseInt(value, 10, 64); err == nil {
				p.paxSize = n
				p.paxHas.size = true
			}
		case "mtime":
			if sec, err := strconv.ParseFloat(value, 64); err == nil {
				p.paxMTime = time.Unix(int64(sec), 0).UTC()
				p.paxHas.mtime = true
			}
		}
	}
}

func (p *parser) clearPending() {
	p.longName = ""
	p.paxPath = ""
	p.paxSize = 0
	p.paxHas.size = false
	p.paxHas.mtime = false
}

func (p *parser) warn(kind archive.WarningKind, path, detail string) {
	p.warnings = append(p.warnings, archive.Warning{Kind: kind, Path: path, Detail: detail})
}
