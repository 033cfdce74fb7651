// Package tarball parses the classic ustar container layout from an
// in-memory buffer. The parser favors partial results over hard failure:
// truncated uploads yield the entries read so far plus a warning.
package tarball

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// BlockSize is the fixed size of every header and data block.
const BlockSize = 512

// Classic header field offsets and widths.
const (
	nameOff     = 0
	nameLen     = 100
	modeOff     = 100
	modeLen     = 8
	sizeOff     = 124
	sizeLen     = 12
	mtimeOff    = 136
	mtimeLen    = 12
	chksumOff   = 148
	chksumLen   = 8
	typeOff     = 156
	linknameOff = 157
	linknameLen = 100
	magicOff    = 257
	magicLen    = 6
	prefixOff   = 345
	prefixLen   = 155
)

// Header type flags.
const (
	TypeRegular     = '0'
	TypeRegularAlt  = '\x00'
	TypeHardLink    = '1'
	TypeSymlink     = '2'
	TypeChar        = '3'
	TypeBlock       = '4'
	TypeDir         = '5'
	TypeFifo        = '6'
	TypeContiguous  = '7'
	TypeGNULongName = 'L'
	TypeGNULongLink = 'K'
	TypePAXRecords  = 'x'
	TypePAXGlobal   = 'g'
)

// header is one decoded 512-byte header block.
type header struct {
	name     string
	mode     int64
	size     int64
	mtime    int64
	chksum   int64
	typeflag byte
	prefix   string
	ustar    bool

	// nameFull is set when the name field used all 100 bytes with no
	// terminator. Without an extended-naming record the path may have
	// been truncated by the producer.
	nameFull bool
}

// decodeHeader parses one header block. The block must be BlockSize
// bytes and not all-zero.
func decodeHeader(block []byte) (*header, error) {
	h := &header{
		typeflag: block[typeOff],
		ustar:    bytes.HasPrefix(block[magicOff:magicOff+magicLen], []byte("ustar")),
	}

	nameField := block[nameOff : nameOff+nameLen]
	h.name = parseString(nameField)
	h.nameFull = bytes.IndexByte(nameField, 0) < 0

	var err error
	if h.mode, err = parseNumeric(block[modeOff : modeOff+modeLen]); err != nil {
		return nil, fmt.Errorf("mode field: %w", err)
	}
	if h.size, err = parseNumeric(block[sizeOff : sizeOff+sizeLen]); err != nil {
		return nil, fmt.Errorf("size field: %w", err)
	}
	if h.size < 0 {
		return nil, fmt.Errorf("negative size %d", h.size)
	}
	if h.mtime, err = parseNumeric(block[mtimeOff : mtimeOff+mtimeLen]); err != nil {
		return nil, fmt.Errorf("mtime field: %w", err)
	}
	if h.chksum, err = parseNumeric(block[chksumOff : chksumOff+chksumLen]); err != nil {
		return nil, fmt.Errorf("checksum field: %w", err)
	}
	if h.ustar {
		h.prefix = parseString(block[prefixOff : prefixOff+prefixLen])
	}
	return h, nil
}

// fullName joins the ustar prefix field with the name field.
func (h *header) fullName() string {
	if h.prefix == "" {
		return h.name
	}
	return h.prefix + "/" + h.name
}

// checksumOK verifies the header checksum against both historical
// interpretations: unsigned bytes (POSIX) and signed bytes (pre-POSIX
// implementations).
func checksumOK(block []byte, want int64) bool {
	var unsigned, signed int64
	for i := 0; i < BlockSize; i++ {
		c := block[i]
		if i >= chksumOff && i < chksumOff+chksumLen {
			c = ' '
		}
		unsigned += int64(c)
		signed += int64(int8(c))
	}
	return want == unsigned || want == signed
}

// parseString returns the NUL-terminated string within a fixed-width
// field.
func parseString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

// parseNumeric decodes a numeric field: octal ASCII with space or NUL
// padding, or GNU base-256 when the high bit of the first byte is set.
func parseNumeric(b []byte) (int64, error) {
	if len(b) > 0 && b[0]&0x80 != 0 {
		// Base-256: big-endian with the marker bit cleared.
		var x int64
		for i, c := range b {
			if i == 0 {
				c &= 0x7f
			}
			x = x<<8 | int64(c)
		}
		return x, nil
	}
	s := strings.Trim(string(b), " \x00")
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(s, 8, 64)
	if err != nil {
		return 0, fmt.Errorf("non-octal value %q", s)
	}
	return n, nil
}

// isZeroBlock reports whether the block is entirely zero bytes, the
// end-of-archive marker.
func isZeroBlock(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}
