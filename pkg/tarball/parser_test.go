package tarball

import (
	"archive/tar"
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/RayLabsHQ/formatfuse/pkg/archive"
)

// buildTar produces container bytes with the stdlib writer, which emits
// the same ustar layout (plus PAX records for long names) the parser
// must understand.
func buildTar(t *testing.T, files map[string]string, dirs ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for _, d := range dirs {
		if err := tw.WriteHeader(&tar.Header{
			Name:     d + "/",
			Typeflag: tar.TypeDir,
			Mode:     0755,
			ModTime:  time.Unix(1700000000, 0),
		}); err != nil {
			t.Fatalf("write dir header: %v", err)
		}
	}
	for name, content := range files {
		if err := tw.WriteHeader(&tar.Header{
			Name:    name,
			Size:    int64(len(content)),
			Mode:    0644,
			ModTime: time.Unix(1700000000, 0),
		}); err != nil {
			t.Fatalf("write header: %v", err)
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			t.Fatalf("write content: %v", err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return buf.Bytes()
}

// rawHeader hand-assembles one classic header block with a valid
// checksum, for cases the stdlib writer refuses to produce.
func rawHeader(t *testing.T, name string, size int64, typeflag byte) []byte {
	t.Helper()
	b := make([]byte, BlockSize)
	copy(b[nameOff:], name)
	copy(b[modeOff:], "0000644\x00")
	copy(b[108:], "0000000\x00")
	copy(b[116:], "0000000\x00")
	copy(b[sizeOff:], fmt.Sprintf("%011o\x00", size))
	copy(b[mtimeOff:], fmt.Sprintf("%011o\x00", 1700000000))
	b[typeOff] = typeflag
	copy(b[magicOff:], "ustar\x0000")
	fillChecksum(b)
	return b
}

func fillChecksum(b []byte) {
	for i := chksumOff; i < chksumOff+chksumLen; i++ {
		b[i] = ' '
	}
	var sum int64
	for _, c := range b {
		sum += int64(c)
	}
	copy(b[chksumOff:], fmt.Sprintf("%06o\x00 ", sum))
}

func pad(data []byte) []byte {
	rem := len(data) % BlockSize
	if rem == 0 {
		return data
	}
	return append(data, make([]byte, BlockSize-rem)...)
}

func entryByPath(entries []*archive.Entry, path string) *archive.Entry {
	for _, e := range entries {
		if e.Path == path {
			return e
		}
	}
	return nil
}

func TestParseRoundTrip(t *testing.T) {
	files := map[string]string{
		"readme.txt":      "hello",
		"src/main.go":     "package main\n",
		"src/sub/util.go": "package sub\n",
		"empty.txt":       "",
	}
	data := buildTar(t, files, "src", "src/sub")

	entries, warnings, err := Parse(data, nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("warnings = %v, want none", warnings)
	}
	if len(entries) != len(files)+2 {
		t.Fatalf("entries = %d, want %d", len(entries), len(files)+2)
	}

	for name, content := range files {
		e := entryByPath(entries, name)
		if e == nil {
			t.Fatalf("entry %q missing", name)
		}
		if e.IsDir {
			t.Errorf("%q parsed as directory", name)
		}
		if e.Size != int64(len(content)) {
			t.Errorf("%q size = %d, want %d", name, e.Size, len(content))
		}
		if !bytes.Equal(e.Content, []byte(content)) && len(content) > 0 {
			t.Errorf("%q content mismatch", name)
		}
		if len(content) == 0 && e.Content != nil {
			t.Errorf("%q empty file carries content buffer", name)
		}
		if got := e.ModTime.Unix(); got != 1700000000 {
			t.Errorf("%q mtime = %d, want 1700000000", name, got)
		}
	}
	for _, d := range []string{"src", "src/sub"} {
		e := entryByPath(entries, d)
		if e == nil || !e.IsDir {
			t.Errorf("directory %q missing or not a directory: %+v", d, e)
		} else if e.Size != 0 {
			t.Errorf("directory %q size = %d, want 0", d, e.Size)
		}
	}
}

func TestParseIdempotent(t *testing.T) {
	data := buildTar(t, map[string]string{"a/b.txt": "b", "a/c.txt": "c"}, "a")

	first, _, err := Parse(data, nil)
	if err != nil {
		t.Fatalf("first parse: %v", err)
	}
	second, _, err := Parse(data, nil)
	if err != nil {
		t.Fatalf("second parse: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("entry counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Path != second[i].Path || !bytes.Equal(first[i].Content, second[i].Content) {
			t.Errorf("entry %d differs between parses", i)
		}
	}
}

func TestParseTruncatedContent(t *testing.T) {
	// One intact entry, then a header declaring far more content than
	// remains. Partial extraction beats total failure.
	data := buildTar(t, map[string]string{"good.txt": "fine"})
	data = data[:len(data)-2*BlockSize] // Drop the end-of-archive blocks
	data = append(data, rawHeader(t, "huge.bin", 10000, TypeRegular)...)
	data = append(data, make([]byte, 200)...)

	entries, warnings, err := Parse(data, nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(entries) != 1 || entries[0].Path != "good.txt" {
		t.Fatalf("entries = %+v, want only good.txt", entries)
	}
	if len(warnings) != 1 || warnings[0].Kind != archive.WarnTruncated {
		t.Fatalf("warnings = %v, want one truncation warning", warnings)
	}
}

func TestParseStopsAtZeroBlock(t *testing.T) {
	data := buildTar(t, map[string]string{"a.txt": "a"})
	// Trailing garbage after the terminator must be ignored.
	data = append(data, bytes.Repeat([]byte{0xFF}, 3*BlockSize)...)

	entries, warnings, err := Parse(data, nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if len(warnings) != 0 {
		t.Fatalf("warnings = %v, want none", warnings)
	}
}

func TestParseCorruptFirstHeader(t *testing.T) {
	block := rawHeader(t, "bad.txt", 4, TypeRegular)
	copy(block[sizeOff:], "zzzzzzz\x00") // Non-octal size field
	data := pad(append(block, []byte("data")...))

	_, _, err := Parse(data, nil)
	if !errors.Is(err, archive.ErrCorruptHeader) {
		t.Fatalf("got %v, want ErrCorruptHeader", err)
	}
}

func TestParseCorruptLaterHeader(t *testing.T) {
	data := buildTar(t, map[string]string{"ok.txt": "ok"})
	data = data[:len(data)-2*BlockSize]
	bad := rawHeader(t, "bad.txt", 4, TypeRegular)
	copy(bad[sizeOff:], "zzzzzzz\x00")
	data = append(data, bad...)

	entries, warnings, err := Parse(data, nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(entries) != 1 || entries[0].Path != "ok.txt" {
		t.Fatalf("entries = %+v, want only ok.txt", entries)
	}
	if len(warnings) != 1 || warnings[0].Kind != archive.WarnCorruptHeader {
		t.Fatalf("warnings = %v, want one corrupt-header warning", warnings)
	}
}

func TestParseInvalidPathDropped(t *testing.T) {
	var data []byte
	data = append(data, rawHeader(t, "../escape.txt", 4, TypeRegular)...)
	data = append(data, pad([]byte("evil"))...)
	data = append(data, rawHeader(t, "fine.txt", 4, TypeRegular)...)
	data = append(data, pad([]byte("good"))...)
	data = append(data, make([]byte, 2*BlockSize)...)

	entries, warnings, err := Parse(data, nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(entries) != 1 || entries[0].Path != "fine.txt" {
		t.Fatalf("entries = %+v, want only fine.txt", entries)
	}
	if len(warnings) != 1 || warnings[0].Kind != archive.WarnInvalidPath {
		t.Fatalf("warnings = %v, want one invalid-path warning", warnings)
	}
}

func TestParsePAXLongName(t *testing.T) {
	long := "deeply/" + strings.Repeat("nested/", 30) + "leaf.txt"
	if len(long) <= 100 {
		t.Fatalf("test path not long enough: %d", len(long))
	}
	data := buildTar(t, map[string]string{long: "payload"})

	entries, warnings, err := Parse(data, nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("warnings = %v, want none", warnings)
	}
	e := entryByPath(entries, long)
	if e == nil {
		t.Fatalf("long path not honored; entries: %+v", entries)
	}
	if !bytes.Equal(e.Content, []byte("payload")) {
		t.Error("content mismatch on long-named entry")
	}
}

func TestParseGNULongName(t *testing.T) {
	long := "gnu/" + strings.Repeat("x", 120) + "/file.bin"
	var data []byte
	data = append(data, rawHeader(t, "././@LongLink", int64(len(long)), TypeGNULongName)...)
	data = append(data, pad([]byte(long))...)
	data = append(data, rawHeader(t, long[:100], 3, TypeRegular)...)
	data = append(data, pad([]byte("abc"))...)
	data = append(data, make([]byte, 2*BlockSize)...)

	entries, warnings, err := Parse(data, nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("warnings = %v, want none", warnings)
	}
	if len(entries) != 1 || entries[0].Path != long {
		t.Fatalf("entries = %+v, want %q", entries, long)
	}
}

func TestParseChecksumMismatchKeepsEntry(t *testing.T) {
	block := rawHeader(t, "kept.txt", 4, TypeRegular)
	copy(block[chksumOff:], "0000000\x00") // Deliberately wrong
	var data []byte
	data = append(data, block...)
	data = append(data, pad([]byte("data"))...)
	data = append(data, make([]byte, 2*BlockSize)...)

	entries, warnings, err := Parse(data, nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(entries) != 1 || entries[0].Path != "kept.txt" {
		t.Fatalf("entries = %+v, want kept.txt", entries)
	}
	if len(warnings) != 1 || warnings[0].Kind != archive.WarnChecksum {
		t.Fatalf("warnings = %v, want one checksum warning", warnings)
	}
}

func TestParseSkipsLinks(t *testing.T) {
	var data []byte
	data = append(data, rawHeader(t, "link", 0, TypeSymlink)...)
	data = append(data, rawHeader(t, "real.txt", 2, TypeRegular)...)
	data = append(data, pad([]byte("ok"))...)
	data = append(data, make([]byte, 2*BlockSize)...)

	entries, warnings, err := Parse(data, nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(entries) != 1 || entries[0].Path != "real.txt" {
		t.Fatalf("entries = %+v, want only real.txt", entries)
	}
	if len(warnings) != 1 || warnings[0].Kind != archive.WarnSkippedEntry {
		t.Fatalf("warnings = %v, want one skipped-entry warning", warnings)
	}
}

func TestParseEmptyInput(t *testing.T) {
	entries, warnings, err := Parse(nil, nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(entries) != 0 || len(warnings) != 0 {
		t.Fatalf("entries=%d warnings=%d, want empty", len(entries), len(warnings))
	}
}

func TestParseNumeric(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"0000644\x00", 0o644, false},
		{"   644 \x00", 0o644, false},
		{"\x00\x00\x00", 0, false},
		{"zzzz\x00", 0, true},
	}
	for _, tt := range tests {
		got, err := parseNumeric([]byte(tt.in))
		if (err != nil) != tt.wantErr {
			t.Errorf("parseNumeric(%q) error = %v, wantErr %t", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("parseNumeric(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestParseNumericBase256(t *testing.T) {
	// 12-byte field, marker bit set, value 1<<33.
	field := make([]byte, 12)
	field[0] = 0x80
	field[7] = 0x02
	got, err := parseNumeric(field)
	if err != nil {
		t.Fatalf("parseNumeric: %v", err)
	}
	if got != 1<<33 {
		t.Errorf("got %d, want %d", got, int64(1)<<33)
	}
}
