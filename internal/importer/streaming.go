package importer

// streaming.go provides io.Reader wrappers applied to upload bodies before
// CSV decoding. They handle the two most common artifacts of files exported
// from Windows spreadsheets without buffering the whole file:
//
//   - bomSkipReader: drops a leading UTF-8 BOM (0xEF 0xBB 0xBF)
//   - utf8SanitizingReader: replaces invalid UTF-8 bytes with '?'

import (
	"io"
	"unicode/utf8"
)

// wrapReader applies BOM skipping and UTF-8 sanitization in that order.
// The BOM must be stripped before sanitization sees the stream.
func wrapReader(r io.Reader) io.Reader {
	return newUTF8SanitizingReader(newBOMSkipReader(r))
}

// bomSkipReader skips a UTF-8 byte order mark if the stream starts with one.
type bomSkipReader struct {
	r       io.Reader
	checked bool
	rest    []byte // bytes read during BOM detection that were not a BOM
}

func newBOMSkipReader(r io.Reader) *bomSkipReader {
	return &bomSkipReader{r: r}
}

func (b *bomSkipReader) Read(p []byte) (int, error) {
	if !b.checked {
		b.checked = true

		var buf [3]byte
		n, err := io.ReadFull(b.r, buf[:])
		if err == io.ErrUnexpectedEOF {
			err = io.EOF
		}
		if n > 0 && !(n == 3 && buf[0] == 0xEF && buf[1] == 0xBB && buf[2] == 0xBF) {
			b.rest = append(b.rest, buf[:n]...)
		}
		if err != nil && err != io.EOF {
			return 0, err
		}
	}

	if len(b.rest) > 0 {
		n := copy(p, b.rest)
		b.rest = b.rest[n:]
		return n, nil
	}

	return b.r.Read(p)
}

// utf8SanitizingReader replaces invalid UTF-8 sequences with '?' on the fly.
// Replacing with a single byte keeps the output no longer than the input,
// which lets sanitization happen in place.
type utf8SanitizingReader struct {
	r io.Reader

	// pending holds trailing bytes that may start a multi-byte sequence
	// split across two reads.
	pending []byte
}

func newUTF8SanitizingReader(r io.Reader) *utf8SanitizingReader {
	return &utf8SanitizingReader{
		r:       r,
		pending: make([]byte, 0, utf8.UTFMax),
	}
}

func (s *utf8SanitizingReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	offset := 0
	if len(s.pending) > 0 {
		offset = copy(p, s.pending)
		s.pending = s.pending[:0]
	}

	n, err := s.r.Read(p[offset:])
	n += offset
	if n == 0 {
		return 0, err
	}

	// Fast path: pure ASCII needs no sanitization.
	if allASCII(p[:n]) {
		return n, err
	}

	return s.sanitize(p[:n], err == io.EOF), err
}

// sanitize rewrites data in place, replacing invalid bytes with '?'.
// Returns the number of valid bytes written. When not at EOF, a trailing
// incomplete sequence is held back in pending for the next read.
func (s *utf8SanitizingReader) sanitize(data []byte, atEOF bool) int {
	write := 0
	for read := 0; read < len(data); {
		r, size := utf8.DecodeRune(data[read:])

		if !atEOF && read+size >= len(data) && incompleteSequence(data[read:]) {
			s.pending = append(s.pending, data[read:]...)
			return write
		}

		if r == utf8.RuneError && size == 1 {
			data[write] = '?'
			write++
			read++
			continue
		}

		copy(data[write:], data[read:read+size])
		write += size
		read += size
	}
	return write
}

func allASCII(data []byte) bool {
	for _, b := range data {
		if b >= 0x80 {
			return false
		}
	}
	return true
}

// incompleteSequence reports whether data could be the truncated start of a
// valid multi-byte UTF-8 sequence.
func incompleteSequence(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	b := data[0]
	switch {
	case b < 0xC0:
		return false
	case b < 0xE0:
		return len(data) < 2
	case b < 0xF0:
		return len(data) < 3
	default:
		return len(data) < 4
	}
}
