package loader

// stream.go cleans CSV input while it is read, without loading the file:
//
//   - a leading UTF-8 BOM (0xEF 0xBB 0xBF) from Windows tools is dropped
//   - invalid UTF-8, e.g. from Latin-1 exports, becomes U+FFFD

import (
	"bufio"
	"bytes"
	"io"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// newCleanReader wraps r with BOM skipping and UTF-8 sanitization. The result
// is buffered so callers can peek at it.
func newCleanReader(r io.Reader) *bufio.Reader {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return bufio.NewReaderSize(&utf8Sanitizer{src: br}, sniffBytes)
}

// utf8Sanitizer re-encodes its input rune by rune. bufio.Reader.ReadRune
// reports each invalid byte as (RuneError, 1), so invalid sequences come out
// as U+FFFD and valid runes come out unchanged.
type utf8Sanitizer struct {
	src     *bufio.Reader
	pending []byte // encoded rune not yet handed out
}

func (s *utf8Sanitizer) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		if len(s.pending) > 0 {
			k := copy(p[n:], s.pending)
			s.pending = s.pending[k:]
			n += k
			continue
		}

		r, _, err := s.src.ReadRune()
		if err != nil {
			if n > 0 {
				return n, nil
			}
			return 0, err
		}
		s.pending = utf8.AppendRune(s.pending[:0], r)
	}
	return n, nil
}
