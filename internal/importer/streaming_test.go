package importer

import (
	"bytes"
	"io"
	"strings"
	"testing"
)

// chunkReader returns at most n bytes per Read, forcing multi-byte
// sequences to straddle read boundaries.
type chunkReader struct {
	r io.Reader
	n int
}

func (c *chunkReader) Read(p []byte) (int, error) {
	if len(p) > c.n {
		p = p[:c.n]
	}
	return c.r.Read(p)
}

func TestBOMSkipReader(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"strips leading BOM", "\xEF\xBB\xBFhello", "hello"},
		{"no BOM untouched", "hello", "hello"},
		{"BOM only", "\xEF\xBB\xBF", ""},
		{"empty input", "", ""},
		{"partial BOM kept", "\xEF\xBB", "\xEF\xBB"},
		{"one byte input", "x", "x"},
		{"two byte input", "ab", "ab"},
		{"BOM bytes mid-stream kept", "ab\xEF\xBB\xBFcd", "ab\xEF\xBB\xBFcd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := io.ReadAll(newBOMSkipReader(strings.NewReader(tt.input)))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUTF8SanitizingReader(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"pure ascii", "hello,world", "hello,world"},
		{"valid multibyte", "héllo wörld", "héllo wörld"},
		{"invalid byte replaced", "he\xFFllo", "he?llo"},
		{"several invalid bytes", "\xFF\xFE", "??"},
		{"truncated sequence at end", "ab\xC3", "ab?"},
		{"overlong-ish continuation", "a\x80b", "a?b"},
		{"empty", "", ""},
		{"emoji survives", "a🏠b", "a🏠b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := io.ReadAll(newUTF8SanitizingReader(strings.NewReader(tt.input)))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUTF8SanitizingReaderSplitSequence(t *testing.T) {
	// A 2-byte rune split across reads must not be mangled.
	input := "aé" + strings.Repeat("b", 10)
	for chunk := 1; chunk <= 4; chunk++ {
		r := newUTF8SanitizingReader(&chunkReader{r: strings.NewReader(input), n: chunk})
		got, err := io.ReadAll(r)
		if err != nil {
			t.Fatalf("chunk=%d: unexpected error: %v", chunk, err)
		}
		if string(got) != input {
			t.Errorf("chunk=%d: got %q, want %q", chunk, got, input)
		}
	}
}

func TestWrapReader(t *testing.T) {
	input := "\xEF\xBB\xBFtitle,pr\xFFice\nrow"
	got, err := io.ReadAll(wrapReader(bytes.NewReader([]byte(input))))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "title,pr?ice\nrow"
	if string(got) != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
