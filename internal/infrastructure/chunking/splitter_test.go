package chunking

import (
	"strings"
	"testing"
)

func TestSplitCoversInputExactly(t *testing.T) {
	cases := []struct {
		name string
		text string
		size int
	}{
		{"short", "hello", 1000},
		{"exact multiple", strings.Repeat("a", 2000), 1000},
		{"remainder", strings.Repeat("b", 2500), 1000},
		{"unicode", strings.Repeat("質問と回答。", 300), 128},
		{"tiny window", "abcdef", 1},
		{"whitespace preserved", "  leading and trailing  ", 7},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			chunks := NewSplitter(tc.size).Split(tc.text)
			if strings.Join(chunks, "") != tc.text {
				t.Fatalf("concatenation does not reproduce input")
			}
			for i, chunk := range chunks {
				if n := len([]rune(chunk)); n > tc.size {
					t.Fatalf("chunk %d has %d runes, max %d", i, n, tc.size)
				}
			}
		})
	}
}

func TestSplitEmptyInput(t *testing.T) {
	if chunks := NewSplitter(1000).Split(""); len(chunks) != 0 {
		t.Fatalf("expected empty sequence, got %d chunks", len(chunks))
	}
}

func TestSplitShortInputSingleChunk(t *testing.T) {
	chunks := NewSplitter(1000).Split("short text")
	if len(chunks) != 1 || chunks[0] != "short text" {
		t.Fatalf("expected single chunk, got %+v", chunks)
	}
}

func TestSplit2500CharsInto3Chunks(t *testing.T) {
	text := strings.Repeat("x", 2500)
	chunks := NewSplitter(1000).Split(text)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	if len(chunks[0]) != 1000 || len(chunks[1]) != 1000 || len(chunks[2]) != 500 {
		t.Fatalf("unexpected chunk sizes: %d, %d, %d", len(chunks[0]), len(chunks[1]), len(chunks[2]))
	}
}

func TestNewSplitterDefaultsNonPositiveSize(t *testing.T) {
	if s := NewSplitter(0); s.MaxChunkSize != 1000 {
		t.Fatalf("expected default size 1000, got %d", s.MaxChunkSize)
	}
}
