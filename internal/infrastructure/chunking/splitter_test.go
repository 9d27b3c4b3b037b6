package chunking

import (
	"strings"
	"testing"
)

func TestSplitEmptyTextYieldsNoChunks(t *testing.T) {
	s := NewSplitter(100, 20)
	if chunks := s.Split(""); len(chunks) != 0 {
		t.Fatalf("expected no chunks, got %d", len(chunks))
	}
}

func TestSplitAssignsSequentialIndices(t *testing.T) {
	s := NewSplitter(50, 10)
	chunks := s.Split(strings.Repeat("lorem ipsum dolor sit amet. ", 20))
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if chunk.Index != i {
			t.Fatalf("chunk %d carries index %d", i, chunk.Index)
		}
		if chunk.TokenCount != len(chunk.Content)/4 {
			t.Fatalf("chunk %d token estimate %d for %d chars", i, chunk.TokenCount, len(chunk.Content))
		}
	}
}

func TestSplitOffsetsCoverSource(t *testing.T) {
	text := strings.Repeat("abcde fghij. ", 30)
	s := NewSplitter(40, 0)
	chunks := s.Split(text)

	runes := []rune(text)
	for _, chunk := range chunks {
		if chunk.StartOffset < 0 || chunk.EndOffset > len(runes) || chunk.StartOffset >= chunk.EndOffset {
			t.Fatalf("bad offsets [%d,%d) for source of %d runes", chunk.StartOffset, chunk.EndOffset, len(runes))
		}
		window := strings.TrimSpace(string(runes[chunk.StartOffset:chunk.EndOffset]))
		if window != chunk.Content {
			t.Fatalf("offsets do not reproduce content: %q vs %q", window, chunk.Content)
		}
	}
}

func TestSplitPrefersSentenceBoundary(t *testing.T) {
	text := "First sentence here. Second one follows now. Third sentence keeps going for a while after that."
	s := NewSplitter(50, 0)
	chunks := s.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	if !strings.HasSuffix(chunks[0].Content, ".") {
		t.Fatalf("expected first chunk to end at a sentence boundary, got %q", chunks[0].Content)
	}
}

func TestNewSplitterClampsBadOverlap(t *testing.T) {
	s := NewSplitter(100, 100)
	if s.Overlap >= s.ChunkSize {
		t.Fatalf("overlap %d not clamped below chunk size %d", s.Overlap, s.ChunkSize)
	}
}
