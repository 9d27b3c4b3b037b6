package chunking

import (
	"strings"

	"github.com/medrag/knowledge-engine/internal/core/domain"
)

// Splitter is a sliding-window chunker. It yields ordered chunks carrying
// character offsets into the source text and a rough token estimate
// (~4 characters per token).
type Splitter struct {
	ChunkSize int
	Overlap   int
}

func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 4
	}
	return &Splitter{
		ChunkSize: chunkSize,
		Overlap:   overlap,
	}
}

func (s *Splitter) Split(text string) []domain.Chunk {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	step := s.ChunkSize - s.Overlap
	if step <= 0 {
		step = s.ChunkSize
	}

	out := make([]domain.Chunk, 0, len(runes)/step+1)
	index := 0
	for start := 0; start < len(runes); start += step {
		end := start + s.ChunkSize
		if end > len(runes) {
			end = len(runes)
		}
		end = adjustToBreak(runes, start, end)

		content := strings.TrimSpace(string(runes[start:end]))
		if content != "" {
			out = append(out, domain.Chunk{
				Content:     content,
				Index:       index,
				StartOffset: start,
				EndOffset:   end,
				TokenCount:  EstimateTokens(content),
				Metadata:    map[string]any{},
			})
			index++
		}
		if end == len(runes) {
			break
		}
	}
	return out
}

// adjustToBreak pulls a cut back to the nearest sentence or word boundary
// when one falls inside the trailing quarter of the window.
func adjustToBreak(runes []rune, start, end int) int {
	if end >= len(runes) {
		return end
	}
	minCut := start + (end-start)*3/4

	for i := end - 1; i > minCut; i-- {
		if isSentenceEnd(runes, i) {
			return i + 1
		}
	}
	for i := end - 1; i > minCut; i-- {
		if runes[i] == ' ' || runes[i] == '\n' {
			return i + 1
		}
	}
	return end
}

func isSentenceEnd(runes []rune, i int) bool {
	if i+1 >= len(runes) {
		return false
	}
	switch runes[i] {
	case '.', '!', '?':
		next := runes[i+1]
		return next == ' ' || next == '\n'
	}
	return false
}

// EstimateTokens approximates the provider token count at 4 chars per token.
func EstimateTokens(text string) int {
	return len(text) / 4
}
