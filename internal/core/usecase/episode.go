package usecase

import (
	"strings"
	"unicode/utf8"

	"github.com/medrag/knowledge-engine/internal/core/domain"
)

// DefaultEpisodeMaxChars bounds episode content for the graph store's 8192
// token budget at roughly 4 characters per token, with headroom.
const DefaultEpisodeMaxChars = 6000

const (
	titleContextHeadroom = 100
	titleMaxChars        = 50

	sentenceCutMarker = " [TRUNCATED]"
	hardCutMarker     = "... [TRUNCATED]"
)

// buildEpisodeContent produces the episode payload for one chunk: content
// truncated to maxChars, preferring a sentence boundary inside the trailing
// 30% of the window, prefixed with a short document-title context line when
// enough headroom remains. Pure text transform.
func buildEpisodeContent(chunk domain.Chunk, documentTitle string, maxChars int) string {
	if maxChars <= 0 {
		maxChars = DefaultEpisodeMaxChars
	}

	content := chunk.Content
	if len(content) > maxChars {
		truncated := cutAtRuneBoundary(content, maxChars)
		if cut := lastSentenceEnd(truncated); cut > maxChars*7/10 {
			content = truncated[:cut+1] + sentenceCutMarker
		} else {
			content = truncated + hardCutMarker
		}
	}

	if documentTitle != "" && len(content) < maxChars-titleContextHeadroom {
		title := documentTitle
		if len(title) > titleMaxChars {
			title = cutAtRuneBoundary(title, titleMaxChars)
		}
		return "[Doc: " + title + "]\n\n" + content
	}
	return content
}

// cutAtRuneBoundary truncates s to at most limit bytes without splitting a
// multibyte rune; limit must be less than len(s).
func cutAtRuneBoundary(s string, limit int) string {
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}

func lastSentenceEnd(s string) int {
	cut := strings.LastIndex(s, ". ")
	if i := strings.LastIndex(s, "! "); i > cut {
		cut = i
	}
	if i := strings.LastIndex(s, "? "); i > cut {
		cut = i
	}
	return cut
}
