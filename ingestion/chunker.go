package ingestion

import (
	"regexp"
	"strings"
)

// Default chunking parameters, in whitespace tokens.
const (
	DefaultChunkSize   = 800
	DefaultChunkStride = 600
)

var (
	hyphenNewlinePattern = regexp.MustCompile(`-\s*\n\s*`)
	whitespacePattern    = regexp.MustCompile(`\s+`)
)

// ChunkSegment is one window produced by chunking: the window's text and
// its token count.
type ChunkSegment struct {
	Text       string
	TokenCount int
}

// CleanText normalizes extracted document text for chunking.
// It rejoins words hyphenated across line breaks (a common PDF extraction
// artifact) and collapses all whitespace runs to single spaces.
func CleanText(text string) string {
	dehyphenated := hyphenNewlinePattern.ReplaceAllString(text, "")
	normalized := whitespacePattern.ReplaceAllString(dehyphenated, " ")
	return strings.TrimSpace(normalized)
}

// ChunkText splits text into overlapping windows of chunkSize whitespace
// tokens, advancing by chunkStride tokens per window. The final window may
// be shorter. Empty text yields no segments.
func ChunkText(text string, chunkSize, chunkStride int) []ChunkSegment {
	segments := []ChunkSegment{}
	if text == "" || chunkSize <= 0 || chunkStride <= 0 {
		return segments
	}

	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return segments
	}

	for i := 0; i < len(tokens); i += chunkStride {
		end := i + chunkSize
		if end > len(tokens) {
			end = len(tokens)
		}

		segments = append(segments, ChunkSegment{
			Text:       strings.Join(tokens[i:end], " "),
			TokenCount: end - i,
		})

		if end == len(tokens) {
			break
		}
	}

	return segments
}
