package rag

import (
	"fmt"
	"strings"

	"lovelace-tutor/internal/domain/model"
)

const (
	maxContextChunks     = 4
	DefaultContextChars  = 1500
	NoContextPlaceholder = "NONE"
)

// CompactContext renders the best chunks as numbered, source-labelled blocks
// and truncates the result to maxChars runes with a trailing "...".
func CompactContext(chunks []model.RetrievedChunk, maxChars int) string {
	if len(chunks) == 0 {
		return NoContextPlaceholder
	}
	if maxChars <= 0 {
		maxChars = DefaultContextChars
	}
	if len(chunks) > maxContextChunks {
		chunks = chunks[:maxContextChunks]
	}

	parts := make([]string, 0, len(chunks))
	for i, c := range chunks {
		src := c.SourceName
		if src == "" {
			src = "Lecture"
		}
		header := fmt.Sprintf("[%d] %s", i+1, src)
		switch {
		case c.Page != nil:
			header += fmt.Sprintf(" (page %d)", *c.Page)
		case c.ChunkIndex != nil:
			header += fmt.Sprintf(" (chunk %d)", *c.ChunkIndex)
		}
		parts = append(parts, header+"\n"+c.Content)
	}

	joined := []rune(strings.Join(parts, "\n\n"))
	if len(joined) > maxChars {
		return string(joined[:maxChars]) + "..."
	}
	return string(joined)
}
