// Package rag holds the text shaping used by lecture ingestion and retrieval.
package rag

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

const (
	DefaultChunkChars   = 1200
	DefaultChunkOverlap = 200
)

type Chunk struct {
	Content    string
	ChunkIndex int
}

var (
	blankRun   = regexp.MustCompile(`[ \t]+`)
	newlineRun = regexp.MustCompile(`\n{3,}`)
)

// Normalize strips carriage returns, collapses runs of spaces and tabs, caps
// consecutive blank lines at one and trims the result.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r", "")
	text = blankRun.ReplaceAllString(text, " ")
	text = newlineRun.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// ChunkText splits normalized text into windows of maxChars runes, each window
// starting overlap runes before the end of the previous one.
func ChunkText(text string, maxChars, overlap int) []Chunk {
	if maxChars <= 0 {
		maxChars = DefaultChunkChars
	}
	if overlap < 0 || overlap >= maxChars {
		overlap = 0
	}
	clean := []rune(Normalize(text))
	if len(clean) == 0 {
		return nil
	}

	var chunks []Chunk
	for start, idx := 0, 0; start < len(clean); idx++ {
		end := min(start+maxChars, len(clean))
		chunks = append(chunks, Chunk{Content: string(clean[start:end]), ChunkIndex: idx})
		if end == len(clean) {
			break
		}
		start = end - overlap
	}
	return chunks
}

// HashText returns the hex sha256 of text; used to spot duplicate chunks.
func HashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
