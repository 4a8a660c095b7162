package repository

import (
	"context"

	"lovelace-tutor/internal/domain/model"
)

type RAGChunkRepository interface {
	Insert(ctx context.Context, chunks []*model.RAGChunk) error
	// Match returns up to k chunks of the lesson closest to the query embedding.
	Match(ctx context.Context, lessonID string, query []float32, k int) ([]model.RetrievedChunk, error)
}

// VideoStore uploads rendered videos and returns a public URL.
type VideoStore interface {
	PutVideo(ctx context.Context, key string, data []byte) (string, error)
}
