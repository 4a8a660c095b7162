package memstore

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/oklog/ulid/v2"

	"lovelace-tutor/internal/domain/model"
	"lovelace-tutor/internal/domain/ports/repository"
)

var _ repository.RAGChunkRepository = (*RAGChunkRepo)(nil)

// RAGChunkRepo keeps chunks in process memory and ranks them by cosine
// similarity with a linear scan.
type RAGChunkRepo struct {
	mu       sync.RWMutex
	byLesson map[string][]model.RAGChunk
}

func NewRAGChunkRepo() *RAGChunkRepo {
	return &RAGChunkRepo{byLesson: make(map[string][]model.RAGChunk)}
}

func (r *RAGChunkRepo) Insert(_ context.Context, chunks []*model.RAGChunk) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range chunks {
		if c.ID == "" {
			c.ID = ulid.Make().String()
		}
		r.byLesson[c.LessonID] = append(r.byLesson[c.LessonID], *c)
	}
	return nil
}

func (r *RAGChunkRepo) Match(_ context.Context, lessonID string, query []float32, k int) ([]model.RetrievedChunk, error) {
	r.mu.RLock()
	rows := r.byLesson[lessonID]
	out := make([]model.RetrievedChunk, 0, len(rows))
	for _, c := range rows {
		idx := c.ChunkIndex
		out = append(out, model.RetrievedChunk{
			SourceName: c.SourceName,
			SourceType: c.SourceType,
			Content:    c.Content,
			Score:      cosine(query, c.Embedding),
			ChunkIndex: &idx,
			Page:       c.Page,
		})
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if k > 0 && len(out) > k {
		out = out[:k]
	}
	return out, nil
}

func cosine(a, b []float32) float64 {
	n := min(len(a), len(b))
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
