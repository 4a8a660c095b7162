package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/oklog/ulid/v2"

	"lovelace-tutor/internal/domain/model"
	"lovelace-tutor/internal/domain/ports/repository"
)

var _ repository.RAGChunkRepository = (*RAGChunkRepo)(nil)

// RAGChunkRepo inserts into rag_chunks via PostgREST and searches through the
// match_rag_chunks function.
type RAGChunkRepo struct {
	c *Client
}

func NewRAGChunkRepo(c *Client) *RAGChunkRepo { return &RAGChunkRepo{c: c} }

func (r *RAGChunkRepo) Insert(ctx context.Context, chunks []*model.RAGChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, c := range chunks {
		if c.ID == "" {
			c.ID = ulid.Make().String()
		}
	}
	if _, _, err := r.c.sb.From("rag_chunks").Insert(chunks, false, "", "minimal", "").Execute(); err != nil {
		return fmt.Errorf("supabase insert rag_chunks: %w", err)
	}
	return nil
}

type matchRow struct {
	SourceName string  `json:"source_name"`
	SourceType string  `json:"source_type"`
	Content    string  `json:"content"`
	ChunkIndex *int    `json:"chunk_index"`
	Page       *int    `json:"page"`
	Similarity float64 `json:"similarity"`
}

type rpcError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (r *RAGChunkRepo) Match(ctx context.Context, lessonID string, query []float32, k int) ([]model.RetrievedChunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw := r.c.sb.Rpc("match_rag_chunks", "", map[string]any{
		"lesson_id":       lessonID,
		"query_embedding": query,
		"match_count":     k,
	})
	// Rpc reports transport failures only through an empty body.
	if raw == "" {
		return nil, errors.New("supabase rpc match_rag_chunks: empty response")
	}

	var rows []matchRow
	if err := json.Unmarshal([]byte(raw), &rows); err != nil {
		var rerr rpcError
		if json.Unmarshal([]byte(raw), &rerr) == nil && rerr.Message != "" {
			return nil, fmt.Errorf("supabase rpc match_rag_chunks: (%s) %s", rerr.Code, rerr.Message)
		}
		return nil, fmt.Errorf("supabase rpc match_rag_chunks: decode: %w", err)
	}

	out := make([]model.RetrievedChunk, 0, len(rows))
	for _, row := range rows {
		out = append(out, model.RetrievedChunk{
			SourceName: row.SourceName,
			SourceType: row.SourceType,
			Content:    row.Content,
			Score:      row.Similarity,
			ChunkIndex: row.ChunkIndex,
			Page:       row.Page,
		})
	}
	return out, nil
}
