package postgres

import (
	"context"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/oklog/ulid/v2"

	"lovelace-tutor/internal/domain/model"
	"lovelace-tutor/internal/domain/ports/repository"
)

var _ repository.RAGChunkRepository = (*ragChunkRepo)(nil)

// ragChunkRepo stores chunks in rag_chunks with a pgvector embedding column.
type ragChunkRepo struct {
	pool *pgxpool.Pool
	tm   *TxManager
}

func NewRAGChunkRepo(pool *pgxpool.Pool, tm *TxManager) *ragChunkRepo {
	return &ragChunkRepo{pool: pool, tm: tm}
}

// Insert writes all chunks of one file in a single transaction so a lesson
// never holds half a document.
func (r *ragChunkRepo) Insert(ctx context.Context, chunks []*model.RAGChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	const q = `
INSERT INTO rag_chunks (id, lesson_id, source_type, source_name, page, chunk_index, content, content_hash, embedding)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::vector)`

	err := r.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, c := range chunks {
			if c.ID == "" {
				c.ID = ulid.Make().String()
			}
			batch.Queue(q, c.ID, c.LessonID, c.SourceType, c.SourceName, c.Page, c.ChunkIndex,
				c.Content, c.ContentHash, vectorLiteral(c.Embedding))
		}
		br := tx.SendBatch(ctx, batch)
		for range chunks {
			if _, err := br.Exec(); err != nil {
				_ = br.Close()
				return err
			}
		}
		return br.Close()
	})
	if err != nil {
		return wrapPgErr("insert rag chunks", err)
	}
	return nil
}

func (r *ragChunkRepo) Match(ctx context.Context, lessonID string, query []float32, k int) ([]model.RetrievedChunk, error) {
	const q = `
SELECT source_name, source_type, content, chunk_index, page, 1 - (embedding <=> $2::vector) AS similarity
FROM rag_chunks
WHERE lesson_id = $1
ORDER BY embedding <=> $2::vector
LIMIT $3`

	rows, err := r.pool.Query(ctx, q, lessonID, vectorLiteral(query), k)
	if err != nil {
		return nil, wrapPgErr("match rag chunks", err)
	}
	defer rows.Close()

	var out []model.RetrievedChunk
	for rows.Next() {
		var (
			c     model.RetrievedChunk
			idx   int
			page  *int
			score float64
		)
		if err := rows.Scan(&c.SourceName, &c.SourceType, &c.Content, &idx, &page, &score); err != nil {
			return nil, err
		}
		c.ChunkIndex = &idx
		c.Page = page
		c.Score = score
		out = append(out, c)
	}
	return out, rows.Err()
}

// vectorLiteral renders an embedding in pgvector text form: [0.1,0.2,...].
func vectorLiteral(v []float32) string {
	var b strings.Builder
	b.Grow(len(v) * 10)
	b.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(f), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}
