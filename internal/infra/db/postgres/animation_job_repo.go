package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"lovelace-tutor/internal/domain"
	"lovelace-tutor/internal/domain/model"
	"lovelace-tutor/internal/domain/ports/repository"
)

var _ repository.AnimationJobRepository = (*animationJobRepo)(nil)

// animationJobRepo stores the job document in a jsonb column; status and
// timestamps are copied out for querying by operators.
type animationJobRepo struct {
	pool *pgxpool.Pool
}

func NewAnimationJobRepo(pool *pgxpool.Pool) *animationJobRepo {
	return &animationJobRepo{pool: pool}
}

func (r *animationJobRepo) Save(ctx context.Context, job *model.AnimationJob) error {
	doc, err := json.Marshal(job)
	if err != nil {
		return err
	}
	const q = `
INSERT INTO animation_jobs (id, status, doc, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE SET
  status = EXCLUDED.status,
  doc = EXCLUDED.doc,
  updated_at = EXCLUDED.updated_at;`

	if _, err := r.pool.Exec(ctx, q, job.ID, string(job.Status), doc, job.CreatedAt, job.UpdatedAt); err != nil {
		return wrapPgErr("save animation job", err)
	}
	return nil
}

func (r *animationJobRepo) Get(ctx context.Context, id string) (*model.AnimationJob, error) {
	var doc []byte
	err := r.pool.QueryRow(ctx, `SELECT doc FROM animation_jobs WHERE id = $1`, id).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, wrapPgErr("get animation job", err)
	}
	var job model.AnimationJob
	if err := json.Unmarshal(doc, &job); err != nil {
		return nil, fmt.Errorf("decode job %s: %w", id, err)
	}
	return &job, nil
}
