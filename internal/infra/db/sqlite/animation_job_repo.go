// Package sqlite is the single-file job store for local and single-node runs.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"lovelace-tutor/internal/domain"
	"lovelace-tutor/internal/domain/model"
	"lovelace-tutor/internal/domain/ports/repository"
)

var _ repository.AnimationJobRepository = (*AnimationJobRepo)(nil)

type AnimationJobRepo struct {
	db *sql.DB
}

func Open(path string) (*AnimationJobRepo, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// a single writer avoids SQLITE_BUSY between concurrent callbacks
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS animation_jobs (
  id TEXT PRIMARY KEY,
  status TEXT NOT NULL,
  doc TEXT NOT NULL,
  created_at INTEGER NOT NULL,
  updated_at INTEGER NOT NULL
);
`); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &AnimationJobRepo{db: db}, nil
}

func (s *AnimationJobRepo) Close() error { return s.db.Close() }

func (s *AnimationJobRepo) Save(ctx context.Context, job *model.AnimationJob) error {
	doc, err := json.Marshal(job)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO animation_jobs (id, status, doc, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?)
         ON CONFLICT(id) DO UPDATE SET status = excluded.status, doc = excluded.doc, updated_at = excluded.updated_at`,
		job.ID,
		string(job.Status),
		string(doc),
		job.CreatedAt.UnixMilli(),
		job.UpdatedAt.UnixMilli(),
	)
	return err
}

func (s *AnimationJobRepo) Get(ctx context.Context, id string) (*model.AnimationJob, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT doc FROM animation_jobs WHERE id = ?`, id).Scan(&doc)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	var job model.AnimationJob
	if err := json.Unmarshal([]byte(doc), &job); err != nil {
		return nil, fmt.Errorf("decode job %s: %w", id, err)
	}
	return &job, nil
}
