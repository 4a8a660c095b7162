package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"lovelace-tutor/internal/domain"
	"lovelace-tutor/internal/domain/model"
	"lovelace-tutor/internal/domain/ports/repository"
)

var _ repository.AnimationJobRepository = (*JobStore)(nil)

// JobStore keeps each job as a JSON object at manim-jobs/{id}.json.
type JobStore struct {
	c *Client
}

func NewJobStore(c *Client) *JobStore { return &JobStore{c: c} }

func jobPath(id string) string { return "manim-jobs/" + id + ".json" }

// validJobID keeps ids from escaping the manim-jobs/ prefix.
func validJobID(id string) bool {
	return id != "" && !strings.ContainsAny(id, "/\\") && !strings.Contains(id, "..")
}

func (s *JobStore) Save(ctx context.Context, job *model.AnimationJob) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !validJobID(job.ID) {
		return fmt.Errorf("%w: job id %q", domain.ErrInvalidArgument, job.ID)
	}
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	if err := s.c.upload(jobPath(job.ID), "application/json", data); err != nil {
		return fmt.Errorf("supabase save job %s: %w", job.ID, err)
	}
	return nil
}

func (s *JobStore) Get(ctx context.Context, id string) (*model.AnimationJob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !validJobID(id) {
		return nil, domain.ErrNotFound
	}
	data, err := s.c.download(jobPath(id))
	if err != nil {
		if isNotFound(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("supabase get job %s: %w", id, err)
	}
	var job model.AnimationJob
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("decode job %s: %w", id, err)
	}
	return &job, nil
}
