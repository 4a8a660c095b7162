package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"

	"lovelace-tutor/internal/domain"
	"lovelace-tutor/internal/domain/model"
	"lovelace-tutor/internal/domain/ports/repository"
)

var _ repository.AnimationJobRepository = (*JobStore)(nil)

// JobStore keeps each job as a JSON string under manim-jobs:{id}, no TTL.
type JobStore struct {
	client RedisClient
}

func NewJobStore(client RedisClient) *JobStore {
	return &JobStore{client: client}
}

func jobKey(id string) string { return "manim-jobs:" + id }

func (s *JobStore) Save(ctx context.Context, job *model.AnimationJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, jobKey(job.ID), data, 0)
}

func (s *JobStore) Get(ctx context.Context, id string) (*model.AnimationJob, error) {
	data, err := s.client.Get(ctx, jobKey(id))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	var job model.AnimationJob
	if err := json.Unmarshal([]byte(data), &job); err != nil {
		return nil, fmt.Errorf("decode job %s: %w", id, err)
	}
	return &job, nil
}
