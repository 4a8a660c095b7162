// Package memstore keeps animation jobs and lecture chunks in process memory. Records vanish on
// restart; intended for development and tests.
package memstore

import (
	"context"
	"sync"

	"lovelace-tutor/internal/domain"
	"lovelace-tutor/internal/domain/model"
	"lovelace-tutor/internal/domain/ports/repository"
)

var _ repository.AnimationJobRepository = (*AnimationJobRepo)(nil)

type AnimationJobRepo struct {
	mu   sync.RWMutex
	jobs map[string]model.AnimationJob
}

func NewAnimationJobRepo() *AnimationJobRepo {
	return &AnimationJobRepo{jobs: make(map[string]model.AnimationJob)}
}

func (r *AnimationJobRepo) Save(_ context.Context, job *model.AnimationJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.ID] = *job
	return nil
}

func (r *AnimationJobRepo) Get(_ context.Context, id string) (*model.AnimationJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	j, ok := r.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &j, nil
}
