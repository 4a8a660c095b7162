package repository

import (
	"context"

	"lovelace-tutor/internal/domain/model"
)

// AnimationJobRepository persists one document per job. Save overwrites the
// whole record; Get returns domain.ErrNotFound for unknown ids.
type AnimationJobRepository interface {
	Save(ctx context.Context, job *model.AnimationJob) error
	Get(ctx context.Context, id string) (*model.AnimationJob, error)
}
