//go:build !integration

package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"lovelace-tutor/internal/domain"
	"lovelace-tutor/internal/domain/model"
)

func TestAnimationJobRepo_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewAnimationJobRepo()

	if _, err := repo.Get(ctx, "x"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	job := model.NewAnimationJob("x", "q", "code", time.Now())
	if err := repo.Save(ctx, job); err != nil {
		t.Fatalf("Save: %v", err)
	}
	job.Status = model.AnimationJobFailed // caller mutation after save

	got, err := repo.Get(ctx, "x")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != model.AnimationJobQueued {
		t.Fatalf("stored record aliased caller's pointer: %s", got.Status)
	}
	got.Status = model.AnimationJobRendering
	again, _ := repo.Get(ctx, "x")
	if again.Status != model.AnimationJobQueued {
		t.Fatalf("returned record aliases the store")
	}
}
