//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"lovelace-tutor/internal/domain"
	"lovelace-tutor/internal/domain/model"
)

func TestAnimationJobRepo_SaveAndGet(t *testing.T) {
	cleanup(t)
	ctx := context.Background()
	repo := NewAnimationJobRepo(testPool)

	if _, err := repo.Get(ctx, "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	job := model.NewAnimationJob("job-1", "animate a derivative", "class A(Scene): pass", now)
	if err := repo.Save(ctx, job); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := job.Transition(model.AnimationJobFailed, "", "worker down", now.Add(time.Second)); err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if err := repo.Save(ctx, job); err != nil {
		t.Fatalf("Save (update): %v", err)
	}

	got, err := repo.Get(ctx, "job-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != model.AnimationJobFailed || got.Error != "worker down" {
		t.Fatalf("unexpected job %+v", got)
	}
}

func TestRAGChunkRepo_InsertAndMatch(t *testing.T) {
	cleanup(t)
	ctx := context.Background()
	repo := NewRAGChunkRepo(testPool, NewTxManager(testPool))

	vec := func(hot int) []float32 {
		v := make([]float32, 1536)
		v[hot] = 1
		return v
	}
	chunks := []*model.RAGChunk{
		{LessonID: "calc", SourceType: model.SourceNotesOrTextbook, SourceName: "a.md", ChunkIndex: 0, Content: "limits", ContentHash: "h0", Embedding: vec(0)},
		{LessonID: "calc", SourceType: model.SourceNotesOrTextbook, SourceName: "a.md", ChunkIndex: 1, Content: "derivatives", ContentHash: "h1", Embedding: vec(1)},
		{LessonID: "other", SourceType: model.SourceLectureTranscript, SourceName: "b.mp3", ChunkIndex: 0, Content: "noise", ContentHash: "h2", Embedding: vec(1)},
	}
	if err := repo.Insert(ctx, chunks); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	got, err := repo.Match(ctx, "calc", vec(1), 5)
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if len(got) != 2 || got[0].Content != "derivatives" {
		t.Fatalf("unexpected match order %+v", got)
	}
}
