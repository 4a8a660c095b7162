//go:build !integration

package blob

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"lovelace-tutor/internal/domain"
)

func TestLocalStore_PutVideo(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStore(dir, "http://localhost:8080/")
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}

	url, err := s.PutVideo(context.Background(), "manim-renders/j1.mp4", []byte("video"))
	if err != nil {
		t.Fatalf("PutVideo: %v", err)
	}
	if url != "http://localhost:8080/media/manim-renders/j1.mp4" {
		t.Fatalf("url = %s", url)
	}
	b, err := os.ReadFile(filepath.Join(dir, "manim-renders", "j1.mp4"))
	if err != nil || string(b) != "video" {
		t.Fatalf("file not written: %v %q", err, b)
	}
}

func TestLocalStore_RejectsTraversal(t *testing.T) {
	s, _ := NewLocalStore(t.TempDir(), "")
	for _, key := range []string{"../escape.mp4", "a/../../b.mp4", ""} {
		if _, err := s.PutVideo(context.Background(), key, []byte("x")); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("key %q: expected ErrInvalidArgument, got %v", key, err)
		}
	}
}
