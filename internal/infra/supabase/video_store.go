package supabase

import (
	"context"
	"fmt"

	"lovelace-tutor/internal/domain/ports/repository"
)

var _ repository.VideoStore = (*VideoStore)(nil)

type VideoStore struct {
	c *Client
}

func NewVideoStore(c *Client) *VideoStore { return &VideoStore{c: c} }

// PutVideo uploads an mp4 and returns its public bucket URL.
func (s *VideoStore) PutVideo(ctx context.Context, key string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := s.c.upload(key, "video/mp4", data); err != nil {
		return "", fmt.Errorf("supabase upload %s: %w", key, err)
	}
	return s.c.publicURL(key), nil
}
