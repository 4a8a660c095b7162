// Package blob stores rendered videos on the local filesystem; the api
// package serves the directory under /media/.
package blob

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"lovelace-tutor/internal/domain"
	"lovelace-tutor/internal/domain/ports/repository"
)

var _ repository.VideoStore = (*LocalStore)(nil)

type LocalStore struct {
	dir     string
	baseURL string
}

// NewLocalStore writes under dir; returned URLs are baseURL + "/media/" + key.
// An empty baseURL yields root-relative URLs.
func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}
	return &LocalStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *LocalStore) Dir() string { return s.dir }

func (s *LocalStore) PutVideo(ctx context.Context, key string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	clean := path.Clean("/" + key)[1:]
	if clean == "" || clean != key {
		return "", fmt.Errorf("%w: bad media key %q", domain.ErrInvalidArgument, key)
	}
	full := filepath.Join(s.dir, filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", err
	}
	tmp := full + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", err
	}
	if err := os.Rename(tmp, full); err != nil {
		_ = os.Remove(tmp)
		return "", err
	}
	return s.baseURL + "/media/" + clean, nil
}
