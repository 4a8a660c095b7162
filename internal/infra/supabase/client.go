// Package supabase backs the job store, video store and RAG chunk repository
// with a Supabase project (storage buckets and PostgREST).
package supabase

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"sync"

	storage_go "github.com/supabase-community/storage-go"
	sb "github.com/supabase-community/supabase-go"

	"lovelace-tutor/internal/config"
)

// Client wraps the service-role supabase client. Storage writes are
// serialized: the storage client keeps upload options in a shared header map.
type Client struct {
	sb     *sb.Client
	bucket string
	mu     sync.Mutex
}

func NewClient(cfg config.SupabaseConfig) (*Client, error) {
	if !cfg.Enabled() {
		return nil, errors.New("supabase: url and service role key are required")
	}
	c, err := sb.NewClient(strings.TrimRight(cfg.URL, "/"), cfg.ServiceRoleKey, &sb.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("supabase client: %w", err)
	}
	return &Client{sb: c, bucket: cfg.Bucket}, nil
}

// upload writes data at path in the configured bucket, overwriting any
// existing object.
func (c *Client) upload(path, contentType string, data []byte) error {
	upsert := true
	cacheControl := "no-cache"
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.sb.Storage.UploadFile(c.bucket, path, bytes.NewReader(data), storage_go.FileOptions{
		ContentType:  &contentType,
		CacheControl: &cacheControl,
		Upsert:       &upsert,
	})
	return err
}

func (c *Client) download(path string) ([]byte, error) {
	return c.sb.Storage.DownloadFile(c.bucket, path)
}

func (c *Client) publicURL(path string) string {
	return c.sb.Storage.GetPublicUrl(c.bucket, path).SignedURL
}

// isNotFound recognizes the storage API's missing-object answers, which come
// back as 400 or 404 depending on the deployment.
func isNotFound(err error) bool {
	var se *storage_go.StorageError
	if errors.As(err, &se) {
		if se.Status == 404 {
			return true
		}
		msg := strings.ToLower(se.Message)
		return strings.Contains(msg, "not found") || strings.Contains(msg, "not_found")
	}
	return false
}
