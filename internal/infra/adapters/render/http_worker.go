// Package render hands animation jobs to the external render worker.
package render

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"lovelace-tutor/internal/domain/ports/adapter"
)

var _ adapter.RenderWorker = (*HTTPWorker)(nil)

type HTTPWorker struct {
	url    string
	secret string
	client *http.Client
}

func NewHTTPWorker(workerURL, secret string, timeout time.Duration) (*HTTPWorker, error) {
	workerURL = strings.TrimRight(strings.TrimSpace(workerURL), "/")
	if workerURL == "" {
		return nil, errors.New("render worker url empty")
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPWorker{url: workerURL, secret: secret, client: &http.Client{Timeout: timeout}}, nil
}

// Enqueue posts the job to {worker}/render. The worker acknowledges quickly
// and reports progress through the callback URL.
func (w *HTTPWorker) Enqueue(ctx context.Context, job adapter.RenderRequest) error {
	b, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode render request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url+"/render", bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if w.secret != "" {
		req.Header.Set("Authorization", "Bearer "+w.secret)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("Worker enqueue failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = "Unknown error"
		}
		return fmt.Errorf("Worker enqueue failed (%d): %s", resp.StatusCode, msg)
	}
	return nil
}
