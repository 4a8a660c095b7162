// Package client is a small Go client for the tutor API, used by lovelacectl
// to follow animation jobs until they settle.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"lovelace-tutor/internal/domain/model"
)

// DefaultPollInterval matches the browser client.
const DefaultPollInterval = 2 * time.Second

// ErrJobNotFound is returned by GetJob for a 404. PollJob treats it as
// transient since a job may not be readable yet right after creation.
var ErrJobNotFound = errors.New("job not found")

type Client struct {
	baseURL string
	hc      *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      &http.Client{Timeout: timeout},
	}
}

// ChatRequest mirrors the /api/chat body.
type ChatRequest struct {
	Query              string                   `json:"query"`
	Mode               string                   `json:"mode,omitempty"`
	CurrentExpressions []model.DesmosExpression `json:"currentExpressions,omitempty"`
	Dimension          string                   `json:"dimension,omitempty"`
	LessonID           string                   `json:"lessonId,omitempty"`
}

type ChatAnimation struct {
	JobID  string                   `json:"jobId"`
	Status model.AnimationJobStatus `json:"status"`
	Code   string                   `json:"code"`
}

type ChatResponse struct {
	Actions   []model.DesmosAction `json:"actions"`
	Message   string               `json:"message"`
	Animation *ChatAnimation       `json:"animation,omitempty"`
}

// StatusError is a non-2xx answer from the API.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api status %d: %s", e.Status, e.Message)
}

func (c *Client) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	var out ChatResponse
	if err := c.do(httpReq, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetJob reads one job record.
func (c *Client) GetJob(ctx context.Context, id string) (*model.AnimationJob, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/animation/jobs/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	var job model.AnimationJob
	if err := c.do(req, &job); err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.Status == http.StatusNotFound {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	return &job, nil
}

// PollJob fetches the job every interval, reporting each record to onUpdate,
// until it reaches a terminal status, ctx ends, or a request fails with
// anything other than not-found.
func (c *Client) PollJob(ctx context.Context, id string, interval time.Duration, onUpdate func(*model.AnimationJob)) (*model.AnimationJob, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		job, err := c.GetJob(ctx, id)
		switch {
		case errors.Is(err, ErrJobNotFound):
		case err != nil:
			return nil, err
		default:
			if onUpdate != nil {
				onUpdate(job)
			}
			if job.Status.IsTerminal() {
				return job, nil
			}
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(b, &e) != nil || e.Error == "" {
			e.Error = strings.TrimSpace(string(b))
		}
		return &StatusError{Status: resp.StatusCode, Message: e.Error}
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
