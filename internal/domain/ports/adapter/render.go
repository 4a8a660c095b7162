package adapter

import "context"

// RenderRequest is the handoff to the external render worker.
type RenderRequest struct {
	JobID          string `json:"jobId"`
	PythonCode     string `json:"pythonCode"`
	CallbackURL    string `json:"callbackUrl"`
	CallbackSecret string `json:"callbackSecret"`
}

// RenderWorker accepts render jobs; results come back through the callback.
type RenderWorker interface {
	Enqueue(ctx context.Context, req RenderRequest) error
}
