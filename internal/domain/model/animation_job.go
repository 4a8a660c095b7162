package model

import (
	"fmt"
	"time"

	"lovelace-tutor/internal/domain"
)

type AnimationJobStatus string

const (
	AnimationJobQueued    AnimationJobStatus = "queued"
	AnimationJobRendering AnimationJobStatus = "rendering"
	AnimationJobCompleted AnimationJobStatus = "completed"
	AnimationJobFailed    AnimationJobStatus = "failed"
)

// DefaultRenderError is recorded when a worker reports failure without a reason.
const DefaultRenderError = "Render failed"

// AnimationJob is one render request tracked from submission to a terminal state.
// The record is stored as a single JSON document keyed by ID; pythonCode is the
// field name the render worker expects.
type AnimationJob struct {
	ID            string             `json:"id"`
	Query         string             `json:"query"`
	GeneratedCode string             `json:"pythonCode"`
	Status        AnimationJobStatus `json:"status"`
	CreatedAt     time.Time          `json:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt"`
	VideoURL      string             `json:"videoUrl,omitempty"`
	Error         string             `json:"error,omitempty"`
}

func NewAnimationJob(id, query, code string, now time.Time) *AnimationJob {
	now = now.UTC()
	return &AnimationJob{
		ID:            id,
		Query:         query,
		GeneratedCode: code,
		Status:        AnimationJobQueued,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func ParseAnimationJobStatus(s string) (AnimationJobStatus, bool) {
	switch st := AnimationJobStatus(s); st {
	case AnimationJobQueued, AnimationJobRendering, AnimationJobCompleted, AnimationJobFailed:
		return st, true
	}
	return "", false
}

func (s AnimationJobStatus) IsTerminal() bool {
	return s == AnimationJobCompleted || s == AnimationJobFailed
}

// CanTransition reports whether from -> to is an edge of the job state machine:
// queued -> rendering | failed, rendering -> completed | failed.
func CanTransition(from, to AnimationJobStatus) bool {
	switch from {
	case AnimationJobQueued:
		return to == AnimationJobRendering || to == AnimationJobFailed
	case AnimationJobRendering:
		return to == AnimationJobCompleted || to == AnimationJobFailed
	}
	return false
}

func (j *AnimationJob) IsTerminal() bool { return j.Status.IsTerminal() }

// Transition moves the job to the next status and keeps videoUrl/error consistent
// with it. videoURL is only read for completed, errMsg only for failed.
func (j *AnimationJob) Transition(to AnimationJobStatus, videoURL, errMsg string, now time.Time) error {
	if !CanTransition(j.Status, to) {
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, j.Status, to)
	}
	switch to {
	case AnimationJobCompleted:
		if videoURL == "" {
			return fmt.Errorf("%w: completed job requires a video url", domain.ErrInvalidArgument)
		}
		j.VideoURL = videoURL
		j.Error = ""
	case AnimationJobFailed:
		if errMsg == "" {
			errMsg = DefaultRenderError
		}
		j.Error = errMsg
		j.VideoURL = ""
	default:
		j.VideoURL = ""
		j.Error = ""
	}
	j.Status = to
	j.UpdatedAt = now.UTC()
	return nil
}
