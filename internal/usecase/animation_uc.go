// File: internal/usecase/animation_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"lovelace-tutor/internal/domain"
	"lovelace-tutor/internal/domain/model"
	"lovelace-tutor/internal/domain/ports/adapter"
	"lovelace-tutor/internal/domain/ports/repository"
	"lovelace-tutor/internal/infra/logging"
	"lovelace-tutor/internal/infra/metrics"
)

const (
	msgNoAnimationCode = "Could not generate animation code."
	msgEnqueueFailed   = "Failed to queue render job."
	msgAnimationQueued = "Generated Manim code and queued render job."
)

// Compile-time check
var _ AnimationUseCase = (*animationUC)(nil)

// CallbackCredentials issues the credential the render worker presents when
// it calls back for a job.
type CallbackCredentials interface {
	SecretFor(jobID string) (string, error)
}

// CallbackInput is a validated render-worker callback.
type CallbackInput struct {
	JobID    string
	Status   model.AnimationJobStatus
	VideoURL string
	Video    []byte
	Error    string
}

type AnimationSummary struct {
	JobID  string                   `json:"jobId"`
	Status model.AnimationJobStatus `json:"status"`
	Code   string                   `json:"code"`
}

type AnimationResult struct {
	Message   string
	Animation *AnimationSummary
}

type AnimationUseCase interface {
	Generate(ctx context.Context, query, callbackURL string) (*AnimationResult, error)
	Create(ctx context.Context, query, code string) (*model.AnimationJob, error)
	Enqueue(ctx context.Context, job *model.AnimationJob, callbackURL string) error
	ApplyCallback(ctx context.Context, in CallbackInput) (*model.AnimationJob, error)
	Get(ctx context.Context, id string) (*model.AnimationJob, error)
}

type animationUC struct {
	jobs      repository.AnimationJobRepository
	videos    repository.VideoStore
	worker    adapter.RenderWorker
	creds     CallbackCredentials
	llm       adapter.ToolChatModel
	model     string
	maxTokens int
	log       *zerolog.Logger

	now   func() time.Time
	newID func() string
}

// NewAnimationUseCase wires the job lifecycle. worker and videos may be nil:
// enqueueing then fails the job and base64 callbacks are rejected.
func NewAnimationUseCase(
	jobs repository.AnimationJobRepository,
	videos repository.VideoStore,
	worker adapter.RenderWorker,
	creds CallbackCredentials,
	llm adapter.ToolChatModel,
	modelName string,
	maxTokens int,
	logger *zerolog.Logger,
) AnimationUseCase {
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return &animationUC{
		jobs:      jobs,
		videos:    videos,
		worker:    worker,
		creds:     creds,
		llm:       llm,
		model:     modelName,
		maxTokens: maxTokens,
		log:       logger,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

func (uc *animationUC) Generate(ctx context.Context, query, callbackURL string) (*AnimationResult, error) {
	log := logging.With(ctx, uc.log)
	defer logging.TraceDuration(log, "AnimationUC.Generate")()

	resp, err := uc.llm.Converse(ctx, adapter.ConverseRequest{
		Model:     uc.model,
		System:    animationSystemPrompt,
		MaxTokens: uc.maxTokens,
		Turns: []adapter.Turn{{
			Role:   "user",
			Blocks: []adapter.Block{{Type: adapter.BlockText, Text: query}},
		}},
	})
	if err != nil {
		log.Error().Err(err).Msg("animation model call failed")
		return nil, fmt.Errorf("%w: animation model: %w", domain.ErrUpstream, err)
	}

	code := SanitizePythonCode(resp.Text())
	if code == "" {
		log.Warn().Msg("animation model returned no code")
		return &AnimationResult{Message: msgNoAnimationCode}, nil
	}

	job, err := uc.Create(ctx, query, code)
	if err != nil {
		return nil, err
	}
	out := &AnimationResult{
		Message:   msgAnimationQueued,
		Animation: &AnimationSummary{JobID: job.ID, Status: job.Status, Code: code},
	}
	if err := uc.Enqueue(ctx, job, callbackURL); err != nil {
		out.Message = msgEnqueueFailed
		out.Animation.Status = model.AnimationJobFailed
	}
	return out, nil
}

func (uc *animationUC) Create(ctx context.Context, query, code string) (*model.AnimationJob, error) {
	job := model.NewAnimationJob(uc.newID(), query, code, uc.now())
	if err := uc.jobs.Save(ctx, job); err != nil {
		return nil, fmt.Errorf("save job: %w", err)
	}
	metrics.IncJobTransition(string(job.Status))
	return job, nil
}

// Enqueue hands the job to the render worker. Any failure is terminal: the
// job is marked failed with the reason and the error is returned.
func (uc *animationUC) Enqueue(ctx context.Context, job *model.AnimationJob, callbackURL string) error {
	log := logging.With(logging.WithJobID(ctx, job.ID), uc.log)

	err := uc.enqueue(ctx, job, callbackURL)
	if err == nil {
		log.Info().Msg("render job enqueued")
		return nil
	}

	metrics.IncEnqueueFailure()
	log.Error().Err(err).Msg("render enqueue failed")
	if terr := job.Transition(model.AnimationJobFailed, "", err.Error(), uc.now()); terr != nil {
		return errors.Join(err, terr)
	}
	if serr := uc.jobs.Save(ctx, job); serr != nil {
		log.Error().Err(serr).Msg("persist failed job")
		return errors.Join(err, serr)
	}
	metrics.IncJobTransition(string(job.Status))
	return err
}

func (uc *animationUC) enqueue(ctx context.Context, job *model.AnimationJob, callbackURL string) error {
	if uc.worker == nil {
		return fmt.Errorf("%w: render worker url is not set", domain.ErrNotConfigured)
	}
	secret := ""
	if uc.creds != nil {
		s, err := uc.creds.SecretFor(job.ID)
		if err != nil {
			return err
		}
		secret = s
	}
	return uc.worker.Enqueue(ctx, adapter.RenderRequest{
		JobID:          job.ID,
		PythonCode:     job.GeneratedCode,
		CallbackURL:    callbackURL,
		CallbackSecret: secret,
	})
}

// ApplyCallback is the only path to rendering, completed or failed after
// enqueue. Re-delivery of the current status is accepted as a no-op.
func (uc *animationUC) ApplyCallback(ctx context.Context, in CallbackInput) (*model.AnimationJob, error) {
	ctx = logging.WithJobID(ctx, in.JobID)
	log := logging.With(ctx, uc.log)

	job, err := uc.jobs.Get(ctx, in.JobID)
	if err != nil {
		return nil, err
	}
	if job.Status == in.Status {
		log.Debug().Str("status", string(in.Status)).Msg("duplicate callback ignored")
		return job, nil
	}
	if !model.CanTransition(job.Status, in.Status) {
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, job.Status, in.Status)
	}

	videoURL := in.VideoURL
	if in.Status == model.AnimationJobCompleted && videoURL == "" {
		if len(in.Video) == 0 {
			return nil, fmt.Errorf("%w: completed callback without video", domain.ErrInvalidArgument)
		}
		if uc.videos == nil {
			return nil, fmt.Errorf("%w: no video store", domain.ErrNotConfigured)
		}
		videoURL, err = uc.videos.PutVideo(ctx, "manim-renders/"+job.ID+".mp4", in.Video)
		if err != nil {
			log.Error().Err(err).Msg("video upload failed")
			return nil, fmt.Errorf("%w: upload video: %w", domain.ErrUpstream, err)
		}
	}

	if err := job.Transition(in.Status, videoURL, in.Error, uc.now()); err != nil {
		return nil, err
	}
	if err := uc.jobs.Save(ctx, job); err != nil {
		return nil, fmt.Errorf("save job: %w", err)
	}
	metrics.IncJobTransition(string(job.Status))
	log.Info().Str("status", string(job.Status)).Msg("render callback applied")
	return job, nil
}

func (uc *animationUC) Get(ctx context.Context, id string) (*model.AnimationJob, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.ErrNotFound
	}
	return uc.jobs.Get(ctx, id)
}

var (
	fencedBlock = regexp.MustCompile("(?is)^```(?:python)?\\s*(.*?)\\s*```$")
	fenceLine   = regexp.MustCompile("(?im)^```(?:python)?[ \\t]*$")
)

// SanitizePythonCode strips markdown fences a model may wrap code in.
func SanitizePythonCode(raw string) string {
	s := strings.TrimSpace(raw)
	if m := fencedBlock.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(fenceLine.ReplaceAllString(s, ""))
}
