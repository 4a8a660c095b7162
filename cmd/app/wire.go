package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"lovelace-tutor/internal/config"
	"lovelace-tutor/internal/domain/ports/adapter"
	"lovelace-tutor/internal/domain/ports/repository"
	aiAdapters "lovelace-tutor/internal/infra/adapters/ai"
	"lovelace-tutor/internal/infra/adapters/render"
	"lovelace-tutor/internal/infra/blob"
	pg "lovelace-tutor/internal/infra/db/postgres"
	"lovelace-tutor/internal/infra/db/sqlite"
	"lovelace-tutor/internal/infra/extract"
	"lovelace-tutor/internal/infra/memstore"
	"lovelace-tutor/internal/infra/ratelimit"
	red "lovelace-tutor/internal/infra/redis"
	"lovelace-tutor/internal/infra/supabase"
	"lovelace-tutor/internal/rag"

	"github.com/jackc/pgx/v4/pgxpool"
)

// resources holds the shared connections so each backend is dialled once
// and closed on shutdown.
type resources struct {
	pool    *pgxpool.Pool
	redis   red.RedisClient
	sb      *supabase.Client
	closers []io.Closer
}

func (r *resources) postgres(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*pgxpool.Pool, error) {
	if r.pool != nil {
		return r.pool, nil
	}
	pool, err := pg.Connect(ctx, cfg.Database.URL)
	if err != nil {
		return nil, err
	}
	r.pool = pool
	go pg.ReportPoolStats(ctx, pool, 15*time.Second, logger)
	return pool, nil
}

func (r *resources) redisClient(ctx context.Context, cfg *config.Config) (red.RedisClient, error) {
	if r.redis != nil {
		return r.redis, nil
	}
	c, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		return nil, err
	}
	r.redis = c
	r.closers = append(r.closers, c)
	return c, nil
}

func (r *resources) supabase(cfg *config.Config) (*supabase.Client, error) {
	if r.sb != nil {
		return r.sb, nil
	}
	c, err := supabase.NewClient(cfg.Supabase)
	if err != nil {
		return nil, err
	}
	r.sb = c
	return c, nil
}

func (r *resources) close(logger *zerolog.Logger) {
	for _, c := range r.closers {
		if err := c.Close(); err != nil {
			logger.Warn().Err(err).Msg("close resource")
		}
	}
	if r.pool != nil {
		r.pool.Close()
	}
}

func buildJobStore(ctx context.Context, cfg *config.Config, res *resources, logger *zerolog.Logger) (repository.AnimationJobRepository, error) {
	switch cfg.Jobs.Store {
	case "redis":
		c, err := res.redisClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return red.NewJobStore(c), nil
	case "postgres":
		pool, err := res.postgres(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		return pg.NewAnimationJobRepo(pool), nil
	case "sqlite":
		repo, err := sqlite.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		res.closers = append(res.closers, repo)
		return repo, nil
	case "supabase":
		c, err := res.supabase(cfg)
		if err != nil {
			return nil, err
		}
		return supabase.NewJobStore(c), nil
	default:
		logger.Warn().Msg("jobs.store=memory: animation jobs are lost on restart")
		return memstore.NewAnimationJobRepo(), nil
	}
}

// buildVideoStore also returns the directory to serve under /media when
// videos are written locally.
func buildVideoStore(cfg *config.Config, res *resources) (repository.VideoStore, string, error) {
	if cfg.Media.Store == "supabase" {
		c, err := res.supabase(cfg)
		if err != nil {
			return nil, "", err
		}
		return supabase.NewVideoStore(c), "", nil
	}
	store, err := blob.NewLocalStore(cfg.Media.LocalDir, cfg.Media.BaseURL)
	if err != nil {
		return nil, "", err
	}
	return store, store.Dir(), nil
}

// buildRAGStore returns a nil repository when ingestion is disabled.
func buildRAGStore(ctx context.Context, cfg *config.Config, res *resources, logger *zerolog.Logger) (repository.RAGChunkRepository, error) {
	switch cfg.RAG.Store {
	case "":
		return nil, nil
	case "postgres":
		pool, err := res.postgres(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		return pg.NewRAGChunkRepo(pool, pg.NewTxManager(pool)), nil
	case "supabase":
		c, err := res.supabase(cfg)
		if err != nil {
			return nil, err
		}
		return supabase.NewRAGChunkRepo(c), nil
	default:
		return memstore.NewRAGChunkRepo(), nil
	}
}

func buildRateLimiter(ctx context.Context, cfg *config.Config, res *resources) (ratelimit.Limiter, error) {
	if cfg.RateLimit.Backend == "redis" {
		c, err := res.redisClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return red.NewRateLimiter(c), nil
	}
	return ratelimit.NewFixedWindow(), nil
}

// buildRenderWorker returns a nil worker when no worker URL is configured;
// animation jobs then fail at enqueue.
func buildRenderWorker(cfg *config.Config) (adapter.RenderWorker, error) {
	if cfg.Render.WorkerURL == "" {
		return nil, nil
	}
	w, err := render.NewHTTPWorker(cfg.Render.WorkerURL, cfg.Render.WorkerSecret, cfg.AI.Timeout)
	if err != nil {
		return nil, err
	}
	return w, nil
}

// aiStack is every model-backed port. Fields stay nil interfaces when the
// provider behind them is not configured.
type aiStack struct {
	chat        adapter.ToolChatModel
	embedder    adapter.Embedder
	transcriber adapter.Transcriber
	speech      adapter.SpeechSynthesizer
	vision      adapter.VisionExtractor
	writer      adapter.PromptWriter
	extractor   adapter.DocumentExtractor
	tokens      rag.TokenCounter
	providers   []string
}

func buildAI(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*aiStack, error) {
	lim := aiAdapters.NewLimiter(cfg.AI.ConcurrentLimit)
	st := &aiStack{extractor: extract.New()}

	anthropic, err := aiAdapters.NewAnthropicAdapter(cfg.Anthropic, cfg.AI.Timeout)
	if err != nil {
		return nil, fmt.Errorf("anthropic: %w", err)
	}
	st.chat = lim.ToolChat(anthropic)

	multi := aiAdapters.NewMultiAIAdapter("openai")
	if cfg.OpenAI.APIKey != "" {
		oa, err := aiAdapters.NewOpenAIAdapter(cfg.OpenAI, cfg.AI.Timeout)
		if err != nil {
			return nil, fmt.Errorf("openai: %w", err)
		}
		st.embedder = lim.Embedder(oa)
		st.transcriber = lim.Transcriber(oa)
		st.speech = lim.Speech(oa)
		st.tokens = rag.NewTiktokenCounter(cfg.OpenAI.EmbeddingModel)
		multi.Add("openai", lim.Vision(oa), lim.Writer(oa))
	} else {
		logger.Warn().Msg("openai.api_key not set; upload, tts and transcription are disabled")
	}
	if cfg.Gemini.APIKey != "" {
		gm, err := aiAdapters.NewGeminiAdapter(ctx, cfg.Gemini)
		if err != nil {
			return nil, fmt.Errorf("gemini: %w", err)
		}
		multi.Add("gemini", lim.Vision(gm), lim.Writer(gm))
	}
	if multi.HasVision() {
		st.vision = multi
	}
	if multi.HasWriter() {
		st.writer = multi
	}
	st.providers = append([]string{"anthropic"}, multi.Providers()...)
	return st, nil
}
