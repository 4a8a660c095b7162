// File: cmd/app/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lovelace-tutor/internal/config"
	"lovelace-tutor/internal/infra/api"
	"lovelace-tutor/internal/infra/logging"
	"lovelace-tutor/internal/infra/metrics"
	"lovelace-tutor/internal/infra/security"
	"lovelace-tutor/internal/usecase"
)

// Set at build time with -ldflags "-X main.version=... -X main.commit=...".
var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("[DEV MODE] enabled")
	}

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- Storage ----
	res := &resources{}
	defer res.close(logger)

	jobs, err := buildJobStore(ctx, cfg, res, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("store", cfg.Jobs.Store).Msg("job store")
	}
	videos, mediaDir, err := buildVideoStore(cfg, res)
	if err != nil {
		logger.Fatal().Err(err).Str("store", cfg.Media.Store).Msg("video store")
	}
	chunks, err := buildRAGStore(ctx, cfg, res, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("store", cfg.RAG.Store).Msg("rag store")
	}
	limiter, err := buildRateLimiter(ctx, cfg, res)
	if err != nil {
		logger.Fatal().Err(err).Str("backend", cfg.RateLimit.Backend).Msg("rate limiter")
	}

	// ---- AI adapters ----
	ai, err := buildAI(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("ai adapters")
	}

	worker, err := buildRenderWorker(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("render worker")
	}
	callbacks := security.NewCallbackAuth(cfg.Render.CallbackSecret, cfg.Render.CallbackTokens, cfg.Render.TokenTTL)
	logger.Info().
		Str("anthropic_key", logging.Redact(cfg.Anthropic.APIKey, cfg.Runtime.Dev)).
		Str("worker_url", cfg.Render.WorkerURL).
		Str("worker_secret", logging.Redact(cfg.Render.WorkerSecret, cfg.Runtime.Dev)).
		Bool("callback_tokens", cfg.Render.CallbackTokens).
		Msg("render configured")
	if callbacks.Open() {
		logger.Warn().Msg("render.callback_secret not set; animation callbacks are unauthenticated")
	}

	// ---- Use cases ----
	graphUC := usecase.NewGraphUseCase(ai.chat, cfg.Anthropic.GraphModel, cfg.Anthropic.GraphMaxTokens, logger)
	animationUC := usecase.NewAnimationUseCase(jobs, videos, worker, callbacks, ai.chat, cfg.Anthropic.AnimationModel, cfg.Anthropic.AnimationMaxTokens, logger)
	ingestUC := usecase.NewIngestUseCase(chunks, ai.embedder, ai.transcriber, ai.extractor, ai.tokens, usecase.IngestOptions{
		MaxFileBytes:     cfg.Upload.MaxFileBytes,
		Concurrency:      cfg.Upload.Concurrency,
		EmbedBatchTokens: cfg.AI.EmbedBatchTokens,
	}, logger)
	tutorUC := usecase.NewTutorUseCase(ai.vision, ai.writer, ingestUC, cfg.RAG.TopK, logger)
	speechUC := usecase.NewSpeechUseCase(ai.speech, logger)

	// ---- HTTP ----
	srv := api.NewServer(api.Deps{
		Graph:          graphUC,
		Animation:      animationUC,
		Ingest:         ingestUC,
		Tutor:          tutorUC,
		Speech:         speechUC,
		Callbacks:      callbacks,
		Limiter:        limiter,
		Limits:         cfg.RateLimit,
		CallbackURL:    cfg.Render.CallbackURL,
		TrustProxy:     cfg.Server.TrustProxy,
		MaxUploadBytes: cfg.Upload.MaxFileBytes,
		MediaDir:       mediaDir,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RequestTimeout: cfg.Server.RequestTimeout,
	}, logger)

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info().
			Str("addr", server.Addr).
			Str("jobs", cfg.Jobs.Store).
			Str("media", cfg.Media.Store).
			Str("rag", cfg.RAG.Store).
			Strs("providers", ai.providers).
			Msg("http listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server error")
			cancel()
		}
	}()

	// ---- Graceful shutdown ----
	<-ctx.Done()
	logger.Info().Msg("shutdown requested")
	shutdownCtx, stop := context.WithTimeout(context.Background(), 15*time.Second)
	defer stop()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
}
