// Package api exposes the tutor over HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"lovelace-tutor/internal/config"
	"lovelace-tutor/internal/infra/ratelimit"
	"lovelace-tutor/internal/usecase"
)

// CallbackAuthenticator validates the Authorization header of a render
// callback and returns the job id the credential is bound to ("" for any).
type CallbackAuthenticator interface {
	Authenticate(authHeader string) (string, error)
}

type Deps struct {
	Graph     usecase.GraphUseCase
	Animation usecase.AnimationUseCase
	Ingest    usecase.IngestUseCase
	Tutor     usecase.TutorUseCase
	Speech    usecase.SpeechUseCase
	Callbacks CallbackAuthenticator

	Limiter ratelimit.Limiter
	Limits  config.RateLimitConfig

	// CallbackURL overrides the callback address derived from the request.
	CallbackURL    string
	// TrustProxy lets X-Forwarded-Host/Proto shape the derived callback URL.
	TrustProxy     bool
	MaxUploadBytes int64
	MediaDir       string
	AllowedOrigins []string
	RequestTimeout time.Duration
}

type Server struct {
	deps Deps
	log  *zerolog.Logger
}

func NewServer(deps Deps, logger *zerolog.Logger) *Server {
	if deps.RequestTimeout <= 0 {
		deps.RequestTimeout = 90 * time.Second
	}
	if deps.MaxUploadBytes <= 0 {
		deps.MaxUploadBytes = 25 << 20
	}
	return &Server{deps: deps, log: logger}
}

// Handler builds the router with the full middleware chain.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(TraceID(s.log), RequestLog(s.log), Recover(s.log), CORS(s.deps.AllowedOrigins))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())
	if s.deps.MediaDir != "" {
		r.Handle("/media/*", http.StripPrefix("/media/", http.FileServer(http.Dir(s.deps.MediaDir))))
	}

	limit := func(endpoint string, rule config.LimitRule) func(http.Handler) http.Handler {
		return RateLimit(s.deps.Limiter, endpoint, rule, s.log)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(Timeout(s.deps.RequestTimeout))

		r.With(limit("chat", s.deps.Limits.Chat)).Post("/chat", chatHandler(s))
		r.With(limit("upload", s.deps.Limits.Upload)).Post("/upload", uploadHandler(s))
		r.With(limit("ask", s.deps.Limits.Ask)).Post("/session/ask", sessionAskHandler(s))
		r.With(limit("tts", s.deps.Limits.TTS)).Post("/tts", ttsHandler(s))

		r.Get("/animation/jobs/{id}", jobGetHandler(s))
		r.Post("/animation/callback", callbackHandler(s))
	})
	return r
}
