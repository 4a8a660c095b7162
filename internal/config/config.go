// File: internal/config/config.go
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	TrustProxy     bool          `yaml:"trust_proxy"` // honour X-Forwarded-Host/Proto when deriving callback URLs
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

type SupabaseConfig struct {
	URL            string `yaml:"url"`
	ServiceRoleKey string `yaml:"service_role_key"`
	Bucket         string `yaml:"bucket"`
}

type AnthropicConfig struct {
	APIKey             string `yaml:"api_key"`
	BaseURL            string `yaml:"base_url"`
	GraphModel         string `yaml:"graph_model"`
	GraphMaxTokens     int    `yaml:"graph_max_tokens"`
	AnimationModel     string `yaml:"animation_model"`
	AnimationMaxTokens int    `yaml:"animation_max_tokens"`
}

type OpenAIConfig struct {
	APIKey          string `yaml:"api_key"`
	BaseURL         string `yaml:"base_url"`
	ChatModel       string `yaml:"chat_model"`
	EmbeddingModel  string `yaml:"embedding_model"`
	TranscribeModel string `yaml:"transcribe_model"`
	TTSModel        string `yaml:"tts_model"`
	TTSVoice        string `yaml:"tts_voice"`
}

type GeminiConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

type AIConfig struct {
	ConcurrentLimit  int           `yaml:"concurrent_limit"` // max concurrent AI calls
	Timeout          time.Duration `yaml:"timeout"`
	EmbedBatchTokens int           `yaml:"embed_batch_tokens"`
}

type RenderConfig struct {
	WorkerURL      string        `yaml:"worker_url"`
	WorkerSecret   string        `yaml:"worker_secret"`
	CallbackSecret string        `yaml:"callback_secret"`
	CallbackURL    string        `yaml:"callback_url"`
	CallbackTokens bool          `yaml:"callback_tokens"` // mint per-job JWTs instead of sharing the secret
	TokenTTL       time.Duration `yaml:"token_ttl"`
}

type JobsConfig struct {
	Store string `yaml:"store"` // memory|redis|postgres|sqlite|supabase
}

type MediaConfig struct {
	Store    string `yaml:"store"` // local|supabase
	LocalDir string `yaml:"local_dir"`
	BaseURL  string `yaml:"base_url"`
}

type RAGConfig struct {
	Store string `yaml:"store"` // memory|postgres|supabase|"" (disabled)
	TopK  int    `yaml:"top_k"`
}

type UploadConfig struct {
	MaxFileBytes int64 `yaml:"max_file_bytes"`
	Concurrency  int   `yaml:"concurrency"`
}

type LimitRule struct {
	Max    int           `yaml:"max"`
	Window time.Duration `yaml:"window"`
}

type RateLimitConfig struct {
	Backend string    `yaml:"backend"` // memory|redis
	Chat    LimitRule `yaml:"chat"`
	Upload  LimitRule `yaml:"upload"`
	TTS     LimitRule `yaml:"tts"`
	Ask     LimitRule `yaml:"ask"`
}

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	SQLite    SQLiteConfig    `yaml:"sqlite"`
	Supabase  SupabaseConfig  `yaml:"supabase"`
	Anthropic AnthropicConfig `yaml:"anthropic"`
	OpenAI    OpenAIConfig    `yaml:"openai"`
	Gemini    GeminiConfig    `yaml:"gemini"`
	AI        AIConfig        `yaml:"ai"`
	Render    RenderConfig    `yaml:"render"`
	Jobs      JobsConfig      `yaml:"jobs"`
	Media     MediaConfig     `yaml:"media"`
	RAG       RAGConfig       `yaml:"rag"`
	Upload    UploadConfig    `yaml:"upload"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig parses -config and -dev, reads .env if present and returns the
// validated configuration.
func LoadConfig() (*Config, error) {
	var configPath string
	var dev bool
	flag.StringVar(&configPath, "config", "config.yaml", "path to config yaml")
	flag.BoolVar(&dev, "dev", false, "development mode")
	flag.Parse()

	_ = godotenv.Load()
	return Load(configPath, dev)
}

// Load reads the YAML file at path (a missing file means defaults), applies
// environment overrides and defaults, then validates.
func Load(path string, dev bool) (*Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	envStr(&cfg.Anthropic.APIKey, "ANTHROPIC_API_KEY")
	envStr(&cfg.OpenAI.APIKey, "OPENAI_API_KEY")
	envStr(&cfg.OpenAI.TTSModel, "OPENAI_TTS_MODEL")
	envStr(&cfg.OpenAI.TTSVoice, "OPENAI_TTS_VOICE")
	envStr(&cfg.Gemini.APIKey, "GEMINI_API_KEY")
	envStr(&cfg.Render.WorkerURL, "RENDER_WORKER_URL")
	envStr(&cfg.Render.WorkerSecret, "RENDER_WORKER_SECRET")
	envStr(&cfg.Render.CallbackSecret, "RENDER_CALLBACK_SECRET")
	envStr(&cfg.Render.CallbackURL, "RENDER_CALLBACK_URL")
	envStr(&cfg.Supabase.URL, "SUPABASE_URL")
	envStr(&cfg.Supabase.ServiceRoleKey, "SUPABASE_SERVICE_ROLE_KEY")
	envStr(&cfg.Database.URL, "DATABASE_URL")
	envStr(&cfg.Redis.URL, "REDIS_URL")
	envStr(&cfg.Server.Addr, "LISTEN_ADDR")
	if v := os.Getenv("UPLOAD_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Upload.Concurrency = n
		}
	}
}

func envStr(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.RequestTimeout <= 0 {
		cfg.Server.RequestTimeout = 90 * time.Second
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"*"}
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}

	if cfg.Anthropic.BaseURL == "" {
		cfg.Anthropic.BaseURL = "https://api.anthropic.com/v1"
	}
	if cfg.Anthropic.GraphModel == "" {
		cfg.Anthropic.GraphModel = "claude-haiku-4-5"
	}
	if cfg.Anthropic.GraphMaxTokens <= 0 {
		cfg.Anthropic.GraphMaxTokens = 1024
	}
	if cfg.Anthropic.AnimationModel == "" {
		cfg.Anthropic.AnimationModel = "claude-sonnet-4-5"
	}
	if cfg.Anthropic.AnimationMaxTokens <= 0 {
		cfg.Anthropic.AnimationMaxTokens = 4096
	}

	if cfg.OpenAI.BaseURL == "" {
		cfg.OpenAI.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.OpenAI.ChatModel == "" {
		cfg.OpenAI.ChatModel = "gpt-4o-mini"
	}
	if cfg.OpenAI.EmbeddingModel == "" {
		cfg.OpenAI.EmbeddingModel = "text-embedding-3-small"
	}
	if cfg.OpenAI.TranscribeModel == "" {
		cfg.OpenAI.TranscribeModel = "whisper-1"
	}
	if cfg.OpenAI.TTSModel == "" {
		cfg.OpenAI.TTSModel = "gpt-4o-mini-tts"
	}
	if cfg.OpenAI.TTSVoice == "" {
		cfg.OpenAI.TTSVoice = "marin"
	}
	if cfg.Gemini.Model == "" {
		cfg.Gemini.Model = "gemini-2.0-flash"
	}

	if cfg.AI.ConcurrentLimit <= 0 {
		cfg.AI.ConcurrentLimit = 16
	}
	if cfg.AI.Timeout <= 0 {
		cfg.AI.Timeout = 60 * time.Second
	}
	if cfg.AI.EmbedBatchTokens <= 0 {
		cfg.AI.EmbedBatchTokens = 8000
	}

	if cfg.Render.TokenTTL <= 0 {
		cfg.Render.TokenTTL = 30 * time.Minute
	}
	if cfg.Jobs.Store == "" {
		cfg.Jobs.Store = "memory"
	}
	if cfg.SQLite.Path == "" {
		cfg.SQLite.Path = "lovelace.db"
	}
	if cfg.Supabase.Bucket == "" {
		cfg.Supabase.Bucket = "lovelace"
	}
	if cfg.Media.Store == "" {
		cfg.Media.Store = "local"
	}
	if cfg.Media.LocalDir == "" {
		cfg.Media.LocalDir = "media"
	}
	if cfg.RAG.TopK <= 0 {
		cfg.RAG.TopK = 6
	}

	if cfg.Upload.MaxFileBytes <= 0 {
		cfg.Upload.MaxFileBytes = 25 << 20
	}
	if cfg.Upload.Concurrency <= 0 {
		cfg.Upload.Concurrency = 2
	}

	if cfg.RateLimit.Backend == "" {
		cfg.RateLimit.Backend = "memory"
	}
	cfg.RateLimit.Chat = normalizeRule(cfg.RateLimit.Chat, 20)
	cfg.RateLimit.Upload = normalizeRule(cfg.RateLimit.Upload, 5)
	cfg.RateLimit.TTS = normalizeRule(cfg.RateLimit.TTS, 30)
	cfg.RateLimit.Ask = normalizeRule(cfg.RateLimit.Ask, 20)
}

func normalizeRule(r LimitRule, defMax int) LimitRule {
	if r.Max <= 0 {
		r.Max = defMax
	}
	if r.Window <= 0 {
		r.Window = time.Minute
	}
	return r
}

// Minimal validation
func (c *Config) validate() error {
	if c.Anthropic.APIKey == "" {
		return errors.New("anthropic.api_key (ANTHROPIC_API_KEY) is required")
	}
	switch c.Jobs.Store {
	case "memory", "sqlite":
	case "redis":
		if c.Redis.URL == "" {
			return errors.New("redis.url is required for jobs.store=redis")
		}
	case "postgres":
		if c.Database.URL == "" {
			return errors.New("database.url is required for jobs.store=postgres")
		}
	case "supabase":
		if !c.Supabase.Enabled() {
			return errors.New("supabase.url and supabase.service_role_key are required for jobs.store=supabase")
		}
	default:
		return fmt.Errorf("unknown jobs.store %q", c.Jobs.Store)
	}
	switch c.Media.Store {
	case "local":
	case "supabase":
		if !c.Supabase.Enabled() {
			return errors.New("supabase credentials are required for media.store=supabase")
		}
	default:
		return fmt.Errorf("unknown media.store %q", c.Media.Store)
	}
	switch c.RAG.Store {
	case "", "memory":
	case "postgres":
		if c.Database.URL == "" {
			return errors.New("database.url is required for rag.store=postgres")
		}
	case "supabase":
		if !c.Supabase.Enabled() {
			return errors.New("supabase credentials are required for rag.store=supabase")
		}
	default:
		return fmt.Errorf("unknown rag.store %q", c.RAG.Store)
	}
	switch c.RateLimit.Backend {
	case "memory":
	case "redis":
		if c.Redis.URL == "" {
			return errors.New("redis.url is required for rate_limit.backend=redis")
		}
	default:
		return fmt.Errorf("unknown rate_limit.backend %q", c.RateLimit.Backend)
	}
	return nil
}

func (s SupabaseConfig) Enabled() bool {
	return s.URL != "" && s.ServiceRoleKey != ""
}
