package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// Auth for the HTTP API. Empty disables auth (local use).
	ServiceAPIKey string

	// Gemini. The API key may be empty at startup; extraction and caption
	// calls then fail fast with a configuration error.
	GeminiAPIKey string
	ExtractModel string
	CaptionModel string

	// Model-call discipline.
	ModelConcurrency int
	MaxRetries       int
	InitialBackoff   time.Duration

	// Session worker pool.
	WorkerCount  int
	MaxQueueSize int
	SessionTTL   time.Duration

	// Per-document page fan-out window.
	PageWindow int

	// Rendering.
	RenderDPI     float64
	MaxRenderEdge int
	TextHints     bool

	// Upload limits.
	MaxUploadBytes int64
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		ServiceAPIKey: os.Getenv("MCQSCAN_API_KEY"),

		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		ExtractModel: envOr("GEMINI_EXTRACT_MODEL", "gemini-2.5-flash"),
		CaptionModel: envOr("GEMINI_CAPTION_MODEL", "gemini-2.5-flash"),

		ModelConcurrency: envInt("MODEL_CONCURRENCY", 10),
		MaxRetries:       envInt("MODEL_MAX_RETRIES", 3),
		InitialBackoff:   envDuration("MODEL_INITIAL_BACKOFF", 2*time.Second),

		WorkerCount:  envInt("WORKER_COUNT", 2),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 20),
		SessionTTL:   envDuration("SESSION_TTL", 1*time.Hour),

		PageWindow: envInt("PAGE_WINDOW", 2),

		RenderDPI:     envFloat("RENDER_DPI", 150),
		MaxRenderEdge: envInt("MAX_RENDER_EDGE", 2048),
		TextHints:     envBool("TEXT_HINTS", true),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB
	}

	if cfg.ModelConcurrency <= 0 {
		cfg.ModelConcurrency = 10
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 3
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 2 * time.Second
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 20
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 1 * time.Hour
	}
	if cfg.PageWindow <= 0 {
		cfg.PageWindow = 2
	}
	if cfg.RenderDPI <= 0 {
		cfg.RenderDPI = 150
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}

	return cfg
}

// Validate rejects configurations the server cannot start with. The Gemini
// key is deliberately not required here: its absence is a per-call error, not
// a startup one.
func (c Config) Validate() error {
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("PORT must be numeric, got %q", c.Port)
	}
	if c.ExtractModel == "" || c.CaptionModel == "" {
		return fmt.Errorf("model names must not be empty")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
