package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Extractor ExtractorConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Health    HealthConfig
	Webhook   WebhookConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8000 (PORT is honoured)
	Mode string // "debug", "release", "test"; default: "release"

	// ShutdownTimeout is how long in-flight requests may drain.
	ShutdownTimeout time.Duration // default: 10s
}

// ExtractorConfig controls how the extraction tool is invoked.
type ExtractorConfig struct {
	// Binary is the tool executable.
	Binary string // default: "yt-dlp"

	// BinaryArgs are prepended to every invocation, e.g. "-m,yt_dlp" when
	// Binary is a Python interpreter.
	BinaryArgs []string

	// CookiesFile is the optional credential bundle (cookies.txt).
	CookiesFile string

	// UserAgent overrides the built-in browser identity.
	UserAgent string

	// Referer is sent verbatim when set; empty derives it from the URL.
	Referer string

	// Extractor is the extractor-args namespace.
	Extractor string // default: "youtube"

	// Strategies overrides the built-in catalog, e.g. "web:webpage,web,ios".
	Strategies string

	// AttemptTimeout bounds one subprocess.
	AttemptTimeout time.Duration // default: 60s

	// ProbeTimeout bounds the --version liveness probe.
	ProbeTimeout time.Duration // default: 5s

	// RequestTimeout bounds a whole extraction; 0 disables it.
	RequestTimeout time.Duration // default: 0

	// MaxConcurrent caps extractions running at once; 0 means no cap.
	MaxConcurrent int // default: 0

	// QueueTimeout is how long a request waits for a free slot.
	QueueTimeout time.Duration // default: 30s
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: false

	APIKeys []string
}

// RateLimitConfig controls per-identity rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key or client IP.
	RequestsPerSecond float64 // default: 1

	// Burst is the maximum burst size.
	Burst int // default: 5
}

// CORSConfig controls cross-origin access.
type CORSConfig struct {
	// Origin is the single allowed origin, or "*" for any.
	Origin string // default: "*"
}

// HealthConfig controls the liveness endpoint.
type HealthConfig struct {
	// ProbeCacheTTL is how long a tool probe result is reused.
	ProbeCacheTTL time.Duration // default: 30s
}

// WebhookConfig controls async result delivery.
type WebhookConfig struct {
	// Secret signs webhook bodies with HMAC-SHA256 when non-empty.
	Secret string
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            envOr("VIDINFO_HOST", "0.0.0.0"),
			Port:            envIntOr("VIDINFO_PORT", envIntOr("PORT", 8000)),
			Mode:            envOr("VIDINFO_MODE", "release"),
			ShutdownTimeout: envDurationOr("VIDINFO_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Extractor: ExtractorConfig{
			Binary:         envOr("VIDINFO_YTDLP_BIN", "yt-dlp"),
			BinaryArgs:     envSliceOr("VIDINFO_YTDLP_ARGS", nil),
			CookiesFile:    envOr("VIDINFO_COOKIES_FILE", os.Getenv("YTDLP_COOKIES_FILE")),
			UserAgent:      os.Getenv("VIDINFO_USER_AGENT"),
			Referer:        os.Getenv("VIDINFO_REFERER"),
			Extractor:      envOr("VIDINFO_EXTRACTOR", "youtube"),
			Strategies:     os.Getenv("VIDINFO_STRATEGIES"),
			AttemptTimeout: envDurationOr("VIDINFO_ATTEMPT_TIMEOUT", 60*time.Second),
			ProbeTimeout:   envDurationOr("VIDINFO_PROBE_TIMEOUT", 5*time.Second),
			RequestTimeout: envDurationOr("VIDINFO_REQUEST_TIMEOUT", 0),
			MaxConcurrent:  envIntOr("VIDINFO_MAX_CONCURRENT", 0),
			QueueTimeout:   envDurationOr("VIDINFO_QUEUE_TIMEOUT", 30*time.Second),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("VIDINFO_AUTH_ENABLED", false),
			APIKeys: envSliceOr("VIDINFO_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("VIDINFO_RATE_RPS", 1.0),
			Burst:             envIntOr("VIDINFO_RATE_BURST", 5),
		},
		CORS: CORSConfig{
			Origin: envOr("VIDINFO_CORS_ORIGIN", envOr("CORS_ORIGIN", "*")),
		},
		Health: HealthConfig{
			ProbeCacheTTL: envDurationOr("VIDINFO_PROBE_CACHE_TTL", 30*time.Second),
		},
		Webhook: WebhookConfig{
			Secret: os.Getenv("VIDINFO_WEBHOOK_SECRET"),
		},
		Log: LogConfig{
			Level:  envOr("VIDINFO_LOG_LEVEL", "info"),
			Format: envOr("VIDINFO_LOG_FORMAT", "json"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
