package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/imrishuroy/go-qrscan/internal/scan"
)

// Config is the process configuration. It is read from the environment only.
type Config struct {
	DatabaseURL string `validate:"required"`
	CacheURL    string `validate:"required"`

	Port     string `validate:"required,numeric"`
	RunLocal bool

	CacheTTL       time.Duration `validate:"gt=0"`
	ResolveTimeout time.Duration `validate:"gt=0"`
	MaxRedirects   int           `validate:"min=1,max=50"`
	MaxUploadBytes int64         `validate:"gt=0"`

	EventsQueueURL   string
	MetricsNamespace string
	MetricsFlush     time.Duration `validate:"gt=0"`

	LogLevel  string `validate:"oneof=debug info warn warning error"`
	LogFormat string `validate:"oneof=json text"`
}

// Load reads the configuration from the environment, applies defaults and
// validates the result.
func Load() (*Config, error) {
	cacheURL := os.Getenv("CACHE_URL")
	if cacheURL == "" {
		cacheURL = os.Getenv("REDIS_URL")
	}

	cfg := &Config{
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		CacheURL:         cacheURL,
		Port:             envString("PORT", "8000"),
		RunLocal:         os.Getenv("RUN_LOCAL") == "true",
		EventsQueueURL:   os.Getenv("SCAN_EVENTS_QUEUE_URL"),
		MetricsNamespace: os.Getenv("METRICS_NAMESPACE"),
		LogLevel:         strings.ToLower(envString("LOG_LEVEL", "info")),
		LogFormat:        strings.ToLower(envString("LOG_FORMAT", "json")),
	}

	var err error
	if cfg.CacheTTL, err = envSeconds("CACHE_TTL_SECONDS", scan.DefaultCacheTTL); err != nil {
		return nil, err
	}
	if cfg.ResolveTimeout, err = envSeconds("RESOLVE_TIMEOUT_SECONDS", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.MetricsFlush, err = envSeconds("METRICS_FLUSH_SECONDS", time.Minute); err != nil {
		return nil, err
	}
	if cfg.MaxRedirects, err = envInt("RESOLVE_MAX_REDIRECTS", 10); err != nil {
		return nil, err
	}
	maxUpload, err := envInt("MAX_UPLOAD_BYTES", 10<<20)
	if err != nil {
		return nil, err
	}
	cfg.MaxUploadBytes = int64(maxUpload)

	if err := validatorv10.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// NeedsAWS reports whether any configured component talks to AWS.
func (c *Config) NeedsAWS() bool {
	return c.EventsQueueURL != "" ||
		c.MetricsNamespace != "" ||
		strings.HasPrefix(c.CacheURL, "dynamodb://")
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}

func envSeconds(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return time.Duration(n) * time.Second, nil
}
