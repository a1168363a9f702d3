package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/dgallion1/pagescan/internal/snippet"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Job queue. Uploaded documents are scanned one per worker; a single
	// worker keeps documents strictly sequential.
	WorkerCount  int
	MaxQueueSize int
	JobTTL       time.Duration

	// Upload limits
	MaxUploadBytes int64

	// Scan defaults, applied when a manifest leaves them unset.
	ContextMode     string
	ContextWidth    int
	MaxContextRunes int
	ScanWorkers     int

	// Paths
	DocsDir   string
	OutputDir string

	// PDF
	PDFFallbackPdftotext bool

	LogLevel string
}

func Load() Config {
	cfg := Config{
		Port: envOr("PAGESCAN_PORT", "8091"),

		APIKey: os.Getenv("PAGESCAN_API_KEY"),

		WorkerCount:  envInt("WORKER_COUNT", 1),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 20),
		JobTTL:       envDuration("JOB_TTL", 1*time.Hour),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 209715200), // 200MB

		ContextMode:     envOr("CONTEXT_MODE", string(snippet.ModeChars)),
		ContextWidth:    envInt("CONTEXT_WIDTH", 150),
		MaxContextRunes: envInt("MAX_CONTEXT_CHARS", 200),
		ScanWorkers:     envInt("SCAN_WORKERS", 1),

		DocsDir:   envOr("PAGESCAN_DOCS_DIR", "."),
		OutputDir: envOr("OUTPUT_DIR", "out"),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),

		LogLevel: envOr("LOG_LEVEL", "info"),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 1
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 20
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 209715200
	}
	if cfg.ContextWidth < 0 {
		cfg.ContextWidth = 150
	}
	if cfg.MaxContextRunes < 0 {
		cfg.MaxContextRunes = 200
	}
	if cfg.ScanWorkers <= 0 {
		cfg.ScanWorkers = 1
	}

	return cfg
}

// Validate checks settings the server cannot run without. The CLI only
// needs the scan defaults and skips the API key check.
func (c Config) Validate(requireAPIKey bool) error {
	var errs []error
	if requireAPIKey && c.APIKey == "" {
		errs = append(errs, fmt.Errorf("PAGESCAN_API_KEY is required"))
	}
	if _, err := snippet.ParseMode(c.ContextMode); err != nil {
		errs = append(errs, fmt.Errorf("CONTEXT_MODE: %w", err))
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ContextOptions returns the configured snippet window.
func (c Config) ContextOptions() snippet.Options {
	mode, err := snippet.ParseMode(c.ContextMode)
	if err != nil {
		mode = snippet.ModeChars
	}
	return snippet.Options{Mode: mode, Width: c.ContextWidth, MaxRunes: c.MaxContextRunes}
}

// Level parses LOG_LEVEL.
func (c Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return lvl, nil
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
