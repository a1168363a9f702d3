package config

import (
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/pagescan/internal/snippet"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"WORKER_COUNT", "MAX_QUEUE_SIZE", "JOB_TTL", "CONTEXT_MODE", "CONTEXT_WIDTH", "MAX_CONTEXT_CHARS", "PAGESCAN_DOCS_DIR"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.WorkerCount != 1 {
		t.Errorf("expected 1 worker, got %d", cfg.WorkerCount)
	}
	if cfg.JobTTL != time.Hour {
		t.Errorf("expected JobTTL 1h, got %s", cfg.JobTTL)
	}
	opts := cfg.ContextOptions()
	if opts != snippet.DefaultOptions() {
		t.Errorf("expected default context options, got %+v", opts)
	}
	if cfg.DocsDir != "." {
		t.Errorf("expected docs dir %q, got %q", ".", cfg.DocsDir)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("WORKER_COUNT", "-3")
	t.Setenv("CONTEXT_MODE", "lines")
	t.Setenv("CONTEXT_WIDTH", "2")
	t.Setenv("JOB_TTL", "15m")
	t.Setenv("PDF_FALLBACK_PDFTOTEXT", "false")

	cfg := Load()
	if cfg.WorkerCount != 1 {
		t.Errorf("expected negative worker count to fall back to 1, got %d", cfg.WorkerCount)
	}
	if cfg.ContextOptions().Mode != snippet.ModeLines || cfg.ContextWidth != 2 {
		t.Errorf("expected lines/2, got %+v", cfg.ContextOptions())
	}
	if cfg.JobTTL != 15*time.Minute {
		t.Errorf("expected 15m, got %s", cfg.JobTTL)
	}
	if cfg.PDFFallbackPdftotext {
		t.Error("expected pdftotext fallback disabled")
	}
}

func TestValidate(t *testing.T) {
	cfg := Config{ContextMode: "chars", LogLevel: "info"}
	if err := cfg.Validate(false); err != nil {
		t.Fatalf("expected no error without api key requirement, got %v", err)
	}
	err := cfg.Validate(true)
	if err == nil || !strings.Contains(err.Error(), "PAGESCAN_API_KEY") {
		t.Fatalf("expected api key error, got %v", err)
	}

	cfg = Config{APIKey: "k", ContextMode: "words", LogLevel: "loud"}
	err = cfg.Validate(true)
	if err == nil {
		t.Fatal("expected errors")
	}
	for _, want := range []string{"CONTEXT_MODE", "LOG_LEVEL"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in %q", want, err.Error())
		}
	}
}

func TestLevel(t *testing.T) {
	lvl, err := Config{LogLevel: "debug"}.Level()
	if err != nil || lvl != slog.LevelDebug {
		t.Errorf("expected debug, got %v (%v)", lvl, err)
	}
}
