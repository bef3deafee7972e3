package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

var keys = []string{
	"HTTP_ADDR", "ENGINE_DIR", "ENGINES_FILE", "DEFAULT_ENGINE", "ANALYSIS_DEPTH",
	"ANALYSIS_MULTIPV", "ENGINE_EXIT_TIMEOUT", "ANALYSIS_TIMEOUT", "ENGINE_CONCURRENCY",
	"REDIS_URL", "ANALYSIS_CACHE_TTL", "DATABASE_URL", "HISTORY_LIMIT", "REFERENCE_SAN",
	"WEBSITE_INSTANCE_ID",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := &AppConfig{
		HTTPAddr:          ":8080",
		EngineDir:         filepath.Join(cwd, "Engines"),
		DefaultEngine:     "stockfish",
		AnalysisDepth:     3,
		AnalysisMultiPV:   220,
		EngineExitTimeout: 10 * time.Second,
		AnalysisTimeout:   30 * time.Second,
		AnalysisCacheTTL:  time.Hour,
		HistoryLimit:      20,
		ReferenceSAN:      true,
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("HTTP_ADDR", "127.0.0.1:9000")
	t.Setenv("ENGINE_DIR", "/opt/engines")
	t.Setenv("DEFAULT_ENGINE", "Lc0")
	t.Setenv("ANALYSIS_DEPTH", "5")
	t.Setenv("ENGINE_EXIT_TIMEOUT", "3")
	t.Setenv("ANALYSIS_TIMEOUT", "1m30s")
	t.Setenv("ENGINE_CONCURRENCY", "6")
	t.Setenv("REDIS_URL", "redis://localhost:6379/1")
	t.Setenv("REFERENCE_SAN", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != "127.0.0.1:9000" || cfg.EngineDir != "/opt/engines" || cfg.DefaultEngine != "Lc0" {
		t.Fatalf("string overrides not applied: %+v", cfg)
	}
	if cfg.AnalysisDepth != 5 || cfg.EngineConcurrency != 6 {
		t.Fatalf("int overrides not applied: depth=%d concurrency=%d", cfg.AnalysisDepth, cfg.EngineConcurrency)
	}
	if cfg.EngineExitTimeout != 3*time.Second || cfg.AnalysisTimeout != 90*time.Second {
		t.Fatalf("durations = %s, %s", cfg.EngineExitTimeout, cfg.AnalysisTimeout)
	}
	if cfg.ReferenceSAN {
		t.Fatalf("REFERENCE_SAN=false ignored")
	}
}

func TestEngineDirOnAppService(t *testing.T) {
	clearEnv(t)
	t.Setenv("WEBSITE_INSTANCE_ID", "abc123")
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if want := filepath.Join(cwd, "..", "Engines"); cfg.EngineDir != want {
		t.Fatalf("EngineDir = %q, want %q", cfg.EngineDir, want)
	}
}

func TestLoadValidation(t *testing.T) {
	clearEnv(t)
	t.Setenv("ANALYSIS_DEPTH", "0")
	t.Setenv("ANALYSIS_MULTIPV", "many")
	t.Setenv("ANALYSIS_CACHE_TTL", "-5s")
	t.Setenv("ENGINE_CONCURRENCY", "-1")
	t.Setenv("REDIS_URL", "http://localhost")

	_, err := Load()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	for _, key := range []string{"ANALYSIS_DEPTH", "ANALYSIS_MULTIPV", "ANALYSIS_CACHE_TTL", "ENGINE_CONCURRENCY", "REDIS_URL"} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("error does not mention %s: %v", key, err)
		}
	}
}
