package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
)

type AppConfig struct {
	HTTPAddr string

	EngineDir         string
	EnginesFile       string
	DefaultEngine     string
	AnalysisDepth     int
	AnalysisMultiPV   int
	EngineExitTimeout time.Duration
	AnalysisTimeout   time.Duration
	EngineConcurrency int
	ReferenceSAN      bool

	RedisURL         string
	AnalysisCacheTTL time.Duration
	DatabaseURL      string
	HistoryLimit     int
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		HTTPAddr:          ":8080",
		DefaultEngine:     "stockfish",
		AnalysisDepth:     3,
		AnalysisMultiPV:   220,
		EngineExitTimeout: 10 * time.Second,
		AnalysisTimeout:   30 * time.Second,
		AnalysisCacheTTL:  time.Hour,
		HistoryLimit:      20,
		ReferenceSAN:      true,
	}

	if v := env("HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := env("DEFAULT_ENGINE"); v != "" {
		cfg.DefaultEngine = v
	}
	cfg.EnginesFile = env("ENGINES_FILE")
	cfg.RedisURL = env("REDIS_URL")
	cfg.DatabaseURL = env("DATABASE_URL")

	dir, err := engineDir()
	if err != nil {
		return nil, err
	}
	cfg.EngineDir = dir

	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}
	collect(positiveInt("ANALYSIS_DEPTH", &cfg.AnalysisDepth))
	collect(positiveInt("ANALYSIS_MULTIPV", &cfg.AnalysisMultiPV))
	collect(positiveInt("HISTORY_LIMIT", &cfg.HistoryLimit))
	collect(duration("ENGINE_EXIT_TIMEOUT", &cfg.EngineExitTimeout))
	collect(duration("ANALYSIS_TIMEOUT", &cfg.AnalysisTimeout))
	collect(duration("ANALYSIS_CACHE_TTL", &cfg.AnalysisCacheTTL))

	// 0 = auto
	if v := env("ENGINE_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			collect(fmt.Errorf("ENGINE_CONCURRENCY must be a non-negative integer: %q", v))
		} else {
			cfg.EngineConcurrency = n
		}
	}
	if v := env("REFERENCE_SAN"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			collect(fmt.Errorf("REFERENCE_SAN must be a boolean: %q", v))
		} else {
			cfg.ReferenceSAN = b
		}
	}

	if cfg.RedisURL != "" && !strings.HasPrefix(cfg.RedisURL, "redis://") && !strings.HasPrefix(cfg.RedisURL, "rediss://") {
		collect(fmt.Errorf("REDIS_URL must use redis:// or rediss://"))
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cfg, nil
}

// engineDir resolves where engine executables live. ENGINE_DIR wins; on an
// App Service host (WEBSITE_INSTANCE_ID set) binaries sit next to the site
// root, otherwise under the current directory.
func engineDir() (string, error) {
	if v := env("ENGINE_DIR"); v != "" {
		return v, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("resolve working directory: %w", err)
	}
	if env("WEBSITE_INSTANCE_ID") != "" {
		return filepath.Join(cwd, "..", "Engines"), nil
	}
	return filepath.Join(cwd, "Engines"), nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func positiveInt(key string, dst *int) error {
	v := env(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fmt.Errorf("%s must be a positive integer: %q", key, v)
	}
	*dst = n
	return nil
}

// duration accepts a Go duration ("45s") or a bare number of seconds.
func duration(key string, dst *time.Duration) error {
	v := env(key)
	if v == "" {
		return nil
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		*dst = time.Duration(n) * time.Second
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fmt.Errorf("%s must be a positive duration: %q", key, v)
	}
	*dst = d
	return nil
}
