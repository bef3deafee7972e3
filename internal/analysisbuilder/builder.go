package analysisbuilder

import (
	"context"
	"crypto/tls"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/park285/chess-humanmoves/internal/chess"
	"github.com/park285/chess-humanmoves/internal/chess/render"
	"github.com/park285/chess-humanmoves/internal/chess/uci"
	"github.com/park285/chess-humanmoves/internal/config"
	"github.com/park285/chess-humanmoves/internal/service/analysis"
)

type Deps struct {
	Service  *analysis.Service
	Analyzer *chess.Analyzer
	Registry *uci.Registry
	Gate     *uci.Gate
	Redis    *redis.Client
	DB       *sql.DB
}

// Close releases the redis client and the database pool, if any.
func (d *Deps) Close() error {
	var errs []error
	if d.Redis != nil {
		errs = append(errs, d.Redis.Close())
	}
	if d.DB != nil {
		errs = append(errs, d.DB.Close())
	}
	return errors.Join(errs...)
}

// New wires config into the analysis stack. Redis and Postgres are optional:
// without REDIS_URL results are not cached, without DATABASE_URL history is
// kept in memory.
func New(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger) (*Deps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	registry, err := uci.NewRegistry(cfg.EngineDir, cfg.EnginesFile)
	if err != nil {
		return nil, fmt.Errorf("load engines: %w", err)
	}
	gate := uci.NewGate(uci.GateConfig{PerEngineCapacity: cfg.EngineConcurrency})

	analyzer, err := chess.NewAnalyzer(chess.AnalyzerConfig{
		Registry:     registry,
		Gate:         gate,
		Depth:        cfg.AnalysisDepth,
		MultiPV:      cfg.AnalysisMultiPV,
		ExitTimeout:  cfg.EngineExitTimeout,
		ReferenceSAN: cfg.ReferenceSAN,
		Logger:       logger.Named("analyzer"),
	})
	if err != nil {
		return nil, fmt.Errorf("init analyzer: %w", err)
	}

	deps := &Deps{Analyzer: analyzer, Registry: registry, Gate: gate}

	// Cache (Redis optional)
	var cache analysis.Cache
	if strings.TrimSpace(cfg.RedisURL) != "" {
		opts, perr := parseRedisURL(cfg.RedisURL)
		if perr != nil {
			return nil, fmt.Errorf("parse redis url: %w", perr)
		}
		rdb := redis.NewClient(opts)
		pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := rdb.Ping(pctx).Err()
		cancel()
		if err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		deps.Redis = rdb
		cache = analysis.NewRedisCache(rdb, cfg.AnalysisCacheTTL)
	} else {
		logger.Info("REDIS_URL not set, analysis cache disabled")
	}

	// Repository (DB optional)
	var repo analysis.Repository
	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		db, err := openPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			_ = deps.Close()
			return nil, err
		}
		deps.DB = db
		repo = analysis.NewRepository(db)
	} else {
		logger.Info("DATABASE_URL not set, keeping analysis history in memory")
		repo = analysis.NewMemoryRepository(0)
	}

	svc, err := analysis.NewService(analyzer, cache, repo, render.NewRenderer(), analysis.Config{
		DefaultEngine:   cfg.DefaultEngine,
		AnalysisTimeout: cfg.AnalysisTimeout,
		HistoryLimit:    cfg.HistoryLimit,
	}, logger.Named("service"))
	if err != nil {
		_ = deps.Close()
		return nil, err
	}
	deps.Service = svc

	logger.Info("analysis stack ready",
		zap.String("engine_dir", registry.Dir()),
		zap.Strings("engines", registry.Names()),
		zap.Int("engine_concurrency", gate.Capacity()),
		zap.Bool("cache", cache != nil),
		zap.Bool("postgres", deps.DB != nil),
	)
	return deps, nil
}

func openPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	// basic pool settings
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := analysis.EnsureSchema(pctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func parseRedisURL(raw string) (*redis.Options, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	host := u.Hostname()
	if host == "" {
		host = "localhost"
	}
	portStr := u.Port()
	if portStr == "" {
		portStr = "6379"
	}
	if _, err := strconv.Atoi(portStr); err != nil {
		return nil, fmt.Errorf("invalid port %q", portStr)
	}
	db := 0
	if p := strings.TrimPrefix(u.Path, "/"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid db %q", p)
		}
		db = n
	}
	pass, _ := u.User.Password()
	opts := &redis.Options{
		Addr:     net.JoinHostPort(host, portStr),
		Username: u.User.Username(),
		Password: pass,
		DB:       db,
	}
	if u.Scheme == "rediss" {
		opts.TLSConfig = &tls.Config{ServerName: host, MinVersion: tls.VersionTLS12}
	}
	return opts, nil
}
