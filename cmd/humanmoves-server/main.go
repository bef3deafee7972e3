package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/park285/chess-humanmoves/internal/analysisbuilder"
	appcfg "github.com/park285/chess-humanmoves/internal/config"
	"github.com/park285/chess-humanmoves/internal/httpapi"
	"github.com/park285/chess-humanmoves/internal/obslog"
)

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	logger := obslog.L()
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := analysisbuilder.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("init analysis stack", zap.Error(err))
	}
	defer func() { _ = deps.Close() }()

	srv := httpapi.NewServer(deps.Service, logger.Named("http"))
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.HTTPAddr))
		errCh <- srv.ListenAndServe(cfg.HTTPAddr)
	}()

	// Wait for termination signal
	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			logger.Error("server stopped", zap.Error(err))
			os.Exit(1)
		}
		return
	}

	sctx, cancel := context.WithTimeout(context.Background(), cfg.AnalysisTimeout+5*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		logger.Warn("shutdown", zap.Error(err))
	}
	logger.Info("bye")
}
