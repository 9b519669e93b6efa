// Package main starts the Yahtzee game server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/yahtzee-backend/internal/archive"
	"github.com/DoyleJ11/yahtzee-backend/internal/config"
	"github.com/DoyleJ11/yahtzee-backend/internal/httpapi"
	"github.com/DoyleJ11/yahtzee-backend/internal/hub"
	"github.com/DoyleJ11/yahtzee-backend/internal/lobby"
	"github.com/DoyleJ11/yahtzee-backend/internal/logging"
	"github.com/DoyleJ11/yahtzee-backend/internal/ws"
)

type archiveStore interface {
	lobby.Recorder
	httpapi.ResultLister
}

func main() {
	envFile := flag.String("env", ".env", "path to an optional dotenv file")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	store, closeStore, err := openArchive(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	h := hub.NewHub(ctx, hub.Options{
		IdleTimeout:   cfg.IdleTimeout,
		SweepInterval: cfg.SweepInterval,
		Recorder:      store,
		Logger:        logger,
	})
	defer h.Shutdown()

	srv := &http.Server{
		Addr: cfg.Addr(),
		Handler: httpapi.SetupRoutes(httpapi.Deps{
			Hub:     h,
			Results: store,
			Logger:  logger,
			WS: ws.Options{
				OriginPatterns: cfg.OriginPatterns,
				WriteTimeout:   cfg.WriteTimeout,
				PingInterval:   cfg.PingInterval,
				Logger:         logger,
			},
			AllowedOrigins: cfg.CORSOrigins,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down", zap.Duration("timeout", cfg.ShutdownTimeout))
		// Lobbies close their sockets first so Shutdown does not wait on them.
		h.Shutdown()
		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}

// openArchive connects the results archive, or returns a no-op store when
// DATABASE_URL is unset.
func openArchive(ctx context.Context, cfg config.Config, logger *zap.Logger) (archiveStore, func(), error) {
	if cfg.DatabaseURL == "" {
		logger.Warn("DATABASE_URL not set; finished games will not be archived")
		return archive.Nop{}, func() {}, nil
	}
	store, err := archive.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	mctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := store.Migrate(mctx); err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	logger.Info("results archive ready")
	return store, func() {
		if err := store.Close(); err != nil {
			logger.Warn("close archive", zap.Error(err))
		}
	}, nil
}
