package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mebel-mes/internal/config"
	"mebel-mes/internal/lib/logger"
	"mebel-mes/internal/metrics"
	"mebel-mes/internal/service/production"
	"mebel-mes/internal/storage/memory"
	"mebel-mes/internal/storage/mysql"
	"mebel-mes/internal/storage/sqlite"
)

func main() {
	cfg := config.MustConfig()

	log := logger.Setup(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	persister, closer, err := openPersister(ctx, *cfg)
	if err != nil {
		log.Error("failed to open storage", slog.String("driver", cfg.StorageDriver), slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer closer.Close()

	m := metrics.New()

	svc := production.NewService(log, memory.New(), cfg.Production, production.Options{
		Persister: persister,
		Recorder:  m,
	})

	if err := svc.Restore(ctx); err != nil {
		log.Error("failed to restore state", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log.Info("server started",
		slog.String("address", cfg.Address),
		slog.String("env", cfg.Env),
		slog.String("storage", cfg.StorageDriver),
	)

	srv := &http.Server{
		Addr:         cfg.Address,
		Handler:      routes(*cfg, log, svc, m),
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("failed start server", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop server", slog.String("error", err.Error()))
	}

	log.Info("server stopped")
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// openPersister выбирает постоянное хранилище; memory — без сохранения между запусками
func openPersister(ctx context.Context, cfg config.Config) (production.Persister, io.Closer, error) {
	switch cfg.StorageDriver {
	case config.DriverMemory, "":
		return nil, nopCloser{}, nil
	case config.DriverSQLite:
		s, err := sqlite.New(cfg.StoragePath)
		if err != nil {
			return nil, nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			_ = s.Close()
			return nil, nil, err
		}
		return s, s, nil
	case config.DriverMySQL:
		s, err := mysql.New(cfg)
		if err != nil {
			return nil, nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			_ = s.Close()
			return nil, nil, err
		}
		return s, s, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}
