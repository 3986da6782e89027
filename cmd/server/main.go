package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"tabbook/backend/internal/config"
	"tabbook/backend/internal/httpapi"
	"tabbook/backend/internal/logging"
	"tabbook/backend/internal/metrics"
	"tabbook/backend/internal/mirror"
	"tabbook/backend/internal/service"
	"tabbook/backend/internal/store"
	"tabbook/backend/internal/store/memory"
	"tabbook/backend/internal/store/sqldoc"
)

func main() {
	cfg := config.Load()
	logging.Setup(cfg.LogLevel)
	if err := validateConfig(cfg); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	closers := make([]func() error, 0, 2)

	repo, err := openRepository(ctx, cfg)
	if err != nil {
		slog.Error("repository unavailable; refusing to start", "driver", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}
	closers = append(closers, repo.Close)
	slog.Info("repository ready", "driver", cfg.StoreDriver)

	var inventoryMirror mirror.Mirror = mirror.Noop{}
	if cfg.RedisAddr != "" {
		redisMirror := mirror.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.MirrorKey)
		if err := redisMirror.Ping(ctx); err != nil {
			slog.Warn("redis unavailable, inventory mirror disabled", "error", err)
			_ = redisMirror.Close()
		} else {
			inventoryMirror = redisMirror
			closers = append(closers, redisMirror.Close)
			slog.Info("inventory mirror: redis", "addr", cfg.RedisAddr, "key", cfg.MirrorKey)
		}
	} else {
		slog.Info("inventory mirror: noop")
	}

	m := metrics.New()
	svc := service.New(repo,
		service.WithMirror(inventoryMirror),
		service.WithMetrics(m),
		service.WithLogger(slog.Default()),
		service.WithLocation(cfg.Location()),
	)
	if err := svc.Load(ctx); err != nil {
		slog.Error("load persisted state", "error", err)
		os.Exit(1)
	}

	watchCtx, stopWatch := context.WithCancel(context.Background())
	defer stopWatch()
	go func() {
		if err := svc.WatchMirror(watchCtx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Warn("inventory mirror subscription ended", "error", err)
		}
	}()

	api := httpapi.New(svc, m, cfg.AllowedOrigin)
	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("tabbook backend listening", "addr", cfg.Address())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	stopWatch()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			slog.Error("close error", "error", err)
		}
	}

	slog.Info("server stopped")
}

func openRepository(ctx context.Context, cfg config.Config) (store.Repository, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		return memory.New(), nil
	case config.DriverSQLite:
		return sqldoc.OpenSQLite(ctx, cfg.SQLitePath)
	case config.DriverPostgres:
		return sqldoc.OpenPostgres(ctx, cfg.DatabaseURL)
	case config.DriverMySQL:
		return sqldoc.OpenMySQL(ctx, cfg.DatabaseURL)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

func validateConfig(cfg config.Config) error {
	port, err := strconv.Atoi(cfg.Port)
	if err != nil || port <= 0 || port > 65535 {
		return fmt.Errorf("PORT must be a number between 1 and 65535, got %q", cfg.Port)
	}
	switch cfg.StoreDriver {
	case config.DriverPostgres, config.DriverMySQL:
		if cfg.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL must be set for the %s store", cfg.StoreDriver)
		}
	case config.DriverSQLite:
		if cfg.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH must be set for the sqlite store")
		}
	}
	return nil
}
