package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gameportal/portal/internal/app"
	"github.com/gameportal/portal/internal/auth"
	"github.com/gameportal/portal/internal/infra"
	"github.com/gameportal/portal/internal/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load config
	cfg, err := infra.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	// Record store
	deps := app.RouterDeps{
		Backend:              cfg.StoreBackend,
		Logger:               logger,
		JWTMgr:               auth.NewJWTManager(cfg.JWTSecret, cfg.JWTManagerExpiry, cfg.JWTAgentExpiry),
		NotificationPageSize: cfg.NotificationPageSize,
		AnalyticsDate:        cfg.AnalyticsDate,
		LoginRateLimit:       cfg.LoginRateLimit,
		CORSOrigin:           cfg.CORSOrigin,
	}
	switch cfg.StoreBackend {
	case infra.BackendMemory:
		deps.Store = store.NewMemoryStore()
		logger.Warn("using in-memory record store, data is lost on exit")
	default:
		if cfg.AutoMigrate {
			if err := infra.RunMigrations(cfg.DSN(), cfg.MigrationsDir, logger); err != nil {
				return fmt.Errorf("run migrations: %w", err)
			}
		}
		pool, err := infra.NewPostgresPool(ctx, cfg, logger)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pool.Close()
		deps.Store = store.NewPgStore(pool)
		deps.DB = pool
	}

	svcs := app.NewServices(deps)
	if err := svcs.Auth.EnsureManager(ctx, cfg.BootstrapManagerEmail, cfg.BootstrapManagerPassword); err != nil {
		return err
	}
	r := app.NewRouter(deps, svcs)

	// Start server
	addr := fmt.Sprintf(":%d", cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server starting", "addr", addr, "store_backend", cfg.StoreBackend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	// Shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	logger.Info("server stopped gracefully")
	return nil
}
