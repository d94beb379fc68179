// Package main is the entrypoint for the Pressroom API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kovalenq/pressroom/internal/api"
	"github.com/kovalenq/pressroom/internal/api/handler"
	mw "github.com/kovalenq/pressroom/internal/api/middleware"
	"github.com/kovalenq/pressroom/internal/api/response"
	"github.com/kovalenq/pressroom/internal/cache"
	"github.com/kovalenq/pressroom/internal/config"
	"github.com/kovalenq/pressroom/internal/generate"
	"github.com/kovalenq/pressroom/internal/jobs"
	"github.com/kovalenq/pressroom/internal/pricing"
	"github.com/kovalenq/pressroom/internal/provider"
	"github.com/kovalenq/pressroom/internal/report"
	"github.com/kovalenq/pressroom/internal/store"
	"github.com/kovalenq/pressroom/internal/variant"
)

const shutdownTimeout = 30 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config — fail fast on invalid config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("config loaded", "env", cfg.Server.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Connect to database
	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	slog.Info("database connected")

	// 3. Run migrations
	if err := store.RunMigrations(cfg.Database.URL, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("database migrations applied")

	// 4. Create Redis cache
	redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("create redis cache: %w", err)
	}
	defer redisCache.Close()

	if err := redisCache.Ping(ctx); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	slog.Info("redis connected")

	// 5. Create provider registry and caller
	registry, err := provider.NewRegistryFromConfig(cfg.Providers)
	if err != nil {
		return fmt.Errorf("create provider registry: %w", err)
	}
	slog.Info("providers initialized", "models", registry.Models())

	caller := provider.NewCaller(registry, pricing.NewTable(),
		provider.WithMaxAttempts(cfg.Generate.MaxAttempts),
		provider.WithBaseBackoff(cfg.Generate.RetryBaseDelay),
	)

	// 6. Create store and domain services
	pgStore := store.NewPostgresStore(pool)

	runner := report.NewExecRunner(cfg.Report.Command, cfg.Report.WorkDir,
		cfg.Report.SectionCount, cfg.Report.Timeout)
	orchestrator := jobs.NewOrchestrator(pgStore, redisCache, runner, cfg.Report.JobTTL)
	go orchestrator.RunSweeper(ctx, cfg.Report.SweepInterval)

	resolver := variant.NewResolver(cfg.Generate.PrimaryChannel, cfg.Generate.SharedPair,
		cfg.Generate.AutoThreshold)
	generateSvc := generate.NewService(caller, resolver, pgStore, redisCache,
		cfg.Generate.MaxParallelCalls)

	// 7. Build router with dependencies
	deps := api.Dependencies{
		RateLimit: mw.NewRateLimit(redisCache, 60),

		HealthHandler:       healthHandler(pgStore, redisCache),
		SubmitReportHandler: handler.NewSubmitReportHandler(orchestrator),
		PollReportHandler:   handler.NewPollReportHandler(orchestrator),
		GenerateHandler:     handler.NewGenerateHandler(generateSvc),
		ListSessionHandler:  handler.NewListSessionHandler(generateSvc),
	}

	router := api.NewRouter(deps)

	// 8. Start HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

// healthHandler checks database and cache connectivity.
func healthHandler(s store.Store, c cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"database": "ok",
			"cache":    "ok",
		}

		if err := s.Ping(r.Context()); err != nil {
			checks["database"] = "degraded"
		}
		if err := c.Ping(r.Context()); err != nil {
			checks["cache"] = "degraded"
		}

		degraded := checks["database"] != "ok" || checks["cache"] != "ok"
		if degraded {
			response.Error(w, http.StatusServiceUnavailable, "DEGRADED",
				"One or more services degraded", checks)
			return
		}

		response.JSON(w, map[string]any{
			"status":   "ok",
			"services": checks,
		})
	}
}
