// Package main is the entrypoint for the gaitqueue batch server.
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

	"github.com/ZoOtMcNoOt/gaitqueue/internal/api"
	"github.com/ZoOtMcNoOt/gaitqueue/internal/api/handler"
	mw "github.com/ZoOtMcNoOt/gaitqueue/internal/api/middleware"
	"github.com/ZoOtMcNoOt/gaitqueue/internal/api/response"
	"github.com/ZoOtMcNoOt/gaitqueue/internal/config"
	"github.com/ZoOtMcNoOt/gaitqueue/internal/engine"
	"github.com/ZoOtMcNoOt/gaitqueue/internal/jobs"
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
	slog.Info("config loaded", "env", cfg.Server.Env, "port", cfg.Server.Port)

	if cfg.Engine.EnableJobPersistence {
		slog.Warn("job persistence is enabled but no store is wired; jobs live in memory only")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Create the job engine
	eng := engine.New(engine.Config{
		MaxConcurrentJobs:  cfg.Engine.MaxConcurrentJobs,
		JobTimeout:         cfg.Engine.JobTimeout(),
		RetryDelay:         cfg.Engine.RetryDelay(),
		MaxQueueSize:       cfg.Engine.MaxQueueSize,
		CleanupAfter:       cfg.Engine.CleanupAfter(),
		TickInterval:       cfg.Engine.TickInterval(),
		SweepInterval:      cfg.Engine.SweepInterval(),
		PriorityScheduling: cfg.Engine.PriorityScheduling,
		WorkerThreads:      cfg.Engine.WorkerThreadCount,
	})

	// 3. Register the built-in job handlers
	sim := jobs.NewSimulator(cfg.Jobs.StepDelay())
	if err := sim.RegisterAll(eng); err != nil {
		return fmt.Errorf("register job handlers: %w", err)
	}

	// 4. Start the engine's scheduler and sweeper. Stop happens on the way
	// out, after the HTTP listener has drained.
	if err := eng.Start(context.Background()); err != nil {
		return fmt.Errorf("start engine: %w", err)
	}
	defer eng.Stop()

	// 5. Build router with dependencies
	var auth *mw.Auth
	if len(cfg.Auth.APIKeys) > 0 {
		auth, err = mw.NewAuth(cfg.Auth.APIKeys)
		if err != nil {
			return fmt.Errorf("init auth: %w", err)
		}
	} else {
		slog.Warn("no API keys configured, API is open")
	}

	var rateLimit *mw.RateLimit
	if cfg.Auth.RateLimitPerMinute > 0 {
		rateLimit = mw.NewRateLimit(cfg.Auth.RateLimitPerMinute)
	}

	deps := api.Dependencies{
		Auth:      auth,
		RateLimit: rateLimit,

		HealthHandler:    healthHandler(eng, cfg.Engine.MaxQueueSize),
		SubmitJobHandler: handler.NewSubmitJobHandler(eng),
		GetJobHandler:    handler.NewGetJobHandler(eng),
		ListJobsHandler:  handler.NewListJobsHandler(eng),
		CancelJobHandler: handler.NewCancelJobHandler(eng),
		StatsHandler:     handler.NewStatsHandler(eng),
		CleanupHandler:   handler.NewCleanupHandler(eng),
	}

	router := api.NewRouter(deps)

	// 6. Start HTTP server
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

// healthHandler reports engine liveness and flags a saturated queue so load
// balancers can back off before submissions start bouncing.
func healthHandler(eng *engine.Engine, maxQueueSize int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats := eng.Stats()

		if maxQueueSize > 0 && stats.QueueLength >= maxQueueSize {
			response.Error(w, http.StatusServiceUnavailable, "DEGRADED",
				"Job queue is saturated", map[string]int{
					"queue_length": stats.QueueLength,
				})
			return
		}

		response.JSON(w, map[string]any{
			"status":       "ok",
			"queued_jobs":  stats.QueuedJobs,
			"running_jobs": stats.RunningJobs,
		})
	}
}
