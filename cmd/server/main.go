/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the attendance engine server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env, then environment)
  2. Build the JSON logger
  3. Initialize SQLite store
  4. Build the policy registry (policy file or policies table) and seed
     the defaults when nothing is stored yet
  5. Create API handler, router and the policy refresh scheduler
  6. Start server with graceful shutdown

ENVIRONMENT:
  PORT                     HTTP server port (default: 8080)
  DB_PATH                  SQLite database path (default: attendance.db)
                           Use ":memory:" for in-memory database
  POLICY_FILE              JSON group working-hours document; when unset the
                           policies table is the source
  LOG_LEVEL                debug | info | warn | error (default: info)
  CORS_ORIGINS             Comma-separated allowed origins
  POLICY_REFRESH_INTERVAL  e.g. "5m"; 0 disables periodic refresh
  SHUTDOWN_TIMEOUT         Grace period for in-flight requests (default: 30s)
  APP_ENV                  "production" leaves the demo scenario routes unmounted

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the refresh scheduler
  2. Stop accepting new connections
  3. Wait for active requests to complete
  4. Close database connection

SEE ALSO:
  - config/config.go: Configuration
  - api/server.go: Router configuration
  - factory/registry.go: Policy registry
*/
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

	"github.com/warp/attendance-engine/api"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/config"
	"github.com/warp/attendance-engine/factory"
	"github.com/warp/attendance-engine/store/sqlite"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	level, _ := cfg.SlogLevel()
	logger := api.NewLogger(os.Stdout, level, "attendance-engine").With(slog.String("env", cfg.AppEnv))
	slog.SetDefault(logger)

	// Initialize store
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer store.Close()

	// Policy registry
	var source factory.Source = factory.NewDocumentSource(store)
	if cfg.PolicyFile != "" {
		source = factory.NewFileSource(cfg.PolicyFile)
	}
	registry := factory.NewRegistry(source, logger)

	ctx := context.Background()
	if err := registry.Seed(ctx, attendance.DefaultPolicySet()); err != nil {
		return fmt.Errorf("seed policies: %w", err)
	}
	if _, err := registry.Refresh(ctx); err != nil {
		return fmt.Errorf("load policies: %w", err)
	}

	scheduler := api.NewPolicyRefreshScheduler(registry, cfg.PolicyRefreshInterval, logger)

	handler := api.NewHandler(store, registry, logger)
	handler.Scheduler = scheduler
	router := api.NewRouter(handler, logger, api.RouterOptions{
		AllowedOrigins: cfg.CORSOrigins,
		DemoScenarios:  !cfg.IsProduction(),
	})

	scheduler.Start()
	defer scheduler.Stop()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", "port", cfg.Port, "db", cfg.DBPath)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-quit:
		logger.Info("shutting down server", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
