// Package bootstrap handles application initialization and lifecycle
// management for the posture-report service.
package bootstrap

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonesrussell/posture-report/internal/logger"
)

// Start initializes and starts the posture-report service.
func Start() error {
	// Phase 1: Load config and create logger
	cfg, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := CreateLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting posture-report service",
		logger.String("name", cfg.Service.Name),
		logger.String("version", cfg.Service.Version),
		logger.Int("port", cfg.Service.Port),
		logger.String("deployment", cfg.Platform.Deployment),
	)

	// Phase 2: Setup platform clients
	platform, err := SetupPlatformClient(cfg)
	if err != nil {
		return fmt.Errorf("failed to setup platform client: %w", err)
	}
	log.Info("platform client initialized", logger.String("url", cfg.Platform.URL))

	usageClient, err := SetupUsageClient(cfg)
	if err != nil {
		return fmt.Errorf("failed to setup usage client: %w", err)
	}
	if usageClient != nil {
		log.Info("usage metering client initialized", logger.String("host", cfg.Usage.Host))
	}

	// Phase 3: Setup database
	db, err := SetupDatabase(cfg)
	if err != nil {
		return fmt.Errorf("failed to setup database: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			log.Error("failed to close database connection", logger.Error(closeErr))
		}
	}()
	log.Info("database connection established")

	// Phase 4: Setup and run HTTP server
	server := SetupHTTPServer(cfg, platform, usageClient, db, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case runErr := <-errCh:
		if runErr != nil {
			log.Error("server error", logger.Error(runErr))
			return fmt.Errorf("server error: %w", runErr)
		}
	case sig := <-sigCh:
		log.Info("shutting down", logger.String("signal", sig.String()))
		if shutdownErr := server.Shutdown(context.Background()); shutdownErr != nil {
			return fmt.Errorf("shutdown: %w", shutdownErr)
		}
	}

	log.Info("posture-report service stopped")
	return nil
}
