// Package startup prepares the application server
package startup

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AtRiskMedia/vsl-go/internal/application/container"
	"github.com/AtRiskMedia/vsl-go/internal/presentation/http/server"
	"github.com/AtRiskMedia/vsl-go/pkg/config"
	"github.com/gin-gonic/gin"
)

// Initialize performs the complete startup sequence and blocks until a
// shutdown signal arrives.
func Initialize() error {
	setupLogging()

	start := time.Now().UTC()

	ctx, cancelBackgroundTasks := context.WithCancel(context.Background())
	defer cancelBackgroundTasks()

	log.Println("\033[32m" + `
 ██  ██ ▄▀▀▀▀ ██
 ██  ██ ▀▀▀▄▄ ██
  ▀██▀  ▄▄▄▄▀ ██▄▄▄  funil de vendas
` + "\033[0m")

	// Step 1: Load configuration
	log.Println("Loading configuration...")
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Step 2: Create the channeled logger
	logger, err := container.NewLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Close()
	logger.Startup().Info("Configuration loaded - switching to channeled logging",
		"attributionStorage", cfg.AttributionStorage,
		"turso", cfg.UseTurso())

	// Step 3: Tracing
	phaseStart := time.Now()
	shutdownTracing, err := setupTracing(ctx, cfg)
	if err != nil {
		return err
	}
	logger.LogStartupPhase("tracing", time.Since(phaseStart), true, map[string]any{"exporter": cfg.OTLPEndpoint != ""})

	// Step 4: Create dependency injection container
	phaseStart = time.Now()
	appContainer, err := container.NewContainer(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize container: %w", err)
	}
	logger.LogStartupPhase("container", time.Since(phaseStart), true, map[string]any{
		"sinks":    appContainer.TrackingService.Sinks(),
		"products": len(appContainer.Catalog.Products()),
	})

	// Step 5: Start background workers
	logger.Startup().Info("Starting background cleanup worker and live hub...")
	go appContainer.CleanupWorker.Start(ctx)
	go appContainer.LiveHub.Run(ctx)

	// Step 6: Start HTTP server
	httpServer := server.New(cfg.Port, appContainer)

	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		logger.System().Info("Starting HTTP server", "address", ":"+cfg.Port)
		serverErr <- httpServer.Start()
	}()

	logger.Startup().Info("Application startup complete",
		"totalDuration", time.Since(start),
		"port", cfg.Port,
		"publicUrl", cfg.PublicURL)

	// Wait for shutdown signal or a listener failure
	select {
	case <-gracefulShutdown:
		logger.Shutdown().Info("Shutdown signal received, starting graceful shutdown...")
	case err := <-serverErr:
		if err != nil {
			logger.System().Error("HTTP server failed", "error", err.Error())
		}
	}

	shutdownStart := time.Now()
	cancelBackgroundTasks()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	logger.Shutdown().Info("Stopping HTTP server...")
	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Shutdown().Error("Error during server shutdown", "error", err.Error())
	}

	logger.Shutdown().Info("Flushing pending sink deliveries and closing database...")
	if err := appContainer.Close(); err != nil {
		logger.Shutdown().Error("Error closing container", "error", err.Error())
	}

	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Shutdown().Error("Error flushing traces", "error", err.Error())
	}

	logger.Shutdown().Info("Application shutdown complete",
		"totalUptime", time.Since(start),
		"shutdownDuration", time.Since(shutdownStart))

	return nil
}

// setupLogging configures application logging
func setupLogging() {
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}
