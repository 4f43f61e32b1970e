package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/mvidal/phishguard/internal/api"
	"github.com/mvidal/phishguard/internal/core"
	"github.com/mvidal/phishguard/internal/di"
	"github.com/mvidal/phishguard/internal/ports"
)

func main() {
	// Build the dependency injection container
	container, err := di.BuildContainer()
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main application function that gets all dependencies injected
func run(
	logger *zap.Logger,
	emailFilter ports.EmailFilter,
	apiServer *api.Server,
	cacheRepo core.CacheRepository,
	docStore core.DocumentStore,
) error {
	defer logger.Sync()

	// Start the filter
	if err := emailFilter.Start(); err != nil {
		logger.Fatal("Failed to start filter", zap.Error(err))
		return err
	}

	// Start the HTTP API
	if err := apiServer.Start(); err != nil {
		logger.Fatal("Failed to start HTTP API", zap.Error(err))
		return err
	}

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	<-sigCh
	logger.Info("Shutting down...")

	if err := apiServer.Stop(); err != nil {
		logger.Error("Failed to stop HTTP API", zap.Error(err))
	}

	if err := emailFilter.Stop(); err != nil {
		logger.Error("Failed to stop filter", zap.Error(err))
	}

	// Stop the cache if needed
	if stopper, ok := cacheRepo.(interface{ Stop() }); ok {
		stopper.Stop()
	}

	// Close the store if needed
	if closer, ok := docStore.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close document store", zap.Error(err))
		}
	}

	logger.Info("Shutdown complete")
	return nil
}
