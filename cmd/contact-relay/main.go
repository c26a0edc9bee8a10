package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mikey/contact-relay/internal/core"
	"github.com/mikey/contact-relay/internal/di"
	"github.com/mikey/contact-relay/internal/ports"
	"go.uber.org/zap"
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
	server ports.ContactServer,
	rateStore core.RateStore,
) error {
	defer logger.Sync()

	// Stop the store once the server has drained
	defer func() {
		if stopper, ok := rateStore.(interface{ Stop() }); ok {
			stopper.Stop()
		}
	}()

	if err := server.Start(); err != nil {
		logger.Error("Failed to start server", zap.Error(err))
		return err
	}

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("Shutting down...", zap.String("signal", sig.String()))

	if err := server.Stop(); err != nil {
		logger.Error("Failed to stop server", zap.Error(err))
	}

	logger.Info("Shutdown complete")
	return nil
}
