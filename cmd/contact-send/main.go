package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/mikey/contact-relay/internal/core"
	"github.com/mikey/contact-relay/internal/di"
	"go.uber.org/zap"
)

// contact-send pushes one submission through the same pipeline the server
// uses, to check SMTP and Turnstile settings without a browser
func main() {
	flags := di.ParseFlags()

	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	if err := container.Invoke(func(logger *zap.Logger, service *core.ContactService, flags *di.CLIFlags) error {
		defer logger.Sync()
		return send(logger, service, flags)
	}); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func send(logger *zap.Logger, service *core.ContactService, flags *di.CLIFlags) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	fmt.Printf("\n=== Submission ===\n")
	fmt.Printf("Name: %s\n", flags.Name)
	fmt.Printf("Email: %s\n", flags.Email)
	fmt.Printf("Message length: %d bytes\n", len(flags.Message))
	fmt.Printf("Client address: %s\n", flags.IP)
	fmt.Printf("Verification: %t\n", !flags.SkipVerify)

	start := time.Now()
	err := service.Submit(ctx, flags.IP, flags.FormInput())
	duration := time.Since(start)

	fmt.Printf("\n=== Result ===\n")
	if err != nil {
		e := core.AsError(err)
		fmt.Printf("Status: %d\n", e.Status)
		fmt.Printf("Error: %s\n", e.Message)
		fmt.Printf("Processing time: %v\n", duration)
		if e.Err != nil {
			logger.Debug("Submission failed", zap.Error(e.Err))
		}
		return fmt.Errorf("submission failed: %s", e.Kind)
	}

	fmt.Printf("Status: 200\n")
	fmt.Printf("Sent: true\n")
	fmt.Printf("Processing time: %v\n", duration)
	return nil
}
