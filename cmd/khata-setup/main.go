// khata-setup creates the backing tables and seeds the default settings
// (Budget and PIN). It is safe to run repeatedly: existing tables and
// settings are left untouched.
package main

import (
	"context"
	"os"
	"time"

	"khata/internal/backend"
	"khata/internal/cli"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	// Setup is a one-shot administrative run; events are never published.
	backendCfg.AMQPURL = ""

	result, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to create backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if result.Cleanup != nil {
			_ = result.Cleanup()
		}
	}()

	if err := result.Backend.Setup(ctx); err != nil {
		logger.Error("Setup failed", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	logger.Info("Setup complete", "backend", cfg.DataBackend)
}
