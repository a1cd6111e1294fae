// Package cli provides the initialization shared by cmd/salesboard,
// cmd/seed-demo and cmd/sales-events.
package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"salesboard/internal/backend"
	"salesboard/internal/config"
	applog "salesboard/internal/log"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// NewLogger builds a logger from LOG_LEVEL and LOG_FORMAT. An unknown level
// falls back to info and is reported once the logger exists.
func NewLogger(cfg *config.Config, component string, w io.Writer) *applog.Logger {
	level, levelErr := applog.ParseLevel(cfg.LogLevel)
	logger := applog.New(applog.Config{
		Level:     level,
		Format:    cfg.LogFormat,
		Component: component,
		Output:    w,
	})
	if levelErr != nil {
		logger.Warn("Falling back to info log level", applog.FieldError, levelErr)
	}
	return logger
}

// SetupLogger writes to stdout and installs the logger as the slog default.
func SetupLogger(cfg *config.Config, component string) *applog.Logger {
	logger := NewLogger(cfg, component, os.Stdout)
	applog.SetDefault(logger)
	return logger
}

// LoadAndValidateConfig loads .env and the environment, sets up logging and
// exits the process when the configuration is invalid.
func LoadAndValidateConfig(component string) (*config.Config, *applog.Logger) {
	LoadEnvFile()
	cfg := config.Load()
	logger := SetupLogger(cfg, component)
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}
	return cfg, logger
}

// InitBackend opens the configured store and optional event publisher, or
// exits the process on failure.
func InitBackend(ctx context.Context, logger *applog.Logger, cfg *config.Config) *backend.BackendResult {
	beCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err)
		os.Exit(1)
	}

	factory := backend.NewFactory(logger.WithComponent(applog.ComponentBackend).Logger)
	result, err := factory.CreateBackend(ctx, beCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", applog.FieldError, err, applog.FieldBackend, beCfg.Type)
		os.Exit(1)
	}
	return result
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// RunCleanup releases backend resources, logging instead of failing.
func RunCleanup(logger *applog.Logger, cleanup backend.CleanupFunc) {
	if cleanup == nil {
		return
	}
	if err := cleanup(); err != nil {
		logger.Error("Cleanup failed", applog.FieldError, err, applog.FieldOperation, applog.OpShutdown)
	}
}
