// Package cli provides the expensectl command tree and the initialization
// shared by every command: env loading, config, logging and wiring.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"expensectl/internal/config"
	"expensectl/internal/log"
)

// SetupLogger builds the process logger. Records go to w (stderr in main) so
// stdout carries only command output.
func SetupLogger(level string, w io.Writer) *log.Logger {
	lvl, ok := log.ParseLevel(level)
	logger := log.New(log.Config{Level: lvl, Component: log.ComponentApp, Output: w})
	if !ok {
		logger.Warn("Unknown LOG_LEVEL, using default", "level", level)
	}
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration from the environment and
// validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SignalContext is cancelled on SIGINT or SIGTERM. Long-running commands
// (watch, shell) stop cleanly on the first signal.
func SignalContext(parent context.Context, logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// Main is the process entry point. It returns the exit code.
func Main() int {
	LoadEnvFile()

	cfg, err := LoadAndValidateConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	logger := SetupLogger(cfg.LogLevel, os.Stderr)

	ctx, cancel := SignalContext(context.Background(), logger)
	defer cancel()

	return Execute(ctx, Options{
		Config: cfg,
		Logger: logger,
		In:     os.Stdin,
		Out:    os.Stdout,
		Err:    os.Stderr,
	}, os.Args[1:])
}
