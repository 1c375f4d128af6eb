// Package main is the headless entry point: it runs the simulation and
// prints a summary.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Faultbox/marchwater/internal/app"
	"github.com/Faultbox/marchwater/internal/config"
	"github.com/Faultbox/marchwater/internal/logger"
)

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== Marchwater ===")
	logger.Debug("config", zap.Any("config", cfg))

	if config.SaveRequested() {
		if err := cfg.Save(); err != nil {
			logger.Error("saving config failed", zap.Error(err))
			logger.Sync()
			os.Exit(1)
		}
		logger.Info("config saved", zap.String("path", config.UserConfigPath()))
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Error("simulation failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
	logger.Info("simulation finished")
}

func run(ctx context.Context, cfg *config.Config) error {
	a, err := app.New(cfg, nil)
	if err != nil {
		return err
	}
	runErr := a.Run(ctx)
	closeErr := a.Close()
	if runErr != nil {
		return runErr
	}
	if closeErr != nil {
		return closeErr
	}
	return a.Report(os.Stdout)
}
