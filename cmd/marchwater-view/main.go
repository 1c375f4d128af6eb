//go:build viewer

// Package main opens an interactive window on a running simulation.
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
	"github.com/Faultbox/marchwater/internal/render"
)

func main() {
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

	logger.Info("=== Marchwater Viewer ===")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Error("viewer failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
	logger.Info("viewer closed normally")
}

func run(ctx context.Context, cfg *config.Config) error {
	v, err := render.NewViewer(cfg.Viewer, cfg.Volume.PointsPerAxis, logger.Named("viewer"))
	if err != nil {
		return err
	}
	defer v.Close()

	a, err := app.New(cfg, v)
	if err != nil {
		return err
	}
	defer a.Close()

	return v.Run(ctx, a.World())
}
