// Package main is the entry point for the aobake command.
//
// Usage:
//
//	aobake [flags] <scene.yaml>
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/profile"
	"go.uber.org/zap"

	"github.com/Faultbox/aobake/internal/config"
	"github.com/Faultbox/aobake/internal/job"
	"github.com/Faultbox/aobake/internal/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Parse CLI flags first
	config.ParseFlags()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		return 1
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		return 1
	}
	defer logger.Sync()

	logger.Sugar.Debugf("Config: %+v", cfg)

	if cfg.Run.ProfileDir != "" {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(cfg.Run.ProfileDir), profile.Quiet).Stop()
		logger.Info("cpu profiling enabled", zap.String("dir", cfg.Run.ProfileDir))
	}

	j, err := job.New(cfg, logger.Named("job"))
	if err != nil {
		logger.Error("failed to create job", zap.Error(err))
		fmt.Fprintln(os.Stderr, "usage: aobake [flags] <scene.yaml>")
		return 2
	}

	// Interrupts stop the bake at the next mesh boundary
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Run.Watch {
		err := j.Watch(ctx, func(summary *job.Summary, err error) {
			if err != nil {
				logger.Error("bake failed", zap.Error(err))
				return
			}
			fmt.Println(summary.Output)
		})
		if err != nil {
			logger.Error("watch failed", zap.Error(err))
			return 1
		}
		return 0
	}

	summary, err := j.Run(ctx)
	if err != nil {
		logger.Error("bake failed", zap.Error(err))
		return 1
	}

	fmt.Println(summary.Output)
	return 0
}
