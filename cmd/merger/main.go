package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samvad-hq/rank-harvester/internal/app"
	"github.com/samvad-hq/rank-harvester/internal/config"
	"github.com/samvad-hq/rank-harvester/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "merger failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	logger.InfoObj("merger starting", "config", cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	merger, err := app.NewMerger(ctx, cfg, log)
	if err != nil {
		logger.ErrorObj("failed to initialize merger", "error", err.Error())
		return err
	}

	if err := merger.Run(ctx); err != nil {
		return fmt.Errorf("merger run: %w", err)
	}
	return nil
}
