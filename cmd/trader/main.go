package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"raven-trader/internal/logger"
	"raven-trader/internal/trace"
)

func main() {
	if err := initializeSystem(); err != nil {
		fmt.Fprintf(os.Stderr, "init: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := trace.Shutdown(shutdownCtx); err != nil {
			logger.Warn(shutdownCtx, "Tracer shutdown failed", "error", err.Error())
		}
	}()

	cfg, err := loadConfig(ctx)
	if err != nil {
		logger.Sync()
		os.Exit(1)
	}

	eng, err := buildEngine(ctx, cfg)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to assemble engine", err)
		logger.Sync()
		os.Exit(1)
	}

	result, err := eng.Run(ctx)
	if err != nil {
		logger.ErrorWithErr(ctx, "Cycle failed", err)
		logger.Sync()
		os.Exit(1)
	}

	b, _ := json.Marshal(result)
	fmt.Println(string(b))
}
