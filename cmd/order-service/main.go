package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/speedsneakers/order-service/internal/app"
	"github.com/speedsneakers/order-service/internal/config"
	"github.com/speedsneakers/order-service/internal/platform/log"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	logger := log.New(cfg.AppEnv)
	defer func() {
		if err := logger.Sync(); err != nil {
			return
		}
	}()

	if err := app.Run(ctx, cfg, logger); err != nil {
		logger.Error("service exited", log.Err(err))
		return
	}

	time.Sleep(100 * time.Millisecond)
}
