package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"go-hris-engine/internal/app"
	"go-hris-engine/internal/bootstrap"
	"go-hris-engine/internal/config"

	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "optional config file (yaml, json or toml)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := bootstrap.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	infra, err := app.Connect(cfg, logger)
	if err != nil {
		logger.Fatal("connect infrastructure failed", zap.Error(err))
	}
	defer func() {
		if err := infra.Close(); err != nil {
			logger.Error("close infrastructure failed", zap.Error(err))
		}
	}()

	if err := app.RunConsumer(ctx, infra); err != nil {
		logger.Error("run consumer failed", zap.Error(err))
	}
}
