package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go-c2rcc/internal/config"
	"go-c2rcc/internal/container"
	"go-c2rcc/internal/logger"
	"go-c2rcc/internal/server"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.SetLevel(os.Getenv("LOG_LEVEL"))

	c, err := container.NewContainer(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx, c); err != nil {
		logger.WithError(err).Fatal("Server stopped with error")
	}
}
