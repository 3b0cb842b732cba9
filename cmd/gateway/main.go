package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"bootstrapper/internal/gateway/app"
	"bootstrapper/internal/gateway/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize app: %v", err)
	}
	if err := a.Serve(ctx); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
