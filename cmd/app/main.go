package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/orbitaltravel/config"
	"github.com/Domenick1991/orbitaltravel/internal/bootstrap"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := bootstrap.OpenStorage(ctx, cfg)
	if err != nil {
		log.Fatalf("open storage: %v", err)
	}
	defer store.Close()

	deps, err := bootstrap.NewBookingDeps(cfg, store)
	if err != nil {
		log.Fatalf("wire booking service: %v", err)
	}
	defer deps.Close()

	if err := bootstrap.Run(ctx, cfg, deps.Service, deps.Checks...); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
