package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/orbitaltravel/config"
	"github.com/Domenick1991/orbitaltravel/internal/bootstrap"
	"github.com/Domenick1991/orbitaltravel/internal/service/providers"
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

	injector, err := bootstrap.NewInjector(cfg)
	if err != nil {
		log.Fatalf("chaos config: %v", err)
	}

	store, err := bootstrap.OpenStorage(ctx, cfg)
	if err != nil {
		log.Fatalf("open storage: %v", err)
	}
	defer store.Close()

	log.Printf("provider simulation starting, chaos enabled=%t seed=%d", injector.Enabled(), cfg.Chaos.Seed)
	if err := bootstrap.RunProviders(ctx, cfg, providers.NewProviderService(injector, store.Calls)); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
