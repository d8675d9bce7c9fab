package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/orbitaltravel/config"
	"github.com/Domenick1991/orbitaltravel/internal/bootstrap"
	"github.com/Domenick1991/orbitaltravel/internal/email"
	"github.com/Domenick1991/orbitaltravel/internal/kafka"
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

	if len(cfg.Kafka.Brokers) > 0 && cfg.Kafka.NotificationsTopic != "" {
		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic)
		defer consumer.Close()

		sender := email.NewSender()
		go func() {
			if err := consumer.Consume(ctx, kafka.BookingEventHandler(sender.Send)); err != nil && ctx.Err() == nil {
				log.Printf("consumer stopped: %v", err)
			}
		}()
	}

	log.Printf("worker started, sweeping seat holds every %ds", cfg.Worker.SeatSweepSeconds)
	bootstrap.SweepHolds(ctx, deps.Service, time.Duration(cfg.Worker.SeatSweepSeconds)*time.Second)
	log.Printf("worker stopped")
}
