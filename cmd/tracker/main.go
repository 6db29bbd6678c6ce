package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/Joshua-96/MVG-tracker/internal/config"
	"github.com/Joshua-96/MVG-tracker/internal/db"
	"github.com/Joshua-96/MVG-tracker/internal/feed"
	"github.com/Joshua-96/MVG-tracker/internal/registry"
	"github.com/Joshua-96/MVG-tracker/internal/scheduler"
)

func main() {
	log.Println("Starting MVG departure tracker...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	log.Printf("Config loaded: refresh=%v, save=%v, backup hour=%d",
		cfg.RefreshInterval, cfg.SaveInterval, cfg.BackupHour)

	store, err := db.Connect(cfg, log.Default())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer store.Close()

	if err := store.EnsureSchema(context.Background()); err != nil {
		log.Fatalf("Failed to ensure database schema: %v", err)
	}

	reg, err := registry.Load(context.Background(), store)
	if err != nil {
		log.Fatalf("Failed to load station registry: %v", err)
	}
	log.Printf("Registry loaded: %d stations", len(reg.Stations()))

	client := feed.NewClient(cfg, log.Default())
	sched := scheduler.New(cfg, reg, client, store, log.Default())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := sched.Run(ctx); err != nil {
		log.Fatalf("Scheduler failed: %v", err)
	}
	log.Println("Goodbye!")
}
