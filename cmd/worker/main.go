package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"hookd/internal/engine/webhooks"
	"hookd/internal/pkg/logger"
	"hookd/internal/platform/config"
	"hookd/internal/platform/database"
	"hookd/internal/platform/repositories"
	"hookd/internal/workers"
)

func main() {
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.Logging)

	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	endpointRepo := repositories.NewEndpointRepository(db)
	deliveryRepo := repositories.NewDeliveryRepository(db)

	policy := webhooks.RetryPolicy{
		MaxAttempts: cfg.Webhooks.MaxAttempts,
		BaseDelay:   cfg.Webhooks.BackoffBase,
		Factor:      2,
		MaxDelay:    cfg.Webhooks.BackoffMax,
	}

	// Constructed once; every dispatch attempt shares the bounded timeout.
	client := &http.Client{Timeout: cfg.Webhooks.RequestTimeout}

	dispatcher := webhooks.NewDispatcher(endpointRepo, deliveryRepo, client, policy)
	pool := workers.NewPool(deliveryRepo, dispatcher, cfg.Webhooks.WorkerCount, cfg.Webhooks.PollInterval)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Println("Starting hookd dispatch workers...")
	pool.Run(ctx)
}
