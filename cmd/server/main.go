package main

import (
	"fmt"
	"log"
	"net/http"

	"hookd/internal/api"
	"hookd/internal/api/handlers"
	"hookd/internal/api/middleware"
	"hookd/internal/engine/webhooks"
	"hookd/internal/pkg/logger"
	"hookd/internal/platform/auth"
	"hookd/internal/platform/config"
	"hookd/internal/platform/database"
	"hookd/internal/platform/repositories"
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

	// Repositories
	endpointRepo := repositories.NewEndpointRepository(db)
	deliveryRepo := repositories.NewDeliveryRepository(db)

	// Services
	tokenSvc := auth.NewTokenService(cfg.JWT)
	targetValidator := webhooks.NewTargetValidator(cfg.Webhooks.AllowPrivateTargets)
	registry := webhooks.NewRegistry(endpointRepo, targetValidator)
	router := webhooks.NewRouter(endpointRepo, deliveryRepo)

	// Handlers
	endpointHandler := handlers.NewEndpointHandler(registry, router, endpointRepo, deliveryRepo)
	eventHandler := handlers.NewEventHandler(router)
	receiverHandler := handlers.NewReceiverHandler()
	healthHandler := handlers.NewHealthHandler(db)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(tokenSvc)

	deps := &api.Dependencies{
		EndpointHandler: endpointHandler,
		EventHandler:    eventHandler,
		ReceiverHandler: receiverHandler,
		HealthHandler:   healthHandler,
		AuthMiddleware:  authMiddleware,
	}
	httpRouter := api.NewRouter(deps)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      httpRouter,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	log.Printf("Server starting on %s", addr)
	if err := server.ListenAndServe(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
