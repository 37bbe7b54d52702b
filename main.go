package main

import (
	"log"

	api "github.com/nepa-rudraksha/event-system/cmd/api"
	authdomain "github.com/nepa-rudraksha/event-system/internal/auth/domain"
	authRepo "github.com/nepa-rudraksha/event-system/internal/auth/repository"
	authUsecase "github.com/nepa-rudraksha/event-system/internal/auth/usecase"
	eventdomain "github.com/nepa-rudraksha/event-system/internal/event/domain"
	eventRepo "github.com/nepa-rudraksha/event-system/internal/event/repository"
	eventUsecase "github.com/nepa-rudraksha/event-system/internal/event/usecase"
	"github.com/nepa-rudraksha/event-system/internal/metrics"
	queuedomain "github.com/nepa-rudraksha/event-system/internal/queue/domain"
	queueRepo "github.com/nepa-rudraksha/event-system/internal/queue/repository"
	queueUsecase "github.com/nepa-rudraksha/event-system/internal/queue/usecase"
	"github.com/nepa-rudraksha/event-system/pkg/config"
	"github.com/nepa-rudraksha/event-system/pkg/database"
	"github.com/nepa-rudraksha/event-system/pkg/mq"
	"github.com/nepa-rudraksha/event-system/pkg/sse"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.NewPostgresConnection(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto-migrate database schemas
	if err := db.AutoMigrate(&authdomain.Staff{}, &authdomain.RefreshToken{}, &eventdomain.Event{}, &queuedomain.Token{}); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Register Prometheus metrics
	metrics.Register()

	// Initialize repositories (dependency injection)
	staffRepository := authRepo.NewStaffRepository(db)
	eventRepository := eventRepo.NewEventRepository(db)
	tokenRepository := queueRepo.NewTokenRepository(db)

	// Initialize SSE Manager
	sseManager := sse.NewManager(cfg.SSEClientBuffer)
	go sseManager.Run()

	// Optional AMQP mirror of queue change events
	var mirror queueUsecase.Mirror
	if cfg.AMQPURL != "" {
		publisher, err := mq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			log.Printf("[WARN] Failed to connect AMQP mirror (events will not be mirrored): %v", err)
		} else {
			defer publisher.Close()
			mirror = publisher
			log.Printf("[MQ] Mirroring queue events to exchange %s", cfg.AMQPExchange)
		}
	}

	// Initialize use cases (dependency injection)
	authUsecaseInstance := authUsecase.NewAuthUsecase(staffRepository, cfg)
	eventUsecaseInstance := eventUsecase.NewEventUsecase(eventRepository, sseManager)
	queueUsecaseInstance := queueUsecase.NewQueueUsecase(tokenRepository, eventRepository, sseManager, mirror)

	// Bootstrap admin account on first run
	if err := authUsecaseInstance.EnsureAdmin(cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Printf("[WARN] Failed to ensure bootstrap admin: %v", err)
	}

	// Initialize HTTP handler
	handler := api.NewHandler(authUsecaseInstance, eventUsecaseInstance, queueUsecaseInstance, sseManager, cfg)

	// Start server
	log.Printf("Server starting on port %s", cfg.Port)
	if err := handler.Start(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
