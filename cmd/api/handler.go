package api

import (
	"net/http"

	"github.com/nepa-rudraksha/event-system/internal/auth/delivery"
	authUsecase "github.com/nepa-rudraksha/event-system/internal/auth/usecase"
	eventDelivery "github.com/nepa-rudraksha/event-system/internal/event/delivery"
	eventUsecase "github.com/nepa-rudraksha/event-system/internal/event/usecase"
	queueDelivery "github.com/nepa-rudraksha/event-system/internal/queue/delivery"
	queueUsecase "github.com/nepa-rudraksha/event-system/internal/queue/usecase"
	"github.com/nepa-rudraksha/event-system/pkg/config"
	"github.com/nepa-rudraksha/event-system/pkg/sse"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	engine *gin.Engine
}

func NewHandler(authUc authUsecase.AuthUsecase, eventUc eventUsecase.EventUsecase, queueUc queueUsecase.QueueUsecase, sseManager *sse.Manager, cfg *config.Config) *Handler {
	r := gin.Default()
	r.Use(corsMiddleware())

	authHandler := delivery.NewAuthHandler(authUc)
	eventHandler := eventDelivery.NewEventHandler(eventUc)
	queueHandler := queueDelivery.NewQueueHandler(queueUc, eventUc, sseManager, cfg.QueuePollInterval)

	SetupRoutes(r, authUc, authHandler, eventHandler, queueHandler)

	return &Handler{engine: r}
}

func (h *Handler) Start(addr string) error {
	return h.engine.Run(addr)
}

// corsMiddleware lets the single-page clients (visitor app, expert
// console, admin dashboard) call the API from their own origins.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
