package api

import (
	"net/http"

	"github.com/nepa-rudraksha/event-system/internal/auth/delivery"
	authdomain "github.com/nepa-rudraksha/event-system/internal/auth/domain"
	authUsecase "github.com/nepa-rudraksha/event-system/internal/auth/usecase"
	eventDelivery "github.com/nepa-rudraksha/event-system/internal/event/delivery"
	queueDelivery "github.com/nepa-rudraksha/event-system/internal/queue/delivery"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRoutes(r *gin.Engine, authUc authUsecase.AuthUsecase, authHandler *delivery.AuthHandler, eventHandler *eventDelivery.EventHandler, queueHandler *queueDelivery.QueueHandler) {
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		// Health check (no auth required)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		// Auth routes
		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", delivery.AuthMiddleware(authUc), authHandler.Me)
		}

		// Visitor routes: event details, token intake, own-token lookup
		// and the live change stream. Visitor identity is session-level,
		// no staff credentials involved.
		api.GET("/events/:eventId", eventHandler.GetEvent)
		api.POST("/events/:eventId/tokens", queueHandler.CreateToken)
		api.GET("/events/:eventId/stream", queueHandler.Stream)
		api.GET("/tokens/:tokenId", queueHandler.GetToken)

		// Expert console (expert or admin)
		expert := api.Group("/expert")
		expert.Use(delivery.AuthMiddleware(authUc), delivery.RequireRole(authdomain.RoleExpert, authdomain.RoleAdmin))
		{
			expert.GET("/queue", queueHandler.GetQueue)
		}

		// Token mutations (expert or admin)
		tokens := api.Group("/tokens")
		tokens.Use(delivery.AuthMiddleware(authUc), delivery.RequireRole(authdomain.RoleExpert, authdomain.RoleAdmin))
		{
			tokens.PATCH("/:tokenId/status", queueHandler.UpdateTokenStatus)
			tokens.PATCH("/:tokenId/consultation", queueHandler.AttachConsultation)
		}

		// Admin back-office
		admin := api.Group("/admin")
		admin.Use(delivery.AuthMiddleware(authUc), delivery.RequireRole(authdomain.RoleAdmin))
		{
			admin.POST("/events", eventHandler.CreateEvent)
			admin.GET("/events", eventHandler.ListEvents)
			admin.PUT("/events/:eventId", eventHandler.UpdateEvent)
			admin.PATCH("/events/:eventId/pause", eventHandler.SetPause)
			admin.POST("/staff", authHandler.CreateStaff)
		}
	}
}
