package delivery

import (
	"errors"
	"net/http"
	"time"

	"github.com/nepa-rudraksha/event-system/internal/event/domain"
	"github.com/nepa-rudraksha/event-system/internal/event/usecase"

	"github.com/gin-gonic/gin"
)

// EventHandler handles event-related HTTP requests
type EventHandler struct {
	eventUsecase usecase.EventUsecase
}

// NewEventHandler creates a new EventHandler
func NewEventHandler(eventUc usecase.EventUsecase) *EventHandler {
	return &EventHandler{eventUsecase: eventUc}
}

// CreateEventRequest represents the request body for creating an event
type CreateEventRequest struct {
	Name     string     `json:"name" binding:"required"`
	Venue    string     `json:"venue"`
	StartsAt *time.Time `json:"starts_at"`
}

// SetPauseRequest toggles the event's intake pause
type SetPauseRequest struct {
	Paused *bool `json:"paused" binding:"required"`
}

// CreateEvent creates an event (admin only)
// POST /api/admin/events
func (h *EventHandler) CreateEvent(c *gin.Context) {
	var req CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	event, err := h.eventUsecase.CreateEvent(req.Name, req.Venue, req.StartsAt)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, event)
}

// ListEvents lists all events (admin only)
// GET /api/admin/events
func (h *EventHandler) ListEvents(c *gin.Context) {
	events, err := h.eventUsecase.ListEvents()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

// GetEvent returns one event, used by the visitor app to show event
// details and the pause banner.
// GET /api/events/:eventId
func (h *EventHandler) GetEvent(c *gin.Context) {
	event, err := h.eventUsecase.GetEvent(c.Param("eventId"))
	if err != nil {
		if errors.Is(err, domain.ErrEventNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, event)
}

// UpdateEvent replaces an event's details (admin only)
// PUT /api/admin/events/:eventId
func (h *EventHandler) UpdateEvent(c *gin.Context) {
	var req CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	event, err := h.eventUsecase.UpdateEvent(c.Param("eventId"), req.Name, req.Venue, req.StartsAt)
	if err != nil {
		if errors.Is(err, domain.ErrEventNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, event)
}

// SetPause pauses or resumes token intake for an event (admin only).
// Existing tokens keep transitioning normally while paused.
// PATCH /api/admin/events/:eventId/pause
func (h *EventHandler) SetPause(c *gin.Context) {
	var req SetPauseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	event, err := h.eventUsecase.SetPaused(c.Param("eventId"), *req.Paused)
	if err != nil {
		if errors.Is(err, domain.ErrEventNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, event)
}
