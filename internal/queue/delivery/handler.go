package delivery

import (
	"errors"
	"net/http"
	"time"

	eventdomain "github.com/nepa-rudraksha/event-system/internal/event/domain"
	eventUsecase "github.com/nepa-rudraksha/event-system/internal/event/usecase"
	"github.com/nepa-rudraksha/event-system/internal/metrics"
	"github.com/nepa-rudraksha/event-system/internal/queue/domain"
	"github.com/nepa-rudraksha/event-system/internal/queue/usecase"
	"github.com/nepa-rudraksha/event-system/pkg/sse"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// QueueHandler handles queue-related HTTP requests
type QueueHandler struct {
	queueUsecase usecase.QueueUsecase
	eventUsecase eventUsecase.EventUsecase
	sseManager   *sse.Manager
	pollInterval time.Duration
}

// NewQueueHandler creates a new QueueHandler
func NewQueueHandler(queueUc usecase.QueueUsecase, eventUc eventUsecase.EventUsecase, sseManager *sse.Manager, pollInterval time.Duration) *QueueHandler {
	return &QueueHandler{
		queueUsecase: queueUc,
		eventUsecase: eventUc,
		sseManager:   sseManager,
		pollInterval: pollInterval,
	}
}

// CreateTokenRequest represents the request body for taking a token
type CreateTokenRequest struct {
	VisitorID string `json:"visitor_id" binding:"required"`
}

// UpdateStatusRequest represents the request body for a status transition
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// AttachConsultationRequest links a token to an expert-workspace session
type AttachConsultationRequest struct {
	ConsultationID string `json:"consultation_id" binding:"required"`
}

// CreateToken reserves the visitor's spot in the event's queue.
// Returns 201 for a fresh token, 200 when the visitor already holds an
// active one.
// POST /api/events/:eventId/tokens
func (h *QueueHandler) CreateToken(c *gin.Context) {
	eventID := c.Param("eventId")

	var req CreateTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, created, err := h.queueUsecase.CreateToken(eventID, req.VisitorID)
	if err != nil {
		if errors.Is(err, eventdomain.ErrEventNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
			return
		}
		if errors.Is(err, domain.ErrQueuePaused) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "queue_paused"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if created {
		c.JSON(http.StatusCreated, token)
		return
	}
	c.JSON(http.StatusOK, token)
}

// GetToken returns one token, used by the visitor view to follow its
// own place in the queue.
// GET /api/tokens/:tokenId
func (h *QueueHandler) GetToken(c *gin.Context) {
	token, err := h.queueUsecase.GetToken(c.Param("tokenId"))
	if err != nil {
		if errors.Is(err, domain.ErrTokenNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Token not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, token)
}

// GetQueue returns the full snapshot: all tokens in serving order plus
// derived stats. Clients call it on connect, on reconnect, and on their
// poll interval as the correctness backstop for missed pushes.
// GET /api/expert/queue?eventId=&status=
func (h *QueueHandler) GetQueue(c *gin.Context) {
	timer := prometheus.NewTimer(metrics.SnapshotDuration)
	defer timer.ObserveDuration()

	eventID := c.Query("eventId")
	if eventID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "eventId is required"})
		return
	}
	if _, err := h.eventUsecase.GetEvent(eventID); err != nil {
		if errors.Is(err, eventdomain.ErrEventNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var statusFilter *domain.Status
	if raw := c.Query("status"); raw != "" {
		status := domain.Status(raw)
		if !status.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status " + raw})
			return
		}
		statusFilter = &status
	}

	snapshot, err := h.queueUsecase.Snapshot(eventID, statusFilter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tokens":           snapshot.Tokens,
		"stats":            snapshot.Stats,
		"poll_interval_ms": h.pollInterval.Milliseconds(),
	})
}

// UpdateTokenStatus transitions a token through the state machine.
// PATCH /api/tokens/:tokenId/status
func (h *QueueHandler) UpdateTokenStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	status := domain.Status(req.Status)
	if !status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status " + req.Status})
		return
	}

	token, err := h.queueUsecase.UpdateStatus(c.Param("tokenId"), status)
	if err != nil {
		if errors.Is(err, domain.ErrTokenNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Token not found"})
			return
		}
		if errors.Is(err, domain.ErrInvalidTransition) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "invalid_transition"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, token)
}

// AttachConsultation records the workspace back-reference on a token.
// PATCH /api/tokens/:tokenId/consultation
func (h *QueueHandler) AttachConsultation(c *gin.Context) {
	var req AttachConsultationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := h.queueUsecase.AttachConsultation(c.Param("tokenId"), req.ConsultationID)
	if err != nil {
		if errors.Is(err, domain.ErrTokenNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Token not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, token)
}

// Stream subscribes the caller to the event's live change feed. There
// is no replay: subscribers are expected to fetch a snapshot right
// after connecting.
// GET /api/events/:eventId/stream
func (h *QueueHandler) Stream(c *gin.Context) {
	eventID := c.Param("eventId")
	if _, err := h.eventUsecase.GetEvent(eventID); err != nil {
		if errors.Is(err, eventdomain.ErrEventNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	metrics.StreamSubscribers.Inc()
	defer metrics.StreamSubscribers.Dec()
	h.sseManager.ServeHTTP(c, eventID)
}
