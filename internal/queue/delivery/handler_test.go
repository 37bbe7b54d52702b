package delivery

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	eventdomain "github.com/nepa-rudraksha/event-system/internal/event/domain"
	eventrepo "github.com/nepa-rudraksha/event-system/internal/event/repository"
	eventusecase "github.com/nepa-rudraksha/event-system/internal/event/usecase"
	"github.com/nepa-rudraksha/event-system/internal/queue/domain"
	queuerepo "github.com/nepa-rudraksha/event-system/internal/queue/repository"
	queueusecase "github.com/nepa-rudraksha/event-system/internal/queue/usecase"
	"github.com/nepa-rudraksha/event-system/pkg/sse"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testServer struct {
	router  *gin.Engine
	events  eventrepo.EventRepository
	eventID string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&eventdomain.Event{}, &domain.Token{}))

	events := eventrepo.NewEventRepository(db)
	event := &eventdomain.Event{Name: "Expo"}
	require.NoError(t, events.Create(event))

	manager := sse.NewManager(4)
	go manager.Run()

	eventUc := eventusecase.NewEventUsecase(events, manager)
	queueUc := queueusecase.NewQueueUsecase(queuerepo.NewTokenRepository(db), events, manager, nil)
	handler := NewQueueHandler(queueUc, eventUc, manager, 7*time.Second)

	// Staff routes are mounted without the auth middleware here; the
	// middleware has its own tests.
	router := gin.New()
	router.POST("/api/events/:eventId/tokens", handler.CreateToken)
	router.GET("/api/tokens/:tokenId", handler.GetToken)
	router.GET("/api/expert/queue", handler.GetQueue)
	router.PATCH("/api/tokens/:tokenId/status", handler.UpdateTokenStatus)
	router.PATCH("/api/tokens/:tokenId/consultation", handler.AttachConsultation)

	return &testServer{router: router, events: events, eventID: event.ID}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decodeToken(t *testing.T, w *httptest.ResponseRecorder) domain.Token {
	t.Helper()
	var token domain.Token
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &token))
	return token
}

func TestCreateTokenEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/events/"+s.eventID+"/tokens", gin.H{"visitor_id": "V1"})
	require.Equal(t, http.StatusCreated, w.Code)
	first := decodeToken(t, w)
	assert.Equal(t, 1, first.TokenNo)

	// Same visitor again: 200 with the identical token.
	w = s.do(t, http.MethodPost, "/api/events/"+s.eventID+"/tokens", gin.H{"visitor_id": "V1"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, first.ID, decodeToken(t, w).ID)

	// Missing body field.
	w = s.do(t, http.MethodPost, "/api/events/"+s.eventID+"/tokens", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Unknown event.
	w = s.do(t, http.MethodPost, "/api/events/nope/tokens", gin.H{"visitor_id": "V1"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateTokenPausedEndpoint(t *testing.T) {
	s := newTestServer(t)
	_, err := s.events.SetPaused(s.eventID, true)
	require.NoError(t, err)

	w := s.do(t, http.MethodPost, "/api/events/"+s.eventID+"/tokens", gin.H{"visitor_id": "V1"})
	require.Equal(t, http.StatusConflict, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "queue_paused", body["code"])
}

func TestGetTokenEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/events/"+s.eventID+"/tokens", gin.H{"visitor_id": "V1"})
	token := decodeToken(t, w)

	w = s.do(t, http.MethodGet, "/api/tokens/"+token.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, token.ID, decodeToken(t, w).ID)

	w = s.do(t, http.MethodGet, "/api/tokens/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestQueueSnapshotEndpoint(t *testing.T) {
	s := newTestServer(t)
	for _, visitor := range []string{"V1", "V2", "V3"} {
		s.do(t, http.MethodPost, "/api/events/"+s.eventID+"/tokens", gin.H{"visitor_id": visitor})
	}

	w := s.do(t, http.MethodGet, "/api/expert/queue?eventId="+s.eventID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Tokens         []domain.Token `json:"tokens"`
		Stats          domain.Stats   `json:"stats"`
		PollIntervalMS int64          `json:"poll_interval_ms"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Tokens, 3)
	assert.Equal(t, int64(3), body.Stats.Waiting)
	assert.Equal(t, int64(3), body.Stats.Total)
	assert.Equal(t, int64(7000), body.PollIntervalMS)

	// Required query param.
	w = s.do(t, http.MethodGet, "/api/expert/queue", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Unknown event and unknown status filter.
	w = s.do(t, http.MethodGet, "/api/expert/queue?eventId=nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = s.do(t, http.MethodGet, "/api/expert/queue?eventId="+s.eventID+"&status=BOGUS", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateStatusEndpoint(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodPost, "/api/events/"+s.eventID+"/tokens", gin.H{"visitor_id": "V1"})
	token := decodeToken(t, w)

	w = s.do(t, http.MethodPatch, "/api/tokens/"+token.ID+"/status", gin.H{"status": "IN_PROGRESS"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.StatusInProgress, decodeToken(t, w).Status)

	// Backward transition: 409 with the machine-readable code.
	w = s.do(t, http.MethodPatch, "/api/tokens/"+token.ID+"/status", gin.H{"status": "WAITING"})
	require.Equal(t, http.StatusConflict, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "invalid_transition", body["code"])

	// Unknown status value is a 400, not a 409.
	w = s.do(t, http.MethodPatch, "/api/tokens/"+token.ID+"/status", gin.H{"status": "CANCELLED"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPatch, "/api/tokens/missing/status", gin.H{"status": "IN_PROGRESS"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAttachConsultationEndpoint(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodPost, "/api/events/"+s.eventID+"/tokens", gin.H{"visitor_id": "V1"})
	token := decodeToken(t, w)

	w = s.do(t, http.MethodPatch, "/api/tokens/"+token.ID+"/consultation", gin.H{"consultation_id": "consult-7"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "consult-7", decodeToken(t, w).ConsultationID)

	w = s.do(t, http.MethodPatch, "/api/tokens/missing/consultation", gin.H{"consultation_id": "consult-7"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}
