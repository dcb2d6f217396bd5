package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appsync "github.com/syncbridge/backend/internal/application/sync"
	"github.com/syncbridge/backend/internal/domain/integration"
)

type stubSynchronizer struct {
	family  integration.EntityFamily
	block   chan struct{}
	started chan struct{}
}

func (s *stubSynchronizer) Family() integration.EntityFamily { return s.family }

func (s *stubSynchronizer) Sync(ctx context.Context) (*appsync.Result, error) {
	if s.started != nil {
		close(s.started)
	}
	if s.block != nil {
		<-s.block
	}
	return &appsync.Result{Family: s.family, Fetched: 1}, nil
}

func setupRouter(h *SyncHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	group := engine.Group("/api/v1")
	h.RegisterRoutes(group)
	return engine
}

func TestTriggerFull_ReturnsRunID(t *testing.T) {
	manager := appsync.NewManager([]appsync.Synchronizer{
		&stubSynchronizer{family: integration.FamilyUsers},
	}, nil)
	h := NewSyncHandler(manager, nil)
	engine := setupRouter(h)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sync/full", nil)
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusAccepted, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotEmpty(t, body["runId"])

	// The background run eventually completes and surfaces in the status.
	require.Eventually(t, func() bool {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/sync/status", nil))
		var state RunState
		if err := json.Unmarshal(w.Body.Bytes(), &state); err != nil {
			return false
		}
		return state.Status == RunStatusSucceeded
	}, time.Second, 10*time.Millisecond)
}

func TestTriggerFull_RejectsConcurrentRun(t *testing.T) {
	slow := &stubSynchronizer{
		family:  integration.FamilyUsers,
		block:   make(chan struct{}),
		started: make(chan struct{}),
	}
	manager := appsync.NewManager([]appsync.Synchronizer{slow}, nil)
	h := NewSyncHandler(manager, nil)
	engine := setupRouter(h)

	first := httptest.NewRecorder()
	engine.ServeHTTP(first, httptest.NewRequest(http.MethodPost, "/api/v1/sync/full", nil))
	require.Equal(t, http.StatusAccepted, first.Code)
	<-slow.started

	second := httptest.NewRecorder()
	engine.ServeHTTP(second, httptest.NewRequest(http.MethodPost, "/api/v1/sync/full", nil))
	assert.Equal(t, http.StatusConflict, second.Code)

	close(slow.block)
}

func TestStatus_BeforeFirstRun(t *testing.T) {
	manager := appsync.NewManager(nil, nil)
	h := NewSyncHandler(manager, nil)
	engine := setupRouter(h)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/sync/status", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	group := engine.Group("/api/v1")
	NewHealthHandler().RegisterRoutes(group)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}
