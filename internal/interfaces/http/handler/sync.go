package handler

import (
	"context"
	"net/http"
	gosync "sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	appsync "github.com/syncbridge/backend/internal/application/sync"
)

// RunStatus describes the lifecycle of one sync run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusFailed    RunStatus = "failed"
)

// RunState is the trigger endpoint's view of the most recent run.
type RunState struct {
	RunID      string           `json:"runId"`
	Status     RunStatus        `json:"status"`
	StartedAt  time.Time        `json:"startedAt"`
	FinishedAt *time.Time       `json:"finishedAt,omitempty"`
	Results    []appsync.Result `json:"results,omitempty"`
	Error      string           `json:"error,omitempty"`
}

// SyncHandler exposes the manual sync trigger. Runs execute in the
// background; only one may be in flight at a time.
type SyncHandler struct {
	manager *appsync.Manager
	logger  *zap.Logger

	mu      gosync.Mutex
	running bool
	last    *RunState
}

// NewSyncHandler creates a new SyncHandler.
func NewSyncHandler(manager *appsync.Manager, logger *zap.Logger) *SyncHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncHandler{
		manager: manager,
		logger:  logger.Named("sync_handler"),
	}
}

// RegisterRoutes registers the sync endpoints on the API group.
func (h *SyncHandler) RegisterRoutes(rg *gin.RouterGroup) {
	sync := rg.Group("/sync")
	sync.POST("/full", h.TriggerFull)
	sync.GET("/status", h.Status)
}

// TriggerFull starts a full sync run in the background and returns its id.
// A second trigger while a run is in flight is rejected with 409.
func (h *SyncHandler) TriggerFull(c *gin.Context) {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		c.JSON(http.StatusConflict, gin.H{"error": "sync run already in progress"})
		return
	}

	state := &RunState{
		RunID:     uuid.NewString(),
		Status:    RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	h.running = true
	h.last = state
	h.mu.Unlock()

	go h.run(state)

	c.JSON(http.StatusAccepted, gin.H{
		"runId":     state.RunID,
		"startedAt": state.StartedAt,
	})
}

// Status returns the state of the latest run, or 404 before the first one.
func (h *SyncHandler) Status(c *gin.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.last == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no sync run yet"})
		return
	}
	c.JSON(http.StatusOK, h.last)
}

// run executes the full sync and records the outcome. The run deliberately
// detaches from the triggering request's context.
func (h *SyncHandler) run(state *RunState) {
	h.logger.Info("sync run started", zap.String("run_id", state.RunID))

	results, err := h.manager.RunFull(context.Background())

	h.mu.Lock()
	defer h.mu.Unlock()
	now := time.Now().UTC()
	state.FinishedAt = &now
	state.Results = results
	if err != nil {
		state.Status = RunStatusFailed
		state.Error = err.Error()
		h.logger.Error("sync run failed", zap.String("run_id", state.RunID), zap.Error(err))
	} else {
		state.Status = RunStatusSucceeded
		h.logger.Info("sync run finished", zap.String("run_id", state.RunID))
	}
	h.running = false
}
