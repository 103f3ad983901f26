package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/siatbridge/backend/internal/infrastructure/scheduler"
)

// SyncRunner triggers a full synchronization run outside the daily schedule
type SyncRunner interface {
	TriggerNow(ctx context.Context) error
}

// SyncHandler handles manual synchronization endpoints
type SyncHandler struct {
	BaseHandler
	runner SyncRunner
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(runner SyncRunner) *SyncHandler {
	return &SyncHandler{runner: runner}
}

// RegisterRoutes registers synchronization routes
func (h *SyncHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/sync/run", h.Run)
}

// Run executes one full synchronization immediately
func (h *SyncHandler) Run(c *gin.Context) {
	err := h.runner.TriggerNow(c.Request.Context())
	switch {
	case err == nil:
		h.Success(c, gin.H{"completed": true})
	case errors.Is(err, scheduler.ErrSyncAlreadyInProgress):
		h.Error(c, http.StatusConflict, "SYNC_IN_PROGRESS", err.Error())
	case errors.Is(err, scheduler.ErrTriggerNotRunning):
		h.Error(c, http.StatusServiceUnavailable, "SYNC_DISABLED", err.Error())
	default:
		h.HandleError(c, err)
	}
}
