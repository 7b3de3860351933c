package handlers

import (
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/sahalsk/kuttappan/internal/common"
)

// StatusHandler serves process-level status
type StatusHandler struct {
	startTime time.Time
	logger    arbor.ILogger
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(logger arbor.ILogger) *StatusHandler {
	return &StatusHandler{
		startTime: time.Now(),
		logger:    logger,
	}
}

// HealthHandler handles GET /health requests
func (h *StatusHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"version": common.GetVersion(),
		"uptime":  time.Since(h.startTime).Round(time.Second).String(),
	})
}
