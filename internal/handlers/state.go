package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// StateRequest is the body for pushing a system-state snapshot.
type StateRequest struct {
	BatteryLevel *int     `json:"battery_level"`
	Connectivity string   `json:"connectivity"`
	Idle         *bool    `json:"idle"`
	Charging     *bool    `json:"charging"`
	Tags         []string `json:"tags"`
}

// GetState returns the latest system-state snapshot.
func (h *Handlers) GetState(c *gin.Context) {
	snapshot, err := h.state.Snapshot(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "state_error", Message: "Failed to read state", Code: http.StatusInternalServerError})
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// UpdateState replaces the system-state snapshot. State-based triggers are
// evaluated against it on the next monitor tick.
func (h *Handlers) UpdateState(c *gin.Context) {
	var req StateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "Invalid request body", Code: http.StatusBadRequest})
		return
	}

	current, _ := h.state.Snapshot(c.Request.Context())
	if req.BatteryLevel != nil {
		current.BatteryLevel = *req.BatteryLevel
	}
	if req.Connectivity != "" {
		current.Connectivity = req.Connectivity
	}
	if req.Idle != nil {
		current.Idle = *req.Idle
	}
	if req.Charging != nil {
		current.Charging = *req.Charging
	}
	if req.Tags != nil {
		current.Tags = req.Tags
	}
	h.state.Set(current)
	c.JSON(http.StatusOK, current)
}
