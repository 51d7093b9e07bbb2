package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"shortcoder-go/internal/model"
)

// AutomationRequest is the create/update body for automations.
type AutomationRequest struct {
	Name                 string                   `json:"name"`
	Description          string                   `json:"description"`
	Trigger              *model.AutomationTrigger `json:"trigger"`
	Actions              []model.ShortcutAction   `json:"actions"`
	Enabled              *bool                    `json:"enabled"`
	RequiresConfirmation *bool                    `json:"requires_confirmation"`
}

// GetAutomations returns all automations
func (h *Handlers) GetAutomations(c *gin.Context) {
	automations, err := h.store.Automations()
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "database_error", Message: "Failed to fetch automations", Code: http.StatusInternalServerError})
		return
	}
	c.JSON(http.StatusOK, automations)
}

// CreateAutomation creates a new automation
func (h *Handlers) CreateAutomation(c *gin.Context) {
	var req AutomationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "Invalid request body", Code: http.StatusBadRequest})
		return
	}
	if req.Name == "" || req.Trigger == nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "name and trigger are required", Code: http.StatusBadRequest})
		return
	}

	automation := model.Automation{
		ID:                   uuid.NewString(),
		Name:                 req.Name,
		Description:          req.Description,
		Trigger:              *req.Trigger,
		Actions:              normalizeActions(req.Actions),
		Enabled:              true,
		RequiresConfirmation: true,
	}
	if req.Enabled != nil {
		automation.Enabled = *req.Enabled
	}
	if req.RequiresConfirmation != nil {
		automation.RequiresConfirmation = *req.RequiresConfirmation
	}

	if err := h.store.SaveAutomation(&automation); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "database_error", Message: "Failed to create automation", Code: http.StatusInternalServerError})
		return
	}
	c.JSON(http.StatusCreated, automation)
}

// GetAutomation returns a single automation by ID
func (h *Handlers) GetAutomation(c *gin.Context) {
	automation, err := h.store.Automation(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "not_found", Message: "Automation not found", Code: http.StatusNotFound})
		return
	}
	c.JSON(http.StatusOK, automation)
}

// UpdateAutomation updates an existing automation
func (h *Handlers) UpdateAutomation(c *gin.Context) {
	automation, err := h.store.Automation(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "not_found", Message: "Automation not found", Code: http.StatusNotFound})
		return
	}
	var req AutomationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "Invalid request body", Code: http.StatusBadRequest})
		return
	}
	if req.Name != "" {
		automation.Name = req.Name
	}
	if req.Description != "" {
		automation.Description = req.Description
	}
	if req.Trigger != nil {
		automation.Trigger = *req.Trigger
	}
	if req.Actions != nil {
		automation.Actions = normalizeActions(req.Actions)
	}
	if req.Enabled != nil {
		automation.Enabled = *req.Enabled
	}
	if req.RequiresConfirmation != nil {
		automation.RequiresConfirmation = *req.RequiresConfirmation
	}

	if err := h.store.SaveAutomation(automation); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "database_error", Message: "Failed to update automation", Code: http.StatusInternalServerError})
		return
	}
	c.JSON(http.StatusOK, automation)
}

// DeleteAutomation deletes an automation by ID
func (h *Handlers) DeleteAutomation(c *gin.Context) {
	if err := h.store.DeleteAutomation(c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "database_error", Message: "Failed to delete automation", Code: http.StatusInternalServerError})
		return
	}
	c.Status(http.StatusNoContent)
}

// EnableAutomation enables an automation by ID
func (h *Handlers) EnableAutomation(c *gin.Context) {
	h.setAutomationEnabled(c, true)
}

// DisableAutomation disables an automation by ID
func (h *Handlers) DisableAutomation(c *gin.Context) {
	h.setAutomationEnabled(c, false)
}

func (h *Handlers) setAutomationEnabled(c *gin.Context, enabled bool) {
	if err := h.store.SetAutomationEnabled(c.Param("id"), enabled); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "database_error", Message: "Failed to update automation", Code: http.StatusInternalServerError})
		return
	}
	c.Status(http.StatusNoContent)
}

// GetPendingConfirmations lists automation ids awaiting a decision
func (h *Handlers) GetPendingConfirmations(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"pending": h.gate.Pending()})
}

// ConfirmAutomation resolves a pending confirmation as confirmed
func (h *Handlers) ConfirmAutomation(c *gin.Context) {
	h.resolveConfirmation(c, true)
}

// CancelAutomation resolves a pending confirmation as cancelled
func (h *Handlers) CancelAutomation(c *gin.Context) {
	h.resolveConfirmation(c, false)
}

func (h *Handlers) resolveConfirmation(c *gin.Context, confirmed bool) {
	if err := h.gate.Resolve(c.Param("id"), confirmed); err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "not_found", Message: err.Error(), Code: http.StatusNotFound})
		return
	}
	c.Status(http.StatusAccepted)
}

// normalizeActions fills in missing action ids and defaults.
func normalizeActions(actions []model.ShortcutAction) []model.ShortcutAction {
	normalized := make([]model.ShortcutAction, len(actions))
	for i, a := range actions {
		if a.ID == "" {
			a.ID = uuid.NewString()
		}
		if a.Parameters == nil {
			a.Parameters = model.ParamMap{}
		}
		normalized[i] = a
	}
	return normalized
}
