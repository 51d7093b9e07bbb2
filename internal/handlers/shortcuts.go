package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"shortcoder-go/internal/model"
)

// ShortcutRequest is the create/update body for shortcuts.
type ShortcutRequest struct {
	Name                 string                 `json:"name"`
	Description          string                 `json:"description"`
	Actions              []model.ShortcutAction `json:"actions"`
	Enabled              *bool                  `json:"enabled"`
	RequiresConfirmation *bool                  `json:"requires_confirmation"`
}

// GetShortcuts returns all shortcuts
func (h *Handlers) GetShortcuts(c *gin.Context) {
	shortcuts, err := h.store.Shortcuts()
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "database_error", Message: "Failed to fetch shortcuts", Code: http.StatusInternalServerError})
		return
	}
	c.JSON(http.StatusOK, shortcuts)
}

// CreateShortcut creates a new shortcut
func (h *Handlers) CreateShortcut(c *gin.Context) {
	var req ShortcutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "Invalid request body", Code: http.StatusBadRequest})
		return
	}
	if req.Name == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "name is required", Code: http.StatusBadRequest})
		return
	}

	shortcut := model.Shortcut{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		Actions:     normalizeActions(req.Actions),
		Enabled:     true,
	}
	if req.Enabled != nil {
		shortcut.Enabled = *req.Enabled
	}
	if req.RequiresConfirmation != nil {
		shortcut.RequiresConfirmation = *req.RequiresConfirmation
	}

	if err := h.store.SaveShortcut(&shortcut); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "database_error", Message: "Failed to create shortcut", Code: http.StatusInternalServerError})
		return
	}
	c.JSON(http.StatusCreated, shortcut)
}

// GetShortcut returns a single shortcut by ID
func (h *Handlers) GetShortcut(c *gin.Context) {
	shortcut, err := h.store.Shortcut(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "not_found", Message: "Shortcut not found", Code: http.StatusNotFound})
		return
	}
	c.JSON(http.StatusOK, shortcut)
}

// UpdateShortcut updates an existing shortcut
func (h *Handlers) UpdateShortcut(c *gin.Context) {
	shortcut, err := h.store.Shortcut(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "not_found", Message: "Shortcut not found", Code: http.StatusNotFound})
		return
	}
	var req ShortcutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "Invalid request body", Code: http.StatusBadRequest})
		return
	}
	if req.Name != "" {
		shortcut.Name = req.Name
	}
	if req.Description != "" {
		shortcut.Description = req.Description
	}
	if req.Actions != nil {
		shortcut.Actions = normalizeActions(req.Actions)
	}
	if req.Enabled != nil {
		shortcut.Enabled = *req.Enabled
	}
	if req.RequiresConfirmation != nil {
		shortcut.RequiresConfirmation = *req.RequiresConfirmation
	}

	if err := h.store.SaveShortcut(shortcut); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "database_error", Message: "Failed to update shortcut", Code: http.StatusInternalServerError})
		return
	}
	c.JSON(http.StatusOK, shortcut)
}

// DeleteShortcut deletes a shortcut by ID
func (h *Handlers) DeleteShortcut(c *gin.Context) {
	if err := h.store.DeleteShortcut(c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "database_error", Message: "Failed to delete shortcut", Code: http.StatusInternalServerError})
		return
	}
	c.Status(http.StatusNoContent)
}

// RunShortcut executes a shortcut's action list and returns the per-action
// outcomes.
func (h *Handlers) RunShortcut(c *gin.Context) {
	shortcut, err := h.store.Shortcut(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "not_found", Message: "Shortcut not found", Code: http.StatusNotFound})
		return
	}
	if !shortcut.Enabled {
		c.JSON(http.StatusConflict, ErrorResponse{Error: "disabled", Message: "Shortcut is disabled", Code: http.StatusConflict})
		return
	}

	result := h.dispatcher.Execute(c.Request.Context(), shortcut.Actions)
	if err := h.store.IncrementShortcutRunCount(shortcut.ID, time.Now()); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "database_error", Message: "Failed to record run", Code: http.StatusInternalServerError})
		return
	}
	c.JSON(http.StatusOK, result)
}
