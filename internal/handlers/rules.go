package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"shortcoder-go/internal/model"
)

// ForwardingRuleRequest is the create/update body for forwarding rules.
type ForwardingRuleRequest struct {
	Name                  string   `json:"name"`
	RuleType              string   `json:"rule_type"`
	SourceList            []string `json:"source_list"`
	Destination           string   `json:"destination"`
	Prefix                string   `json:"prefix"`
	IncludeOriginalSender *bool    `json:"include_original_sender"`
	OnlyWhenIdle          *bool    `json:"only_when_idle"`
	QuietHoursStart       string   `json:"quiet_hours_start"`
	QuietHoursEnd         string   `json:"quiet_hours_end"`
	QuietHoursEnabled     *bool    `json:"quiet_hours_enabled"`
	Enabled               *bool    `json:"enabled"`
}

// GetRules returns all forwarding rules
func (h *Handlers) GetRules(c *gin.Context) {
	rules, err := h.store.ForwardingRules()
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "database_error",
			Message: "Failed to fetch rules",
			Code:    http.StatusInternalServerError,
		})
		return
	}
	c.JSON(http.StatusOK, rules)
}

// CreateRule creates a new forwarding rule
func (h *Handlers) CreateRule(c *gin.Context) {
	var req ForwardingRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
			Code:    http.StatusBadRequest,
		})
		return
	}
	if req.Name == "" || req.Destination == "" || req.RuleType == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "name, rule_type, and destination are required",
			Code:    http.StatusBadRequest,
		})
		return
	}

	rule := model.ForwardingRule{
		ID:                    uuid.NewString(),
		Name:                  req.Name,
		RuleType:              model.ForwardingRuleType(req.RuleType),
		SourceList:            req.SourceList,
		Destination:           req.Destination,
		Prefix:                req.Prefix,
		IncludeOriginalSender: true,
		Enabled:               true,
		QuietHoursStart:       req.QuietHoursStart,
		QuietHoursEnd:         req.QuietHoursEnd,
	}
	applyRuleRequest(&rule, &req)

	if err := h.store.SaveForwardingRule(&rule); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "database_error",
			Message: "Failed to create rule",
			Code:    http.StatusInternalServerError,
		})
		return
	}
	c.JSON(http.StatusCreated, rule)
}

// GetRule returns a single rule by ID
func (h *Handlers) GetRule(c *gin.Context) {
	rule, err := h.store.ForwardingRule(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "not_found", Message: "Rule not found", Code: http.StatusNotFound})
		return
	}
	c.JSON(http.StatusOK, rule)
}

// UpdateRule updates an existing rule
func (h *Handlers) UpdateRule(c *gin.Context) {
	rule, err := h.store.ForwardingRule(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "not_found", Message: "Rule not found", Code: http.StatusNotFound})
		return
	}
	var req ForwardingRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "Invalid request body", Code: http.StatusBadRequest})
		return
	}
	if req.Name != "" {
		rule.Name = req.Name
	}
	if req.RuleType != "" {
		rule.RuleType = model.ForwardingRuleType(req.RuleType)
	}
	if req.SourceList != nil {
		rule.SourceList = req.SourceList
	}
	if req.Destination != "" {
		rule.Destination = req.Destination
	}
	if req.Prefix != "" {
		rule.Prefix = req.Prefix
	}
	if req.QuietHoursStart != "" {
		rule.QuietHoursStart = req.QuietHoursStart
	}
	if req.QuietHoursEnd != "" {
		rule.QuietHoursEnd = req.QuietHoursEnd
	}
	applyRuleRequest(rule, &req)

	if err := h.store.SaveForwardingRule(rule); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "database_error", Message: "Failed to update rule", Code: http.StatusInternalServerError})
		return
	}
	c.JSON(http.StatusOK, rule)
}

func applyRuleRequest(rule *model.ForwardingRule, req *ForwardingRuleRequest) {
	if req.Enabled != nil {
		rule.Enabled = *req.Enabled
	}
	if req.IncludeOriginalSender != nil {
		rule.IncludeOriginalSender = *req.IncludeOriginalSender
	}
	if req.OnlyWhenIdle != nil {
		rule.OnlyWhenIdle = *req.OnlyWhenIdle
	}
	if req.QuietHoursEnabled != nil {
		rule.QuietHoursEnabled = *req.QuietHoursEnabled
	}
}

// DeleteRule deletes a rule by ID
func (h *Handlers) DeleteRule(c *gin.Context) {
	if err := h.store.DeleteForwardingRule(c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "database_error", Message: "Failed to delete rule", Code: http.StatusInternalServerError})
		return
	}
	c.Status(http.StatusNoContent)
}

// EnableRule enables a rule by ID
func (h *Handlers) EnableRule(c *gin.Context) {
	h.setRuleEnabled(c, true)
}

// DisableRule disables a rule by ID
func (h *Handlers) DisableRule(c *gin.Context) {
	h.setRuleEnabled(c, false)
}

func (h *Handlers) setRuleEnabled(c *gin.Context, enabled bool) {
	if err := h.store.SetForwardingRuleEnabled(c.Param("id"), enabled); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "database_error", Message: "Failed to update rule", Code: http.StatusInternalServerError})
		return
	}
	c.Status(http.StatusNoContent)
}

// GetSettings returns the global forwarding settings
func (h *Handlers) GetSettings(c *gin.Context) {
	settings, err := h.store.ForwardingSettings()
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "database_error", Message: "Failed to fetch settings", Code: http.StatusInternalServerError})
		return
	}
	c.JSON(http.StatusOK, settings)
}

// UpdateSettings replaces the global forwarding settings
func (h *Handlers) UpdateSettings(c *gin.Context) {
	var settings model.ForwardingSettings
	if err := c.ShouldBindJSON(&settings); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "Invalid request body", Code: http.StatusBadRequest})
		return
	}
	if err := h.store.SaveForwardingSettings(&settings); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "database_error", Message: "Failed to save settings", Code: http.StatusInternalServerError})
		return
	}
	c.JSON(http.StatusOK, settings)
}
