package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"shortcoder-go/internal/confirm"
	"shortcoder-go/internal/dispatch"
	"shortcoder-go/internal/event"
	"shortcoder-go/internal/inbound"
	"shortcoder-go/internal/monitor"
	"shortcoder-go/internal/store"
)

// ErrorResponse is the JSON error body returned by every handler.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// Handlers bundles the HTTP handlers and their collaborators.
type Handlers struct {
	store      store.Store
	processor  *inbound.Processor
	gate       *confirm.Gate
	dispatcher *dispatch.Dispatcher
	monitor    *monitor.Loop
	state      *event.StaticSource
}

// NewHandlers creates the handler set.
func NewHandlers(s store.Store, processor *inbound.Processor, gate *confirm.Gate, dispatcher *dispatch.Dispatcher, loop *monitor.Loop, state *event.StaticSource) *Handlers {
	return &Handlers{
		store:      s,
		processor:  processor,
		gate:       gate,
		dispatcher: dispatcher,
		monitor:    loop,
		state:      state,
	}
}

// SetupRoutes registers all routes on the router.
func (h *Handlers) SetupRoutes(router *gin.Engine) {
	router.GET("/healthz", h.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	{
		api.GET("/rules", h.GetRules)
		api.POST("/rules", h.CreateRule)
		api.GET("/rules/:id", h.GetRule)
		api.PUT("/rules/:id", h.UpdateRule)
		api.DELETE("/rules/:id", h.DeleteRule)
		api.POST("/rules/:id/enable", h.EnableRule)
		api.POST("/rules/:id/disable", h.DisableRule)

		api.GET("/settings", h.GetSettings)
		api.PUT("/settings", h.UpdateSettings)

		api.GET("/automations", h.GetAutomations)
		api.POST("/automations", h.CreateAutomation)
		api.GET("/automations/:id", h.GetAutomation)
		api.PUT("/automations/:id", h.UpdateAutomation)
		api.DELETE("/automations/:id", h.DeleteAutomation)
		api.POST("/automations/:id/enable", h.EnableAutomation)
		api.POST("/automations/:id/disable", h.DisableAutomation)

		api.GET("/confirmations", h.GetPendingConfirmations)
		api.POST("/confirmations/:id/confirm", h.ConfirmAutomation)
		api.POST("/confirmations/:id/cancel", h.CancelAutomation)

		api.GET("/shortcuts", h.GetShortcuts)
		api.POST("/shortcuts", h.CreateShortcut)
		api.GET("/shortcuts/:id", h.GetShortcut)
		api.PUT("/shortcuts/:id", h.UpdateShortcut)
		api.DELETE("/shortcuts/:id", h.DeleteShortcut)
		api.POST("/shortcuts/:id/run", h.RunShortcut)

		api.GET("/logs", h.GetLogs)
		api.DELETE("/logs", h.PruneLogs)

		api.POST("/messages/inbound", h.InboundMessage)

		api.GET("/state", h.GetState)
		api.PUT("/state", h.UpdateState)

		api.GET("/monitor/status", h.MonitorStatus)
		api.POST("/monitor/run", h.MonitorRunOnce)
	}
}

// Health returns service liveness.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":          "ok",
		"monitor_running": h.monitor.IsRunning(),
	})
}

// MonitorStatus reports the monitor loop state.
func (h *Handlers) MonitorStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"running":  h.monitor.IsRunning(),
		"next_run": h.monitor.NextRun(),
	})
}

// MonitorRunOnce triggers a single monitor tick.
func (h *Handlers) MonitorRunOnce(c *gin.Context) {
	h.monitor.RunOnce()
	c.Status(http.StatusAccepted)
}
