package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"shortcoder-go/internal/event"
)

// InboundMessageRequest is the webhook body for injecting a message event.
type InboundMessageRequest struct {
	Sender    string     `json:"sender" binding:"required"`
	Body      string     `json:"body" binding:"required"`
	Timestamp *time.Time `json:"timestamp"`
	Kind      string     `json:"kind"`
}

// InboundMessage accepts an inbound message event and processes it
// asynchronously. Each event runs on its own goroutine; processing outlives
// the HTTP request.
func (h *Handlers) InboundMessage(c *gin.Context) {
	var req InboundMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "sender and body are required", Code: http.StatusBadRequest})
		return
	}

	msg := event.Message{
		Sender:    req.Sender,
		Body:      req.Body,
		Timestamp: time.Now(),
		Kind:      event.KindSMS,
	}
	if req.Timestamp != nil {
		msg.Timestamp = *req.Timestamp
	}
	if req.Kind == string(event.KindMMS) {
		msg.Kind = event.KindMMS
	}

	h.processor.HandleMessageAsync(context.Background(), msg)
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}
