package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// GetLogs returns execution log entries, newest first.
func (h *Handlers) GetLogs(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 || limit > 500 {
		limit = 50
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	entries, err := h.store.LogEntries(limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "database_error", Message: "Failed to fetch log entries", Code: http.StatusInternalServerError})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"entries": entries,
		"limit":   limit,
		"offset":  offset,
	})
}

// PruneLogs deletes log entries older than the before query parameter
// (RFC3339) or the default retention of 30 days.
func (h *Handlers) PruneLogs(c *gin.Context) {
	before := time.Now().AddDate(0, 0, -30)
	if raw := c.Query("before"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "before must be RFC3339", Code: http.StatusBadRequest})
			return
		}
		before = parsed
	}

	pruned, err := h.store.PruneLogEntries(before)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "database_error", Message: "Failed to prune log entries", Code: http.StatusInternalServerError})
		return
	}
	c.JSON(http.StatusOK, gin.H{"pruned": pruned})
}
