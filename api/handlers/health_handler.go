package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mediagrab/media-relay/internal/app"
)

// Version is the relay version reported by /health
var Version = "1.0.0"

// HealthHandler handles health check requests
type HealthHandler struct {
	service *app.ExtractionService
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(service *app.ExtractionService) *HealthHandler {
	return &HealthHandler{
		service: service,
	}
}

// HealthResponse represents a health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: Version,
	})
}

// Ready handles GET /ready. The relay is ready when the extraction tool runs.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	version, err := h.service.ToolVersion(ctx)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "extraction tool unavailable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":       "ready",
		"tool_version": version,
	})
}
