package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mediagrab/media-relay/api/middleware"
	"github.com/mediagrab/media-relay/internal/client"
	"github.com/mediagrab/media-relay/internal/domain"
	"github.com/mediagrab/media-relay/pkg/logger"
)

const (
	msgGatewayAnalyzeFailed  = "Failed to analyze video. Please try again."
	msgGatewayDownloadFailed = "Failed to process download. Please try again."
)

// GatewayHandler validates requests locally and forwards them to a relay
type GatewayHandler struct {
	client     *client.Client
	logAdapter *logger.LoggerAdapter
}

// NewGatewayHandler creates a new gateway handler
func NewGatewayHandler(c *client.Client, logAdapter *logger.LoggerAdapter) *GatewayHandler {
	return &GatewayHandler{
		client:     c,
		logAdapter: logAdapter,
	}
}

// Analyze handles POST /api/analyze
func (h *GatewayHandler) Analyze(c *gin.Context) {
	var req domain.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, domain.ErrorResponse{Error: msgInvalidBody})
		return
	}

	meta, err := h.client.Analyze(c.Request.Context(), req.URL)
	if err != nil {
		h.respondError(c, err, msgGatewayAnalyzeFailed)
		return
	}

	c.JSON(http.StatusOK, domain.AnalyzeResponse{VideoInfo: meta})
}

// Download handles POST /api/download, passing the relay's body through
func (h *GatewayHandler) Download(c *gin.Context) {
	var req domain.DownloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, domain.ErrorResponse{Error: msgInvalidBody})
		return
	}

	dl, err := h.client.Download(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err, msgGatewayDownloadFailed)
		return
	}
	defer dl.Body.Close()

	if dl.Disposition != "" {
		c.Header("Content-Disposition", dl.Disposition)
	}
	if dl.ContentType != "" {
		c.Header("Content-Type", dl.ContentType)
	}
	if dl.ContentLength >= 0 {
		c.Header("Content-Length", strconv.FormatInt(dl.ContentLength, 10))
	}
	c.Status(dl.StatusCode)

	if written, err := io.Copy(c.Writer, dl.Body); err != nil {
		h.logAdapter.LogError("Relay stream interrupted",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.Int64("written", written),
			zap.Error(err))
		c.Abort()
	}
}

// respondError passes relay errors through with their status, reports local
// validation failures as 400 and anything else as a 500 with fallback
func (h *GatewayHandler) respondError(c *gin.Context, err error, fallback string) {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		c.JSON(apiErr.StatusCode, domain.ErrorResponse{Error: apiErr.Message})
		return
	}

	if domain.IsClientError(err) {
		_, message := errorResponse(err)
		c.JSON(http.StatusBadRequest, domain.ErrorResponse{Error: message})
		return
	}

	h.logAdapter.LogError("Relay unreachable",
		zap.String("request_id", middleware.GetRequestID(c)),
		zap.String("backend", h.client.BaseURL()),
		zap.Error(err))
	c.JSON(http.StatusInternalServerError, domain.ErrorResponse{Error: fallback})
}
