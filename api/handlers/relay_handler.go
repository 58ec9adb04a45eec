package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mediagrab/media-relay/api/middleware"
	"github.com/mediagrab/media-relay/internal/app"
	"github.com/mediagrab/media-relay/internal/domain"
	"github.com/mediagrab/media-relay/pkg/logger"
)

const (
	msgInvalidBody = "Invalid request body"
	msgSendFailed  = "Failed to send file."
)

// RelayHandler serves the analyze and download routes
type RelayHandler struct {
	service    *app.ExtractionService
	logAdapter *logger.LoggerAdapter
}

// NewRelayHandler creates a new relay handler
func NewRelayHandler(service *app.ExtractionService, logAdapter *logger.LoggerAdapter) *RelayHandler {
	return &RelayHandler{
		service:    service,
		logAdapter: logAdapter,
	}
}

// Analyze handles POST /api/analyze
func (h *RelayHandler) Analyze(c *gin.Context) {
	var req domain.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, domain.ErrorResponse{Error: msgInvalidBody})
		return
	}

	if err := domain.RequireParams("URL", req.URL); err != nil {
		h.respondError(c, err)
		return
	}
	url, err := domain.ValidateURL(req.URL)
	if err != nil {
		h.respondError(c, err)
		return
	}

	meta, err := h.service.FetchMetadata(c.Request.Context(), url)
	if err != nil {
		h.respondError(c, err, zap.String("url", url))
		return
	}

	c.JSON(http.StatusOK, domain.AnalyzeResponse{VideoInfo: meta})
}

// Download handles POST /api/download. The file is streamed from scratch
// storage and deleted once the response ends, whatever the outcome.
func (h *RelayHandler) Download(c *gin.Context) {
	var req domain.DownloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, domain.ErrorResponse{Error: msgInvalidBody})
		return
	}

	if err := domain.RequireParams("URL", req.URL, "Format", req.Format, "Title", req.Title); err != nil {
		h.respondError(c, err)
		return
	}
	url, err := domain.ValidateURL(req.URL)
	if err != nil {
		h.respondError(c, err)
		return
	}

	file, err := h.service.FetchMedia(c.Request.Context(), url, req.Format, req.Label, req.Title)
	if err != nil {
		h.respondError(c, err, zap.String("url", url), zap.String("format_id", req.Format))
		return
	}
	defer func() {
		if err := file.Release(); err != nil {
			h.logAdapter.General().Warn("Failed to remove scratch file",
				zap.String("path", file.Path), zap.Error(err))
		}
	}()

	reader, err := file.Open()
	if err != nil {
		h.respondError(c, domain.NewError(domain.KindStreamingFailed, msgSendFailed, err),
			zap.String("url", url))
		return
	}
	defer reader.Close()

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, file.Filename))
	c.Header("Content-Type", file.ContentType)
	c.Header("Content-Length", strconv.FormatInt(file.Size, 10))
	c.Status(http.StatusOK)

	written, err := io.Copy(c.Writer, reader)
	if err != nil {
		// headers are gone, the client sees a truncated body
		h.logAdapter.LogError("Streaming failed",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.String("url", url),
			zap.Int64("written", written),
			zap.Int64("size", file.Size),
			zap.Error(domain.NewError(domain.KindStreamingFailed, msgSendFailed, err)))
		c.Abort()
	}
}

// respondError maps err onto a status code and a caller-safe message.
// Server-side failures are logged with their cause.
func (h *RelayHandler) respondError(c *gin.Context, err error, fields ...zap.Field) {
	status, message := errorResponse(err)
	if status >= http.StatusInternalServerError {
		fields = append(fields,
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.String("kind", string(domain.KindOf(err))),
			zap.Error(err))
		h.logAdapter.LogError("Request failed", fields...)
	}
	c.JSON(status, domain.ErrorResponse{Error: message})
}

func errorResponse(err error) (int, string) {
	var derr *domain.Error
	if !errors.As(err, &derr) {
		return http.StatusInternalServerError, "Internal server error"
	}
	if domain.IsClientError(err) {
		return http.StatusBadRequest, derr.Message
	}
	return http.StatusInternalServerError, derr.Message
}
