package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mediagrab/media-relay/api/handlers"
	"github.com/mediagrab/media-relay/api/middleware"
	"github.com/mediagrab/media-relay/internal/app"
	"github.com/mediagrab/media-relay/internal/client"
	"github.com/mediagrab/media-relay/internal/domain"
	"github.com/mediagrab/media-relay/pkg/logger"
)

// SetupRouter sets up the relay's HTTP router
func SetupRouter(service *app.ExtractionService, logAdapter *logger.LoggerAdapter) *gin.Engine {
	router := newEngine(logAdapter)

	healthHandler := handlers.NewHealthHandler(service)
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	relayHandler := handlers.NewRelayHandler(service, logAdapter)
	api := router.Group("/api")
	{
		api.POST("/analyze", relayHandler.Analyze)
		api.POST("/download", relayHandler.Download)
	}

	return router
}

// SetupGatewayRouter sets up a router exposing the same API that forwards
// every call to the relay behind c
func SetupGatewayRouter(c *client.Client, logAdapter *logger.LoggerAdapter) *gin.Engine {
	router := newEngine(logAdapter)

	router.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, handlers.HealthResponse{Status: "ok", Version: handlers.Version})
	})

	gatewayHandler := handlers.NewGatewayHandler(c, logAdapter)
	api := router.Group("/api")
	{
		api.POST("/analyze", gatewayHandler.Analyze)
		api.POST("/download", gatewayHandler.Download)
	}

	return router
}

func newEngine(logAdapter *logger.LoggerAdapter) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logAdapter))
	router.Use(middleware.Recovery(logAdapter))
	router.Use(middleware.CORS())

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, domain.ErrorResponse{Error: "not found"})
	})

	return router
}
