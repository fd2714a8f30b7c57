package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"partflow/internal/models"
	"partflow/internal/orchestrator"
	"partflow/internal/util"
)

// Ingester runs one ingestion; *orchestrator.Orchestrator satisfies it.
type Ingester interface {
	Ingest(ctx context.Context, req orchestrator.Request) models.IngestionResult
}

// Handler contains HTTP handlers
type Handler struct {
	ingester Ingester
}

// NewHandler creates a new HTTP handler
func NewHandler(ingester Ingester) *Handler {
	return &Handler{ingester: ingester}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/ingest", h.ingest)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// ingest runs one ingestion synchronously and returns its result.
func (h *Handler) ingest(c *gin.Context) {
	var req orchestrator.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}
	if req.Supplier == "" || req.Key == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "supplier and key are required",
		})
		return
	}

	result := h.ingester.Ingest(c.Request.Context(), req)
	c.JSON(statusCode(result), result)
}

// statusCode maps an ingestion result onto an HTTP status.
func statusCode(result models.IngestionResult) int {
	switch result.Status {
	case models.StatusCreated:
		return http.StatusCreated
	case models.StatusExisting:
		return http.StatusOK
	default:
		if errors.Is(result.Err, models.ErrNotFound) {
			return http.StatusNotFound
		}
		var cfgErr *models.ConfigError
		if errors.As(result.Err, &cfgErr) {
			return http.StatusUnprocessableEntity
		}
		return http.StatusBadGateway
	}
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
