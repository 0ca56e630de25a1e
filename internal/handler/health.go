package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Payphone-Digital/content-api/internal/constants"
	"github.com/Payphone-Digital/content-api/pkg/health"
	"github.com/Payphone-Digital/content-api/pkg/logger"
)

type HealthHandler struct {
	monitor *health.Monitor
}

type HealthCheckResponse struct {
	Status    health.Status                 `json:"status"`
	Version   string                        `json:"version"`
	Timestamp time.Time                     `json:"timestamp"`
	Checks    map[string]health.CheckResult `json:"checks,omitempty"`
}

func NewHealthHandler(monitor *health.Monitor) *HealthHandler {
	return &HealthHandler{monitor: monitor}
}

// BasicHealth answers as long as the process serves requests
func (h *HealthHandler) BasicHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthCheckResponse{
		Status:    health.StatusHealthy,
		Version:   constants.AppVersion,
		Timestamp: time.Now().UTC(),
	})
}

// Readiness checks the dependencies. Only critical ones turn it into a 503.
func (h *HealthHandler) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	report := h.monitor.CheckAll(ctx)
	statusCode := http.StatusOK
	if !report.Healthy() {
		statusCode = http.StatusServiceUnavailable
	}

	logger.GetLogger().Debug("Health check performed",
		zap.String("overall_status", report.Status.String()),
		zap.Int("status_code", statusCode),
	)

	c.JSON(statusCode, HealthCheckResponse{
		Status:    report.Status,
		Version:   constants.AppVersion,
		Timestamp: time.Now().UTC(),
		Checks:    report.Checks,
	})
}
