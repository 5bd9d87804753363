package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/consently/consent-management-api/internal/models"
	"github.com/consently/consent-management-api/internal/utils"
	pkgutils "github.com/consently/consent-management-api/pkg/utils"
)

const healthCheckTimeout = 2 * time.Second

// HealthChecker is implemented by database.DB
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandler reports liveness and database reachability
type HealthHandler struct {
	db     HealthChecker
	logger *logrus.Logger
}

// NewHealthHandler creates a new health handler instance
func NewHealthHandler(db HealthChecker, logger *logrus.Logger) *HealthHandler {
	return &HealthHandler{db: db, logger: logger}
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	resp := models.HealthResponse{
		Status:   "healthy",
		Database: "up",
		Time:     pkgutils.FormatTime(time.Now()),
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()
	if err := h.db.HealthCheck(ctx); err != nil {
		h.logger.WithError(err).Warn("Health check failed")
		resp.Status = "unhealthy"
		resp.Database = "down"
		utils.SendSuccessResponse(c, http.StatusServiceUnavailable, resp)
		return
	}
	utils.SendOKResponse(c, resp)
}
