package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/consently/consent-management-api/internal/utils"
)

// WidgetHandler serves the public widget configuration
type WidgetHandler struct {
	widgets WidgetConfigProvider
}

// NewWidgetHandler creates a new widget handler instance
func NewWidgetHandler(widgets WidgetConfigProvider) *WidgetHandler {
	return &WidgetHandler{widgets: widgets}
}

// GetPublicConfig handles GET /api/dpdpa/widget-public/:widgetId
func (h *WidgetHandler) GetPublicConfig(c *gin.Context) {
	cfg, err := h.widgets.GetPublicConfig(c.Request.Context(), c.Param("widgetId"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.Header("Cache-Control", "public, max-age=300")
	utils.SendOKResponse(c, cfg)
}
