package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/consently/consent-management-api/internal/models"
	"github.com/consently/consent-management-api/internal/service"
	"github.com/consently/consent-management-api/internal/utils"
)

// PreferenceHandler handles privacy centre preference requests
type PreferenceHandler struct {
	preferences PreferenceManager
}

// NewPreferenceHandler creates a new preference handler instance
func NewPreferenceHandler(preferences PreferenceManager) *PreferenceHandler {
	return &PreferenceHandler{preferences: preferences}
}

// GetPreferences handles GET /api/privacy-centre/preferences
func (h *PreferenceHandler) GetPreferences(c *gin.Context) {
	resp, err := h.preferences.GetPreferences(c.Request.Context(), c.Query("visitorId"), c.Query("widgetId"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	utils.SendOKResponse(c, resp)
}

// UpdatePreferences handles PATCH /api/privacy-centre/preferences.
// Responds 200 when every row was applied, 207 when some were, and with the error's
// status when none were. Per-item results are included in every batch response.
func (h *PreferenceHandler) UpdatePreferences(c *gin.Context) {
	var req models.PreferenceUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendBadRequestError(c, "Invalid request body", err.Error())
		return
	}

	resp, err := h.preferences.UpdatePreferences(c.Request.Context(), &req)
	switch {
	case err != nil && resp != nil:
		utils.SendSuccessResponse(c, models.HTTPStatusForErrorCode(service.AsServiceError(err).Code), resp)
	case err != nil:
		handleServiceError(c, err)
	case resp.FailedCount > 0:
		utils.SendMultiStatusResponse(c, resp)
	default:
		utils.SendOKResponse(c, resp)
	}
}

// WithdrawAll handles DELETE /api/privacy-centre/preferences
func (h *PreferenceHandler) WithdrawAll(c *gin.Context) {
	resp, err := h.preferences.WithdrawAll(c.Request.Context(), c.Query("visitorId"), c.Query("widgetId"), c.Query("reason"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	utils.SendOKResponse(c, resp)
}
