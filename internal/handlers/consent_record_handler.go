package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/consently/consent-management-api/internal/models"
	"github.com/consently/consent-management-api/internal/utils"
)

// ConsentRecordHandler handles consent record HTTP requests
type ConsentRecordHandler struct {
	records ConsentRecorder
}

// NewConsentRecordHandler creates a new consent record handler instance
func NewConsentRecordHandler(records ConsentRecorder) *ConsentRecordHandler {
	return &ConsentRecordHandler{records: records}
}

// RecordConsent handles POST /api/dpdpa/consent-record
func (h *ConsentRecordHandler) RecordConsent(c *gin.Context) {
	var req models.ConsentRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendBadRequestError(c, "Invalid request body", err.Error())
		return
	}

	resp, err := h.records.RecordConsent(c.Request.Context(), &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	utils.SendCreatedResponse(c, resp)
}

// ListRecords handles GET /api/dpdpa/consent-record
func (h *ConsentRecordHandler) ListRecords(c *gin.Context) {
	limit, err := queryInt(c, "limit")
	if err != nil {
		utils.SendValidationError(c, "limit must be an integer")
		return
	}
	offset, err := queryInt(c, "offset")
	if err != nil {
		utils.SendValidationError(c, "offset must be an integer")
		return
	}

	resp, err := h.records.ListRecords(c.Request.Context(), c.Query("visitorId"), c.Query("widgetId"), limit, offset)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	utils.SendOKResponse(c, resp)
}

// queryInt parses an optional integer query parameter; absent means zero
func queryInt(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
