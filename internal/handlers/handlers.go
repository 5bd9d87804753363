// Package handlers exposes the consent services over HTTP
package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/consently/consent-management-api/internal/models"
	"github.com/consently/consent-management-api/internal/service"
	"github.com/consently/consent-management-api/internal/utils"
)

// WidgetConfigProvider is implemented by service.WidgetConfigService
type WidgetConfigProvider interface {
	GetPublicConfig(ctx context.Context, widgetID string) (*models.PublicWidgetConfig, error)
}

// ConsentRecorder is implemented by service.ConsentRecordService
type ConsentRecorder interface {
	RecordConsent(ctx context.Context, req *models.ConsentRecordRequest) (*models.ConsentRecordCreateResponse, error)
	ListRecords(ctx context.Context, visitorID, widgetID string, limit, offset int) (*models.ConsentRecordListResponse, error)
}

// PreferenceManager is implemented by service.PreferenceSyncService
type PreferenceManager interface {
	UpdatePreferences(ctx context.Context, req *models.PreferenceUpdateRequest) (*models.PreferenceUpdateResponse, error)
	GetPreferences(ctx context.Context, visitorID, widgetID string) (*models.PreferencesResponse, error)
	WithdrawAll(ctx context.Context, visitorID, widgetID, reason string) (*models.WithdrawResponse, error)
}

// handleServiceError maps a service error to its HTTP status. Server-side causes are never
// written to the response.
func handleServiceError(c *gin.Context, err error) {
	svcErr := service.AsServiceError(err)
	details := svcErr.Details
	if svcErr.Type == service.ServerErrorType {
		details = ""
	}
	utils.SendErrorResponse(c, models.HTTPStatusForErrorCode(svcErr.Code), svcErr.Code, svcErr.Message, details)
}
