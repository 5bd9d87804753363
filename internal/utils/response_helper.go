package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/consently/consent-management-api/internal/models"
	pkgutils "github.com/consently/consent-management-api/pkg/utils"
)

// SendSuccessResponse sends a successful JSON response
func SendSuccessResponse(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, data)
}

// SendErrorResponse sends an error JSON response
func SendErrorResponse(c *gin.Context, statusCode int, errCode, message, details string) {
	c.JSON(statusCode, models.ErrorResponse{
		Code:    errCode,
		Message: message,
		Details: details,
		TraceID: GetCorrelationIDFromContext(c),
	})
}

// SendCreatedResponse sends a 201 Created response
func SendCreatedResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

// SendOKResponse sends a 200 OK response
func SendOKResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// SendBadRequestError sends a 400 Bad Request error
func SendBadRequestError(c *gin.Context, message, details string) {
	SendErrorResponse(c, http.StatusBadRequest, models.ErrCodeBadRequest, message, details)
}

// SendMultiStatusResponse sends a 207 Multi-Status response for partially applied batches
func SendMultiStatusResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusMultiStatus, data)
}

// SendValidationError sends a validation error response
func SendValidationError(c *gin.Context, details string) {
	SendErrorResponse(c, http.StatusBadRequest, models.ErrCodeValidationError, "Validation failed", details)
}

// GetCorrelationIDFromContext extracts correlation ID from context
func GetCorrelationIDFromContext(c *gin.Context) string {
	if correlationID, ok := c.Get("correlationID"); ok {
		if id, ok := correlationID.(string); ok && id != "" {
			return id
		}
	}
	return pkgutils.GenerateID()
}
