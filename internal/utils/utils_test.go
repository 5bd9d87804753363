package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/consently/consent-management-api/internal/models"
)

func TestNewPaginationParams(t *testing.T) {
	tests := []struct {
		name           string
		limit, offset  int
		expectedLimit  int
		expectedOffset int
	}{
		{"defaults", 0, 0, 20, 0},
		{"negative offset", 10, -5, 10, 0},
		{"capped limit", 500, 40, 100, 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPaginationParams(tt.limit, tt.offset)
			assert.Equal(t, tt.expectedLimit, p.Limit)
			assert.Equal(t, tt.expectedOffset, p.Offset)
		})
	}
}

func TestCalculatePaginationMetadata(t *testing.T) {
	meta := CalculatePaginationMetadata(45, 20, 20)
	assert.Equal(t, 45, meta.Total)
	assert.Equal(t, 3, meta.TotalPages)
	assert.True(t, meta.HasMore)

	last := CalculatePaginationMetadata(45, 20, 40)
	assert.False(t, last.HasMore)

	empty := CalculatePaginationMetadata(0, 20, 0)
	assert.Equal(t, 0, empty.TotalPages)
	assert.False(t, empty.HasMore)
}

func TestSendErrorResponse_CarriesCorrelationID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("correlationID", "corr-123")

	SendValidationError(c, "widgetId: widget ID is required")

	require.Equal(t, http.StatusBadRequest, w.Code)
	var body models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, models.ErrCodeValidationError, body.Code)
	assert.Equal(t, "widgetId: widget ID is required", body.Details)
	assert.Equal(t, "corr-123", body.TraceID)
}

func TestSendErrorResponse_GeneratesTraceIDWithoutMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	SendBadRequestError(c, "Invalid request body", "")

	var body models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, models.ErrCodeBadRequest, body.Code)
	assert.NotEmpty(t, body.TraceID)
	assert.Empty(t, body.Details)
}

func TestGetCorrelationIDFromContext_IgnoresNonStringValue(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Set("correlationID", 42)

	var id string
	assert.NotPanics(t, func() { id = GetCorrelationIDFromContext(c) })
	assert.NotEmpty(t, id)
	assert.NotEqual(t, "42", id)
}
