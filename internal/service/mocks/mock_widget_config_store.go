package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/consently/consent-management-api/internal/models"
)

// MockWidgetConfigStore is a mock implementation of WidgetConfigStore
type MockWidgetConfigStore struct {
	mock.Mock
}

func (m *MockWidgetConfigStore) GetByID(ctx context.Context, widgetID string) (*models.WidgetConfig, error) {
	args := m.Called(ctx, widgetID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WidgetConfig), args.Error(1)
}

func (m *MockWidgetConfigStore) GetActivities(ctx context.Context, widgetID string) ([]models.ProcessingActivity, error) {
	args := m.Called(ctx, widgetID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ProcessingActivity), args.Error(1)
}
