package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/consently/consent-management-api/internal/database"
	"github.com/consently/consent-management-api/internal/models"
)

// MockPreferenceStore is a mock implementation of PreferenceStore
type MockPreferenceStore struct {
	mock.Mock
}

func (m *MockPreferenceStore) Upsert(ctx context.Context, pref *models.VisitorPreference) error {
	args := m.Called(ctx, pref)
	return args.Error(0)
}

func (m *MockPreferenceStore) UpsertWithTx(ctx context.Context, tx *database.Transaction, pref *models.VisitorPreference) error {
	args := m.Called(ctx, tx, pref)
	return args.Error(0)
}

func (m *MockPreferenceStore) ListByVisitor(ctx context.Context, visitorID, widgetID string) ([]models.VisitorPreference, error) {
	args := m.Called(ctx, visitorID, widgetID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.VisitorPreference), args.Error(1)
}
