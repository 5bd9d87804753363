package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/consently/consent-management-api/internal/database"
	"github.com/consently/consent-management-api/internal/models"
)

// MockConsentRecordStore is a mock implementation of ConsentRecordStore
type MockConsentRecordStore struct {
	mock.Mock
}

func (m *MockConsentRecordStore) Create(ctx context.Context, record *models.ConsentRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockConsentRecordStore) CreateWithTx(ctx context.Context, tx *database.Transaction, record *models.ConsentRecord) error {
	args := m.Called(ctx, tx, record)
	return args.Error(0)
}

func (m *MockConsentRecordStore) ListByVisitor(ctx context.Context, visitorID, widgetID string, limit, offset int) ([]models.ConsentRecord, int, error) {
	args := m.Called(ctx, visitorID, widgetID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]models.ConsentRecord), args.Int(1), args.Error(2)
}
