package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/consently/consent-management-api/internal/database"
)

// MockTxRunner is a mock implementation of TxRunner. Unless the expectation returns an
// error, fn is invoked with a nil transaction and its result is returned.
type MockTxRunner struct {
	mock.Mock
}

func (m *MockTxRunner) WithTransaction(ctx context.Context, fn func(*database.Transaction) error) error {
	args := m.Called(ctx)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(nil)
}
