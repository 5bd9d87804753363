package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/consently/consent-management-api/internal/cache"
	"github.com/consently/consent-management-api/internal/dao"
	"github.com/consently/consent-management-api/internal/models"
)

func TestGetPublicConfig_ReturnsActivitiesInOrder(t *testing.T) {
	setup := NewTestSetup()

	cfg, err := setup.WidgetService.GetPublicConfig(context.Background(), testWidgetID)

	require.NoError(t, err)
	assert.Equal(t, "Your privacy", cfg.Title)
	assert.Equal(t, "Accept all", cfg.ButtonLabels.Accept)
	assert.Equal(t, []string{"act1", "act2", "act3"}, cfg.ActivityIDs())
	assert.JSONEq(t, "{}", string(cfg.Theme))
	assert.Equal(t, 1.0, testutil.ToFloat64(setup.Metrics.WidgetConfigLookups.WithLabelValues(lookupSourceDatabase)))
}

func TestGetPublicConfig_UnknownWidget(t *testing.T) {
	setup := NewTestSetup()
	setup.WidgetStore.On("GetByID", mock.Anything, "missing").
		Return(nil, fmt.Errorf("widget missing: %w", dao.ErrNotFound))

	cfg, err := setup.WidgetService.GetPublicConfig(context.Background(), "missing")

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Equal(t, models.ErrCodeWidgetNotFound, AsServiceError(err).Code)
}

func TestGetPublicConfig_InactiveWidget(t *testing.T) {
	setup := NewTestSetup()
	inactive := newTestWidget()
	inactive.WidgetID = "w2"
	inactive.IsActive = false
	setup.WidgetStore.On("GetByID", mock.Anything, "w2").Return(inactive, nil)

	_, err := setup.WidgetService.GetPublicConfig(context.Background(), "w2")

	require.Error(t, err)
	assert.Equal(t, models.ErrCodeWidgetNotFound, AsServiceError(err).Code)
	setup.WidgetStore.AssertNotCalled(t, "GetActivities", mock.Anything, "w2")
}

func TestGetPublicConfig_DatabaseError(t *testing.T) {
	setup := NewTestSetup()
	setup.WidgetStore.On("GetByID", mock.Anything, "w3").Return(nil, errors.New("connection refused"))

	_, err := setup.WidgetService.GetPublicConfig(context.Background(), "w3")

	require.Error(t, err)
	svcErr := AsServiceError(err)
	assert.Equal(t, models.ErrCodeDatabaseError, svcErr.Code)
	assert.Equal(t, ServerErrorType, svcErr.Type)
}

func TestGetPublicConfig_InvalidWidgetID(t *testing.T) {
	setup := NewTestSetup()

	_, err := setup.WidgetService.GetPublicConfig(context.Background(), "")

	require.Error(t, err)
	assert.Equal(t, models.ErrCodeValidationError, AsServiceError(err).Code)
	setup.WidgetStore.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestGetPublicConfig_ServedFromCache(t *testing.T) {
	setup := NewTestSetup()
	svc := NewWidgetConfigService(setup.WidgetStore, cache.NewMemoryCache(time.Minute), setup.Metrics, setup.Logger)

	_, err := svc.GetPublicConfig(context.Background(), testWidgetID)
	require.NoError(t, err)
	_, err = svc.GetPublicConfig(context.Background(), testWidgetID)
	require.NoError(t, err)

	setup.WidgetStore.AssertNumberOfCalls(t, "GetByID", 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(setup.Metrics.WidgetConfigLookups.WithLabelValues(lookupSourceCache)))
}
