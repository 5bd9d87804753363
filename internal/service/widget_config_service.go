package service

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/consently/consent-management-api/internal/cache"
	"github.com/consently/consent-management-api/internal/dao"
	"github.com/consently/consent-management-api/internal/metrics"
	"github.com/consently/consent-management-api/internal/models"
	"github.com/consently/consent-management-api/pkg/utils"
)

// Lookup sources reported on the widget config metric
const (
	lookupSourceCache    = "cache"
	lookupSourceDatabase = "database"
	lookupSourceMissing  = "missing"
)

// WidgetConfigService serves the public widget configuration
type WidgetConfigService struct {
	store   WidgetConfigStore
	cache   cache.WidgetConfigCache
	metrics *metrics.Metrics
	logger  *logrus.Logger
}

// NewWidgetConfigService creates a new WidgetConfigService. A nil cache disables caching.
func NewWidgetConfigService(
	store WidgetConfigStore,
	configCache cache.WidgetConfigCache,
	m *metrics.Metrics,
	logger *logrus.Logger,
) *WidgetConfigService {
	if configCache == nil {
		configCache = cache.NoopCache{}
	}
	return &WidgetConfigService{
		store:   store,
		cache:   configCache,
		metrics: m,
		logger:  logger,
	}
}

// GetPublicConfig returns the active configuration of a widget with its activities in display order
func (s *WidgetConfigService) GetPublicConfig(ctx context.Context, widgetID string) (*models.PublicWidgetConfig, error) {
	if err := utils.ValidateWidgetID(widgetID); err != nil {
		return nil, NewValidationError(err.Error())
	}

	if cfg, ok := s.cache.Get(ctx, widgetID); ok {
		s.countLookup(lookupSourceCache)
		return cfg, nil
	}

	widget, err := s.store.GetByID(ctx, widgetID)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			s.countLookup(lookupSourceMissing)
			return nil, NewWidgetNotFoundError(widgetID)
		}
		s.logger.WithError(err).WithField("widgetId", widgetID).Error("Failed to load widget config")
		return nil, NewDatabaseError("Failed to load widget config", err)
	}
	if !widget.IsActive {
		s.countLookup(lookupSourceMissing)
		return nil, NewWidgetNotFoundError(widgetID)
	}

	activities, err := s.store.GetActivities(ctx, widgetID)
	if err != nil {
		s.logger.WithError(err).WithField("widgetId", widgetID).Error("Failed to load widget activities")
		return nil, NewDatabaseError("Failed to load widget activities", err)
	}

	cfg := models.NewPublicWidgetConfig(widget, activities)
	s.cache.Set(ctx, widgetID, cfg)
	s.countLookup(lookupSourceDatabase)
	return cfg, nil
}

func (s *WidgetConfigService) countLookup(source string) {
	if s.metrics != nil {
		s.metrics.WidgetConfigLookups.WithLabelValues(source).Inc()
	}
}
