package dao

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/consently/consent-management-api/internal/database"
	"github.com/consently/consent-management-api/internal/models"
)

// ErrNotFound is returned when a lookup matches no row
var ErrNotFound = errors.New("not found")

// WidgetConfigDAO reads widget configurations and their processing activities
type WidgetConfigDAO struct {
	db *database.DB
}

// NewWidgetConfigDAO creates a new WidgetConfigDAO instance
func NewWidgetConfigDAO(db *database.DB) *WidgetConfigDAO {
	return &WidgetConfigDAO{db: db}
}

// GetByID retrieves a widget config by ID
func (dao *WidgetConfigDAO) GetByID(ctx context.Context, widgetID string) (*models.WidgetConfig, error) {
	var widget models.WidgetConfig
	err := dao.db.GetContext(ctx, &widget, resolve(dao.db, QueryGetWidgetConfig), widgetID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("widget %s: %w", widgetID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get widget config: %w", err)
	}
	return &widget, nil
}

// GetActivities retrieves the active processing activities of a widget in display order
func (dao *WidgetConfigDAO) GetActivities(ctx context.Context, widgetID string) ([]models.ProcessingActivity, error) {
	activities := []models.ProcessingActivity{}
	if err := dao.db.SelectContext(ctx, &activities, resolve(dao.db, QueryGetWidgetActivities), widgetID); err != nil {
		return nil, fmt.Errorf("failed to get widget activities: %w", err)
	}
	return activities, nil
}
