package service

import (
	"context"

	"github.com/consently/consent-management-api/internal/database"
	"github.com/consently/consent-management-api/internal/models"
)

// WidgetConfigStore reads widget configuration. Implemented by dao.WidgetConfigDAO.
type WidgetConfigStore interface {
	GetByID(ctx context.Context, widgetID string) (*models.WidgetConfig, error)
	GetActivities(ctx context.Context, widgetID string) ([]models.ProcessingActivity, error)
}

// ConsentRecordStore appends and lists consent records. Implemented by dao.ConsentRecordDAO.
type ConsentRecordStore interface {
	Create(ctx context.Context, record *models.ConsentRecord) error
	CreateWithTx(ctx context.Context, tx *database.Transaction, record *models.ConsentRecord) error
	ListByVisitor(ctx context.Context, visitorID, widgetID string, limit, offset int) ([]models.ConsentRecord, int, error)
}

// PreferenceStore upserts and lists per-activity preferences. Implemented by dao.VisitorPreferenceDAO.
type PreferenceStore interface {
	Upsert(ctx context.Context, pref *models.VisitorPreference) error
	UpsertWithTx(ctx context.Context, tx *database.Transaction, pref *models.VisitorPreference) error
	ListByVisitor(ctx context.Context, visitorID, widgetID string) ([]models.VisitorPreference, error)
}

// TxRunner runs fn inside a transaction. Implemented by database.DB.
type TxRunner interface {
	WithTransaction(ctx context.Context, fn func(*database.Transaction) error) error
}
