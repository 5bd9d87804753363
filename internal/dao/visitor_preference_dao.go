package dao

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/consently/consent-management-api/internal/database"
	"github.com/consently/consent-management-api/internal/models"
)

// VisitorPreferenceDAO handles per-activity visitor preferences
type VisitorPreferenceDAO struct {
	db *database.DB
}

// NewVisitorPreferenceDAO creates a new VisitorPreferenceDAO instance
func NewVisitorPreferenceDAO(db *database.DB) *VisitorPreferenceDAO {
	return &VisitorPreferenceDAO{db: db}
}

// Upsert inserts the preference or overwrites the row with the same
// (visitor, widget, activity). The last write wins.
func (dao *VisitorPreferenceDAO) Upsert(ctx context.Context, pref *models.VisitorPreference) error {
	return dao.upsert(ctx, dao.db, pref)
}

// UpsertWithTx upserts a preference using a transaction
func (dao *VisitorPreferenceDAO) UpsertWithTx(ctx context.Context, tx *database.Transaction, pref *models.VisitorPreference) error {
	return dao.upsert(ctx, tx, pref)
}

func (dao *VisitorPreferenceDAO) upsert(ctx context.Context, exec sqlx.ExecerContext, pref *models.VisitorPreference) error {
	_, err := exec.ExecContext(
		ctx,
		resolve(dao.db, QueryUpsertPreference),
		pref.ID,
		pref.VisitorID,
		pref.WidgetID,
		pref.ActivityID,
		pref.ConsentStatus,
		pref.VisitorEmailHash,
		pref.DeviceType,
		pref.Browser,
		pref.OS,
		pref.Language,
		pref.ExpiresAt,
		pref.LastUpdated,
		pref.CreatedTime,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert preference for activity %s: %w", pref.ActivityID, err)
	}
	return nil
}

// ListByVisitor returns every stored preference of a visitor for a widget
func (dao *VisitorPreferenceDAO) ListByVisitor(ctx context.Context, visitorID, widgetID string) ([]models.VisitorPreference, error) {
	prefs := []models.VisitorPreference{}
	if err := dao.db.SelectContext(ctx, &prefs, resolve(dao.db, QueryListPreferences), visitorID, widgetID); err != nil {
		return nil, fmt.Errorf("failed to list preferences: %w", err)
	}
	return prefs, nil
}
