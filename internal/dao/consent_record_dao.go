package dao

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/consently/consent-management-api/internal/database"
	"github.com/consently/consent-management-api/internal/models"
)

// ConsentRecordDAO handles the append-only consent record log. Records are never updated.
type ConsentRecordDAO struct {
	db *database.DB
}

// NewConsentRecordDAO creates a new ConsentRecordDAO instance
func NewConsentRecordDAO(db *database.DB) *ConsentRecordDAO {
	return &ConsentRecordDAO{db: db}
}

// Create appends a consent record
func (dao *ConsentRecordDAO) Create(ctx context.Context, record *models.ConsentRecord) error {
	return dao.create(ctx, dao.db, record)
}

// CreateWithTx appends a consent record using a transaction
func (dao *ConsentRecordDAO) CreateWithTx(ctx context.Context, tx *database.Transaction, record *models.ConsentRecord) error {
	return dao.create(ctx, tx, record)
}

func (dao *ConsentRecordDAO) create(ctx context.Context, exec sqlx.ExecerContext, record *models.ConsentRecord) error {
	_, err := exec.ExecContext(
		ctx,
		resolve(dao.db, QueryInsertConsentRecord),
		record.ID,
		record.ConsentID,
		record.WidgetID,
		record.VisitorID,
		record.ConsentStatus,
		record.AcceptedActivities,
		record.RejectedActivities,
		record.ActivityConsents,
		record.VisitorEmailHash,
		record.DeviceType,
		record.Browser,
		record.OS,
		record.Language,
		record.CreatedTime,
		record.ExpiresAt,
		record.RevokedAt,
		record.RevocationReason,
	)
	if err != nil {
		return fmt.Errorf("failed to create consent record: %w", err)
	}
	return nil
}

// ListByVisitor returns a page of a visitor's records for a widget, newest first, and the total count
func (dao *ConsentRecordDAO) ListByVisitor(ctx context.Context, visitorID, widgetID string, limit, offset int) ([]models.ConsentRecord, int, error) {
	var total int
	if err := dao.db.GetContext(ctx, &total, resolve(dao.db, QueryCountConsentRecords), visitorID, widgetID); err != nil {
		return nil, 0, fmt.Errorf("failed to count consent records: %w", err)
	}

	records := []models.ConsentRecord{}
	if total == 0 {
		return records, 0, nil
	}
	err := dao.db.SelectContext(ctx, &records, resolve(dao.db, QueryListConsentRecords), visitorID, widgetID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list consent records: %w", err)
	}
	return records, total, nil
}
