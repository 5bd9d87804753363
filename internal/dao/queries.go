package dao

import (
	"github.com/consently/consent-management-api/internal/database"
)

// DBQuery represents a database query with an identifier. Query is written for MySQL;
// PostgresQuery is set when PostgreSQL needs different syntax.
type DBQuery struct {
	ID            string
	Query         string
	PostgresQuery string
}

// GetQuery returns the variant for the given database/sql driver name
func (d DBQuery) GetQuery(dbType string) string {
	if (dbType == "postgres" || dbType == "postgresql") && d.PostgresQuery != "" {
		return d.PostgresQuery
	}
	return d.Query
}

// resolve picks the driver variant and rebinds placeholders for it
func resolve(db *database.DB, q DBQuery) string {
	return db.Rebind(q.GetQuery(db.DriverName()))
}

const widgetColumns = `WIDGET_ID, NAME, DOMAIN, TITLE, MESSAGE, ACCEPT_LABEL, REJECT_LABEL, CUSTOMIZE_LABEL,
		THEME, AUTO_SHOW, SHOW_AFTER_DELAY, RESPECT_DNT, CONSENT_DURATION, SHOW_DATA_SUBJECTS_RIGHTS,
		IS_ACTIVE, CREATED_TIME, UPDATED_TIME`

var (
	QueryGetWidgetConfig = DBQuery{
		ID:    "DPDPA-WIDGET-01",
		Query: `SELECT ` + widgetColumns + ` FROM DPDPA_WIDGET_CONFIG WHERE WIDGET_ID = ?`,
	}

	QueryGetWidgetActivities = DBQuery{
		ID: "DPDPA-WIDGET-02",
		Query: `SELECT a.ID, a.NAME, a.INDUSTRY, a.PURPOSE, a.DATA_ATTRIBUTES, a.RETENTION_PERIOD, wa.DISPLAY_ORDER
		FROM DPDPA_WIDGET_ACTIVITY wa
		JOIN PROCESSING_ACTIVITY a ON a.ID = wa.ACTIVITY_ID
		WHERE wa.WIDGET_ID = ? AND a.IS_ACTIVE = TRUE
		ORDER BY wa.DISPLAY_ORDER, a.ID`,
	}
)

const recordColumns = `ID, CONSENT_ID, WIDGET_ID, VISITOR_ID, CONSENT_STATUS, ACCEPTED_ACTIVITIES,
		REJECTED_ACTIVITIES, ACTIVITY_CONSENTS, VISITOR_EMAIL_HASH, DEVICE_TYPE, BROWSER, OS, LANGUAGE,
		CREATED_TIME, EXPIRES_AT, REVOKED_AT, REVOCATION_REASON`

var (
	QueryInsertConsentRecord = DBQuery{
		ID: "DPDPA-RECORD-01",
		Query: `INSERT INTO DPDPA_CONSENT_RECORD (` + recordColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	}

	QueryListConsentRecords = DBQuery{
		ID: "DPDPA-RECORD-02",
		Query: `SELECT ` + recordColumns + ` FROM DPDPA_CONSENT_RECORD
		WHERE VISITOR_ID = ? AND WIDGET_ID = ?
		ORDER BY CREATED_TIME DESC, ID
		LIMIT ? OFFSET ?`,
	}

	QueryCountConsentRecords = DBQuery{
		ID:    "DPDPA-RECORD-03",
		Query: `SELECT COUNT(*) FROM DPDPA_CONSENT_RECORD WHERE VISITOR_ID = ? AND WIDGET_ID = ?`,
	}
)

const preferenceColumns = `ID, VISITOR_ID, WIDGET_ID, ACTIVITY_ID, CONSENT_STATUS, VISITOR_EMAIL_HASH,
		DEVICE_TYPE, BROWSER, OS, LANGUAGE, EXPIRES_AT, LAST_UPDATED, CREATED_TIME`

var (
	// QueryUpsertPreference keeps the original ID and CREATED_TIME of an existing row and
	// keeps a stored email hash when the update carries none.
	QueryUpsertPreference = DBQuery{
		ID: "DPDPA-PREF-01",
		Query: `INSERT INTO VISITOR_PREFERENCE (` + preferenceColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			CONSENT_STATUS = VALUES(CONSENT_STATUS),
			VISITOR_EMAIL_HASH = COALESCE(VALUES(VISITOR_EMAIL_HASH), VISITOR_EMAIL_HASH),
			DEVICE_TYPE = VALUES(DEVICE_TYPE),
			BROWSER = VALUES(BROWSER),
			OS = VALUES(OS),
			LANGUAGE = VALUES(LANGUAGE),
			EXPIRES_AT = VALUES(EXPIRES_AT),
			LAST_UPDATED = VALUES(LAST_UPDATED)`,
		PostgresQuery: `INSERT INTO VISITOR_PREFERENCE (` + preferenceColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (VISITOR_ID, WIDGET_ID, ACTIVITY_ID) DO UPDATE SET
			CONSENT_STATUS = EXCLUDED.CONSENT_STATUS,
			VISITOR_EMAIL_HASH = COALESCE(EXCLUDED.VISITOR_EMAIL_HASH, VISITOR_PREFERENCE.VISITOR_EMAIL_HASH),
			DEVICE_TYPE = EXCLUDED.DEVICE_TYPE,
			BROWSER = EXCLUDED.BROWSER,
			OS = EXCLUDED.OS,
			LANGUAGE = EXCLUDED.LANGUAGE,
			EXPIRES_AT = EXCLUDED.EXPIRES_AT,
			LAST_UPDATED = EXCLUDED.LAST_UPDATED`,
	}

	QueryListPreferences = DBQuery{
		ID: "DPDPA-PREF-02",
		Query: `SELECT ` + preferenceColumns + ` FROM VISITOR_PREFERENCE
		WHERE VISITOR_ID = ? AND WIDGET_ID = ?
		ORDER BY ACTIVITY_ID`,
	}
)
