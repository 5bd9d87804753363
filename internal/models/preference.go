package models

// VisitorPreference represents the VISITOR_PREFERENCE table, one row per
// (visitor, widget, activity)
type VisitorPreference struct {
	ID               string  `db:"ID"`
	VisitorID        string  `db:"VISITOR_ID"`
	WidgetID         string  `db:"WIDGET_ID"`
	ActivityID       string  `db:"ACTIVITY_ID"`
	ConsentStatus    string  `db:"CONSENT_STATUS"`
	VisitorEmailHash *string `db:"VISITOR_EMAIL_HASH"`
	DeviceType       string  `db:"DEVICE_TYPE"`
	Browser          string  `db:"BROWSER"`
	OS               string  `db:"OS"`
	Language         string  `db:"LANGUAGE"`
	ExpiresAt        int64   `db:"EXPIRES_AT"`
	LastUpdated      int64   `db:"LAST_UPDATED"`
	CreatedTime      int64   `db:"CREATED_TIME"`
}

// PreferenceItem is one per-activity update in a batch
type PreferenceItem struct {
	ActivityID    string `json:"activityId"`
	ConsentStatus string `json:"consentStatus"`
	// DeviceType overrides the batch metadata for this row
	DeviceType string `json:"deviceType,omitempty"`
}

// PreferenceUpdateRequest is the body of PATCH /api/privacy-centre/preferences
type PreferenceUpdateRequest struct {
	VisitorID    string           `json:"visitorId"`
	WidgetID     string           `json:"widgetId"`
	VisitorEmail string           `json:"visitorEmail,omitempty"`
	Preferences  []PreferenceItem `json:"preferences"`
	Metadata     RequestMetadata  `json:"metadata"`
}

// Per-item outcomes of a preference batch
const (
	PreferenceResultUpdated = "updated"
	PreferenceResultFailed  = "failed"
)

// PreferenceItemResult reports the outcome of one row of a batch
type PreferenceItemResult struct {
	ActivityID    string `json:"activityId"`
	Result        string `json:"result"`
	ConsentStatus string `json:"consentStatus,omitempty"`
	Error         string `json:"error,omitempty"`
}

// PreferenceUpdateResponse reports a batch with per-item detail
type PreferenceUpdateResponse struct {
	Success         bool                   `json:"success"`
	Message         string                 `json:"message"`
	UpdatedCount    int                    `json:"updatedCount"`
	FailedCount     int                    `json:"failedCount"`
	Results         []PreferenceItemResult `json:"results"`
	ConsentRecordID string                 `json:"consentRecordId,omitempty"`
	ConsentStatus   string                 `json:"consentStatus,omitempty"`
}

// PreferenceView is the current status of one activity for a visitor
type PreferenceView struct {
	ActivityID    string `json:"activityId"`
	ActivityName  string `json:"activityName"`
	Purpose       string `json:"purpose,omitempty"`
	ConsentStatus string `json:"consentStatus"`
	LastUpdated   string `json:"lastUpdated,omitempty"`
	ExpiresAt     string `json:"expiresAt,omitempty"`
}

// PreferencesResponse is returned by GET /api/privacy-centre/preferences
type PreferencesResponse struct {
	VisitorID   string           `json:"visitorId"`
	WidgetID    string           `json:"widgetId"`
	Preferences []PreferenceView `json:"preferences"`
}

// WithdrawResponse is returned by DELETE /api/privacy-centre/preferences
type WithdrawResponse struct {
	Success         bool   `json:"success"`
	WithdrawnCount  int    `json:"withdrawnCount"`
	ConsentRecordID string `json:"consentRecordId"`
	RevokedAt       string `json:"revokedAt"`
}
