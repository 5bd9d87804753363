package models

// ConsentRecord represents the append-only DPDPA_CONSENT_RECORD table
type ConsentRecord struct {
	ID                 string     `db:"ID"`
	ConsentID          string     `db:"CONSENT_ID"`
	WidgetID           string     `db:"WIDGET_ID"`
	VisitorID          string     `db:"VISITOR_ID"`
	ConsentStatus      string     `db:"CONSENT_STATUS"`
	AcceptedActivities StringList `db:"ACCEPTED_ACTIVITIES"`
	RejectedActivities StringList `db:"REJECTED_ACTIVITIES"`
	ActivityConsents   JSON       `db:"ACTIVITY_CONSENTS"`
	VisitorEmailHash   *string    `db:"VISITOR_EMAIL_HASH"`
	DeviceType         string     `db:"DEVICE_TYPE"`
	Browser            string     `db:"BROWSER"`
	OS                 string     `db:"OS"`
	Language           string     `db:"LANGUAGE"`
	CreatedTime        int64      `db:"CREATED_TIME"`
	ExpiresAt          int64      `db:"EXPIRES_AT"`
	RevokedAt          *int64     `db:"REVOKED_AT"`
	RevocationReason   *string    `db:"REVOCATION_REASON"`
}

// RequestMetadata describes the device a decision was made on
type RequestMetadata struct {
	DeviceType string `json:"deviceType,omitempty"`
	Browser    string `json:"browser,omitempty"`
	OS         string `json:"os,omitempty"`
	Language   string `json:"language,omitempty"`
	UserAgent  string `json:"userAgent,omitempty"`
}

// ConsentRecordRequest is the body of POST /api/dpdpa/consent-record
type ConsentRecordRequest struct {
	WidgetID           string          `json:"widgetId"`
	VisitorID          string          `json:"visitorId"`
	VisitorEmail       string          `json:"visitorEmail,omitempty"`
	ConsentStatus      string          `json:"consentStatus"`
	AcceptedActivities []string        `json:"acceptedActivities"`
	RejectedActivities []string        `json:"rejectedActivities"`
	ActivityConsents   JSON            `json:"activityConsents,omitempty"`
	Metadata           RequestMetadata `json:"metadata"`
	ConsentDuration    int             `json:"consentDuration,omitempty"`
	RevocationReason   string          `json:"revocationReason,omitempty"`
}

// ConsentRecordCreateResponse is returned after a submission is recorded
type ConsentRecordCreateResponse struct {
	Success   bool   `json:"success"`
	ConsentID string `json:"consentId"`
	RecordID  string `json:"recordId"`
	Status    string `json:"status"`
	ExpiresAt string `json:"expiresAt"`
}

// ConsentRecordResponse is the API view of a stored record. The email hash is never exposed.
type ConsentRecordResponse struct {
	ID                 string          `json:"id"`
	ConsentID          string          `json:"consentId"`
	WidgetID           string          `json:"widgetId"`
	VisitorID          string          `json:"visitorId"`
	ConsentStatus      string          `json:"consentStatus"`
	AcceptedActivities []string        `json:"acceptedActivities"`
	RejectedActivities []string        `json:"rejectedActivities"`
	ActivityConsents   JSON            `json:"activityConsents,omitempty"`
	Metadata           RequestMetadata `json:"metadata"`
	CreatedAt          string          `json:"createdAt"`
	ExpiresAt          string          `json:"expiresAt"`
	RevokedAt          string          `json:"revokedAt,omitempty"`
	RevocationReason   string          `json:"revocationReason,omitempty"`
}

// ConsentRecordListResponse is a page of a visitor's consent history
type ConsentRecordListResponse struct {
	Data     []ConsentRecordResponse `json:"data"`
	Metadata PaginationMetadata      `json:"metadata"`
}
