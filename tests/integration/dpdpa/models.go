package dpdpa

// Request and response shapes of the public DPDPA endpoints

type RequestMetadata struct {
	DeviceType string `json:"deviceType,omitempty"`
	Browser    string `json:"browser,omitempty"`
	OS         string `json:"os,omitempty"`
	Language   string `json:"language,omitempty"`
}

type Activity struct {
	ID             string   `json:"id"`
	Name           string   `json:"activityName"`
	Purpose        string   `json:"purpose"`
	DataAttributes []string `json:"dataAttributes"`
}

type WidgetConfigResponse struct {
	WidgetID        string     `json:"widgetId"`
	Title           string     `json:"title"`
	ConsentDuration int        `json:"consentDuration"`
	Activities      []Activity `json:"activities"`
}

type ConsentRecordRequest struct {
	WidgetID           string          `json:"widgetId"`
	VisitorID          string          `json:"visitorId"`
	VisitorEmail       string          `json:"visitorEmail,omitempty"`
	ConsentStatus      string          `json:"consentStatus,omitempty"`
	AcceptedActivities []string        `json:"acceptedActivities"`
	RejectedActivities []string        `json:"rejectedActivities"`
	Metadata           RequestMetadata `json:"metadata"`
	ConsentDuration    int             `json:"consentDuration,omitempty"`
}

type ConsentRecordResponse struct {
	Success   bool   `json:"success"`
	ConsentID string `json:"consentId"`
	RecordID  string `json:"recordId"`
	Status    string `json:"status"`
	ExpiresAt string `json:"expiresAt"`
}

type ConsentRecord struct {
	ID                 string          `json:"id"`
	ConsentID          string          `json:"consentId"`
	ConsentStatus      string          `json:"consentStatus"`
	AcceptedActivities []string        `json:"acceptedActivities"`
	RejectedActivities []string        `json:"rejectedActivities"`
	Metadata           RequestMetadata `json:"metadata"`
	RevokedAt          string          `json:"revokedAt"`
	RevocationReason   string          `json:"revocationReason"`
}

type ConsentRecordList struct {
	Data     []ConsentRecord `json:"data"`
	Metadata struct {
		Total   int  `json:"total"`
		Limit   int  `json:"limit"`
		Offset  int  `json:"offset"`
		HasMore bool `json:"hasMore"`
	} `json:"metadata"`
}

type PreferenceItem struct {
	ActivityID    string `json:"activityId"`
	ConsentStatus string `json:"consentStatus"`
	DeviceType    string `json:"deviceType,omitempty"`
}

type PreferenceUpdateRequest struct {
	VisitorID    string           `json:"visitorId"`
	WidgetID     string           `json:"widgetId"`
	VisitorEmail string           `json:"visitorEmail,omitempty"`
	Preferences  []PreferenceItem `json:"preferences"`
	Metadata     RequestMetadata  `json:"metadata"`
}

type PreferenceItemResult struct {
	ActivityID    string `json:"activityId"`
	Result        string `json:"result"`
	ConsentStatus string `json:"consentStatus"`
	Error         string `json:"error"`
}

type PreferenceUpdateResponse struct {
	Success         bool                   `json:"success"`
	UpdatedCount    int                    `json:"updatedCount"`
	FailedCount     int                    `json:"failedCount"`
	Results         []PreferenceItemResult `json:"results"`
	ConsentRecordID string                 `json:"consentRecordId"`
	ConsentStatus   string                 `json:"consentStatus"`
}

type PreferenceView struct {
	ActivityID    string `json:"activityId"`
	ActivityName  string `json:"activityName"`
	ConsentStatus string `json:"consentStatus"`
}

type PreferencesResponse struct {
	VisitorID   string           `json:"visitorId"`
	WidgetID    string           `json:"widgetId"`
	Preferences []PreferenceView `json:"preferences"`
}

type WithdrawResponse struct {
	Success         bool   `json:"success"`
	WithdrawnCount  int    `json:"withdrawnCount"`
	ConsentRecordID string `json:"consentRecordId"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	TraceID string `json:"traceId"`
}
