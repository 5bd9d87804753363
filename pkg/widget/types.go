package widget

import (
	"time"

	"github.com/consently/consent-management-api/pkg/consent"
)

// ProcessingActivity is one purpose the visitor can accept or reject
type ProcessingActivity struct {
	ID              string   `json:"id"`
	Name            string   `json:"activityName"`
	Industry        string   `json:"industry,omitempty"`
	Purpose         string   `json:"purpose,omitempty"`
	DataAttributes  []string `json:"dataAttributes"`
	RetentionPeriod string   `json:"retentionPeriod,omitempty"`
}

// Theme holds the visual settings passed through to the renderer
type Theme struct {
	PrimaryColor    string `json:"primaryColor,omitempty"`
	BackgroundColor string `json:"backgroundColor,omitempty"`
	TextColor       string `json:"textColor,omitempty"`
	BorderRadius    int    `json:"borderRadius,omitempty"`
	FontFamily      string `json:"fontFamily,omitempty"`
}

// ButtonLabels are the texts of the prompt buttons
type ButtonLabels struct {
	Accept    string `json:"accept"`
	Reject    string `json:"reject"`
	Customize string `json:"customize,omitempty"`
}

// Config is the public widget configuration served for a widget id
type Config struct {
	WidgetID               string               `json:"widgetId"`
	Name                   string               `json:"name,omitempty"`
	Domain                 string               `json:"domain,omitempty"`
	Title                  string               `json:"title"`
	Message                string               `json:"message"`
	ButtonLabels           ButtonLabels         `json:"buttonLabels"`
	Theme                  Theme                `json:"theme"`
	AutoShow               bool                 `json:"autoShow"`
	ShowAfterDelay         int                  `json:"showAfterDelay"`
	RespectDNT             bool                 `json:"respectDNT"`
	ConsentDuration        int                  `json:"consentDuration"`
	ShowDataSubjectsRights bool                 `json:"showDataSubjectsRights"`
	Activities             []ProcessingActivity `json:"activities"`
}

// ShowDelay is ShowAfterDelay (milliseconds) as a duration
func (c *Config) ShowDelay() time.Duration {
	if c.ShowAfterDelay <= 0 {
		return 0
	}
	return time.Duration(c.ShowAfterDelay) * time.Millisecond
}

// ActivityConsent is the decision for one activity and when it was taken
type ActivityConsent struct {
	Status    consent.Decision `json:"status"`
	DecidedAt int64            `json:"timestamp,omitempty"`
}

// Metadata describes the visitor's device and locale
type Metadata struct {
	DeviceType string `json:"deviceType,omitempty"`
	Browser    string `json:"browser,omitempty"`
	OS         string `json:"os,omitempty"`
	Language   string `json:"language,omitempty"`
	UserAgent  string `json:"userAgent,omitempty"`
}

// ConsentSubmission is the payload posted to the consent-record endpoint
type ConsentSubmission struct {
	WidgetID           string                     `json:"widgetId"`
	VisitorID          string                     `json:"visitorId"`
	VisitorEmail       string                     `json:"visitorEmail,omitempty"`
	ConsentStatus      consent.Status             `json:"consentStatus"`
	AcceptedActivities []string                   `json:"acceptedActivities"`
	RejectedActivities []string                   `json:"rejectedActivities"`
	ActivityConsents   map[string]ActivityConsent `json:"activityConsents"`
	Metadata           Metadata                   `json:"metadata"`
	ConsentDuration    int                        `json:"consentDuration"`
}

// SubmissionResult is what the server returns for an accepted submission
type SubmissionResult struct {
	ConsentID string    `json:"consentId"`
	RecordID  string    `json:"recordId"`
	Status    string    `json:"status,omitempty"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// PersistedConsent is the locally cached last known decision for a widget
type PersistedConsent struct {
	ConsentID          string                     `json:"consentId,omitempty"`
	Status             consent.Status             `json:"status"`
	AcceptedActivities []string                   `json:"acceptedActivities"`
	RejectedActivities []string                   `json:"rejectedActivities"`
	ActivityConsents   map[string]ActivityConsent `json:"activityConsents"`
	Timestamp          int64                      `json:"timestamp"`
	ExpiresAt          int64                      `json:"expiresAt"`
}

// AppliedConsent is the payload delivered to consent-applied listeners
type AppliedConsent struct {
	Status             consent.Status             `json:"status"`
	AcceptedActivities []string                   `json:"acceptedActivities"`
	RejectedActivities []string                   `json:"rejectedActivities"`
	ActivityConsents   map[string]ActivityConsent `json:"activityConsents"`
	Timestamp          int64                      `json:"timestamp"`
}

// EventName is the name host pages subscribe to for applied consent
const EventName = "consentlyDPDPAConsent"

// ConsentKey returns the local storage key of the persisted consent for a widget
func ConsentKey(widgetID string) string {
	return "consently_dpdpa_consent_" + widgetID
}
