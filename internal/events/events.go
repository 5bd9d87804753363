// Package events publishes consent lifecycle events for downstream integrations.
// Publishing is fire-and-forget from the caller's point of view: a failed publish is
// logged and never fails the request that produced the event.
package events

import (
	"context"
	"time"
)

// Event types
const (
	TypeConsentRecorded    = "consent.recorded"
	TypeConsentRevoked     = "consent.revoked"
	TypePreferencesUpdated = "preferences.updated"
)

// ConsentEvent describes one consent change. It never carries an email or its hash.
type ConsentEvent struct {
	Type               string   `json:"type"`
	RecordID           string   `json:"recordId,omitempty"`
	ConsentID          string   `json:"consentId,omitempty"`
	WidgetID           string   `json:"widgetId"`
	VisitorID          string   `json:"visitorId"`
	Status             string   `json:"status"`
	AcceptedActivities []string `json:"acceptedActivities"`
	RejectedActivities []string `json:"rejectedActivities"`
	OccurredAt         string   `json:"occurredAt"`
}

// NewConsentEvent stamps an event with the current time
func NewConsentEvent(eventType, widgetID, visitorID, status string) *ConsentEvent {
	return &ConsentEvent{
		Type:               eventType,
		WidgetID:           widgetID,
		VisitorID:          visitorID,
		Status:             status,
		AcceptedActivities: []string{},
		RejectedActivities: []string{},
		OccurredAt:         time.Now().UTC().Format(time.RFC3339),
	}
}

// Publisher sends consent events to a broker
type Publisher interface {
	Publish(ctx context.Context, event *ConsentEvent) error
	Close() error
}

// NoopPublisher drops every event
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, *ConsentEvent) error { return nil }
func (NoopPublisher) Close() error                                 { return nil }
