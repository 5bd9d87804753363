package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

// subjectPublisher is the part of *nats.Conn the publisher uses
type subjectPublisher interface {
	Publish(subj string, data []byte) error
}

// NATSPublisher publishes events on "<subjectBase>.<event type suffix>"
type NATSPublisher struct {
	conn        subjectPublisher
	closeFn     func()
	subjectBase string
	logger      *logrus.Logger
}

// NewNATSPublisher connects to the NATS server at url
func NewNATSPublisher(url, subjectBase string, logger *logrus.Logger) (*NATSPublisher, error) {
	conn, err := nats.Connect(url, nats.Name("consently-consent-api"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	logger.WithField("url", url).Info("Connected to NATS")
	return &NATSPublisher{
		conn:        conn,
		closeFn:     conn.Close,
		subjectBase: subjectBase,
		logger:      logger,
	}, nil
}

// Subject returns the subject an event type is published on
func (p *NATSPublisher) Subject(eventType string) string {
	// consent.recorded -> <base>.recorded
	if i := strings.LastIndex(eventType, "."); i >= 0 {
		eventType = eventType[i+1:]
	}
	return p.subjectBase + "." + eventType
}

// Publish sends the event as JSON
func (p *NATSPublisher) Publish(_ context.Context, event *ConsentEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal consent event: %w", err)
	}

	subject := p.Subject(event.Type)
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish consent event: %w", err)
	}

	p.logger.WithFields(logrus.Fields{
		"subject":   subject,
		"widgetId":  event.WidgetID,
		"visitorId": event.VisitorID,
	}).Debug("Consent event published")
	return nil
}

// Close closes the NATS connection
func (p *NATSPublisher) Close() error {
	if p.closeFn != nil {
		p.closeFn()
	}
	return nil
}
