package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/consently/consent-management-api/internal/events"
	"github.com/consently/consent-management-api/internal/metrics"
	"github.com/consently/consent-management-api/internal/models"
	"github.com/consently/consent-management-api/pkg/utils"
)

const maxMetadataLength = 255

// sanitizeMetadata trims metadata fields and bounds their length
func sanitizeMetadata(meta models.RequestMetadata) models.RequestMetadata {
	return models.RequestMetadata{
		DeviceType: truncate(utils.SanitizeString(meta.DeviceType)),
		Browser:    truncate(utils.SanitizeString(meta.Browser)),
		OS:         truncate(utils.SanitizeString(meta.OS)),
		Language:   truncate(utils.SanitizeString(meta.Language)),
		UserAgent:  utils.SanitizeString(meta.UserAgent),
	}
}

// truncate cuts value to maxMetadataLength characters, never inside a multi-byte rune
func truncate(value string) string {
	if utils.ValidateMaxLength("metadata", value, maxMetadataLength) == nil {
		return value
	}
	return string([]rune(value)[:maxMetadataLength])
}

// hashEmail validates and hashes an optional email. An empty email yields nil.
func hashEmail(hasher *utils.EmailHasher, email string) (*string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, nil
	}
	if err := utils.ValidateEmail(email); err != nil {
		return nil, NewValidationError(fmt.Sprintf("visitorEmail: %v", err))
	}
	digest, err := hasher.Hash(email)
	if err != nil {
		return nil, &ServiceError{
			Code:    models.ErrCodeInternalError,
			Type:    ServerErrorType,
			Message: "Failed to hash visitor email",
			Err:     err,
		}
	}
	return &digest, nil
}

// unknownActivities returns the ids not present in known, in input order
func unknownActivities(ids []string, known []string) []string {
	set := make(map[string]struct{}, len(known))
	for _, id := range known {
		set[id] = struct{}{}
	}
	unknown := []string{}
	for _, id := range ids {
		if _, ok := set[id]; !ok {
			unknown = append(unknown, id)
		}
	}
	return unknown
}

// eventSink publishes events without ever failing the caller
type eventSink struct {
	publisher events.Publisher
	metrics   *metrics.Metrics
	logger    *logrus.Logger
}

func (e eventSink) publish(ctx context.Context, event *events.ConsentEvent) {
	if e.publisher == nil {
		return
	}
	if err := e.publisher.Publish(ctx, event); err != nil {
		e.logger.WithError(err).WithFields(logrus.Fields{
			"eventType": event.Type,
			"widgetId":  event.WidgetID,
			"visitorId": event.VisitorID,
		}).Warn("Failed to publish consent event")
		if e.metrics != nil {
			e.metrics.EventPublishErrors.Inc()
		}
	}
}
