package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/consently/consent-management-api/internal/config"
	"github.com/consently/consent-management-api/internal/events"
	"github.com/consently/consent-management-api/internal/metrics"
	"github.com/consently/consent-management-api/internal/models"
	internalutils "github.com/consently/consent-management-api/internal/utils"
	"github.com/consently/consent-management-api/pkg/consent"
	"github.com/consently/consent-management-api/pkg/utils"
)

// DefaultRevocationReason is stored when a revocation carries no reason
const DefaultRevocationReason = "withdrawn by visitor"

// ConsentRecordService appends consent records submitted by the widget
type ConsentRecordService struct {
	records     ConsentRecordStore
	preferences PreferenceStore
	widgets     *WidgetConfigService
	hasher      *utils.EmailHasher
	cfg         config.ConsentConfig
	events      eventSink
	metrics     *metrics.Metrics
	logger      *logrus.Logger
	now         func() time.Time
}

// NewConsentRecordService creates a new ConsentRecordService
func NewConsentRecordService(
	records ConsentRecordStore,
	preferences PreferenceStore,
	widgets *WidgetConfigService,
	hasher *utils.EmailHasher,
	cfg config.ConsentConfig,
	publisher events.Publisher,
	m *metrics.Metrics,
	logger *logrus.Logger,
) *ConsentRecordService {
	return &ConsentRecordService{
		records:     records,
		preferences: preferences,
		widgets:     widgets,
		hasher:      hasher,
		cfg:         cfg,
		events:      eventSink{publisher: publisher, metrics: m, logger: logger},
		metrics:     m,
		logger:      logger,
		now:         time.Now,
	}
}

// RecordConsent validates a widget submission and appends it as a new record.
// The visitor's per-activity preferences are mirrored best-effort afterwards.
func (s *ConsentRecordService) RecordConsent(ctx context.Context, req *models.ConsentRecordRequest) (*models.ConsentRecordCreateResponse, error) {
	if err := s.validateRecordRequest(req); err != nil {
		return nil, err
	}

	widget, err := s.widgets.GetPublicConfig(ctx, req.WidgetID)
	if err != nil {
		return nil, err
	}

	listed := append(append([]string{}, req.AcceptedActivities...), req.RejectedActivities...)
	if unknown := unknownActivities(listed, widget.ActivityIDs()); len(unknown) > 0 {
		return nil, NewValidationError(fmt.Sprintf("unknown activities for widget '%s': %s", req.WidgetID, strings.Join(unknown, ", ")))
	}

	status, err := s.resolveStatus(req)
	if err != nil {
		return nil, err
	}

	emailHash, err := hashEmail(s.hasher, req.VisitorEmail)
	if err != nil {
		return nil, err
	}

	meta := sanitizeMetadata(req.Metadata)
	if meta.DeviceType == "" || !consent.IsValidDeviceType(meta.DeviceType) {
		meta.DeviceType = consent.DeviceUnknown
	}

	now := s.now()
	nowMillis := utils.TimeToMillis(now)
	duration := utils.ClampDuration(req.ConsentDuration, s.defaultDuration(widget), s.cfg.MaxDurationDays)

	activityConsents, err := s.activityConsents(req, now)
	if err != nil {
		return nil, err
	}

	record := &models.ConsentRecord{
		ID:                 utils.GenerateID(),
		ConsentID:          utils.GenerateConsentID(),
		WidgetID:           req.WidgetID,
		VisitorID:          req.VisitorID,
		ConsentStatus:      string(status),
		AcceptedActivities: models.StringList(nonNil(req.AcceptedActivities)),
		RejectedActivities: models.StringList(nonNil(req.RejectedActivities)),
		ActivityConsents:   activityConsents,
		VisitorEmailHash:   emailHash,
		DeviceType:         meta.DeviceType,
		Browser:            meta.Browser,
		OS:                 meta.OS,
		Language:           meta.Language,
		CreatedTime:        nowMillis,
		ExpiresAt:          utils.AddDays(nowMillis, duration),
	}
	if status == consent.StatusRevoked {
		reason := strings.TrimSpace(req.RevocationReason)
		if reason == "" {
			reason = DefaultRevocationReason
		}
		record.RevokedAt = &nowMillis
		record.RevocationReason = &reason
	}

	if err := s.records.Create(ctx, record); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"widgetId":  req.WidgetID,
			"visitorId": req.VisitorID,
		}).Error("Failed to create consent record")
		return nil, NewDatabaseError("Failed to record consent", err)
	}
	if s.metrics != nil {
		s.metrics.ConsentRecords.WithLabelValues(record.ConsentStatus).Inc()
	}

	s.logger.WithFields(logrus.Fields{
		"consentId": record.ConsentID,
		"widgetId":  record.WidgetID,
		"status":    record.ConsentStatus,
	}).Info("Consent recorded")

	s.mirrorPreferences(ctx, record, widget, meta)

	eventType := events.TypeConsentRecorded
	if status == consent.StatusRevoked {
		eventType = events.TypeConsentRevoked
	}
	event := events.NewConsentEvent(eventType, record.WidgetID, record.VisitorID, record.ConsentStatus)
	event.RecordID = record.ID
	event.ConsentID = record.ConsentID
	event.AcceptedActivities = record.AcceptedActivities
	event.RejectedActivities = record.RejectedActivities
	s.events.publish(ctx, event)

	return &models.ConsentRecordCreateResponse{
		Success:   true,
		ConsentID: record.ConsentID,
		RecordID:  record.ID,
		Status:    record.ConsentStatus,
		ExpiresAt: utils.FormatMillis(record.ExpiresAt),
	}, nil
}

// ListRecords returns a page of a visitor's consent history for a widget, newest first
func (s *ConsentRecordService) ListRecords(ctx context.Context, visitorID, widgetID string, limit, offset int) (*models.ConsentRecordListResponse, error) {
	if err := utils.ValidateVisitorID(visitorID); err != nil {
		return nil, NewValidationError(err.Error())
	}
	if err := utils.ValidateWidgetID(widgetID); err != nil {
		return nil, NewValidationError(err.Error())
	}

	page := internalutils.NewPaginationParams(limit, offset)
	records, total, err := s.records.ListByVisitor(ctx, visitorID, widgetID, page.Limit, page.Offset)
	if err != nil {
		s.logger.WithError(err).WithField("visitorId", visitorID).Error("Failed to list consent records")
		return nil, NewDatabaseError("Failed to list consent records", err)
	}

	data := make([]models.ConsentRecordResponse, 0, len(records))
	for i := range records {
		data = append(data, toRecordResponse(&records[i]))
	}
	return &models.ConsentRecordListResponse{
		Data:     data,
		Metadata: *internalutils.CalculatePaginationMetadata(total, page.Limit, page.Offset),
	}, nil
}

func (s *ConsentRecordService) validateRecordRequest(req *models.ConsentRecordRequest) error {
	if req == nil {
		return NewValidationError("request body is required")
	}
	if err := utils.ValidateWidgetID(req.WidgetID); err != nil {
		return NewValidationError(err.Error())
	}
	if err := utils.ValidateVisitorID(req.VisitorID); err != nil {
		return NewValidationError(err.Error())
	}

	seen := map[string]string{}
	check := func(field string, ids []string) error {
		for _, id := range ids {
			if err := utils.ValidateActivityID(id); err != nil {
				return NewValidationError(fmt.Sprintf("%s: %v", field, err))
			}
			if prev, dup := seen[id]; dup {
				if prev == field {
					return NewValidationError(fmt.Sprintf("activity '%s' is listed more than once in %s", id, field))
				}
				return NewValidationError(fmt.Sprintf("activity '%s' is listed in both %s and %s", id, prev, field))
			}
			seen[id] = field
		}
		return nil
	}
	if err := check("acceptedActivities", req.AcceptedActivities); err != nil {
		return err
	}
	if err := check("rejectedActivities", req.RejectedActivities); err != nil {
		return err
	}

	revoking := strings.EqualFold(strings.TrimSpace(req.ConsentStatus), string(consent.StatusRevoked))
	if len(seen) == 0 && !revoking {
		return NewValidationError("at least one accepted or rejected activity is required")
	}
	if req.ConsentDuration < 0 {
		return NewValidationError("consentDuration must not be negative")
	}
	return nil
}

// resolveStatus derives the overall status from the activity arrays. A client may only
// override the derivation to revoke.
func (s *ConsentRecordService) resolveStatus(req *models.ConsentRecordRequest) (consent.Status, error) {
	derived := consent.DeriveSubmissionStatus(len(req.AcceptedActivities), len(req.RejectedActivities))
	if strings.TrimSpace(req.ConsentStatus) == "" {
		return derived, nil
	}

	claimed, err := consent.ParseStatus(req.ConsentStatus)
	if err != nil {
		return "", NewInvalidStatusError(err.Error())
	}
	if claimed == consent.StatusRevoked {
		return claimed, nil
	}
	if claimed != derived {
		s.logger.WithFields(logrus.Fields{
			"widgetId": req.WidgetID,
			"claimed":  claimed,
			"derived":  derived,
		}).Debug("Submitted consent status differs from derived status")
	}
	return derived, nil
}

func (s *ConsentRecordService) defaultDuration(widget *models.PublicWidgetConfig) int {
	if widget.ConsentDuration > 0 {
		return widget.ConsentDuration
	}
	return s.cfg.DefaultDurationDays
}

type activityDecision struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// activityConsents keeps a client supplied per-activity map, or builds one from the arrays
func (s *ConsentRecordService) activityConsents(req *models.ConsentRecordRequest, now time.Time) (models.JSON, error) {
	raw := bytes.TrimSpace(req.ActivityConsents)
	if len(raw) > 0 && !bytes.Equal(raw, []byte("null")) {
		var probe map[string]json.RawMessage
		if err := json.Unmarshal(raw, &probe); err != nil {
			return nil, NewValidationError("activityConsents must be a JSON object")
		}
		return models.JSON(raw), nil
	}

	stamp := utils.FormatTime(now)
	decisions := make(map[string]activityDecision, len(req.AcceptedActivities)+len(req.RejectedActivities))
	for _, id := range req.AcceptedActivities {
		decisions[id] = activityDecision{Status: string(consent.DecisionAccepted), Timestamp: stamp}
	}
	for _, id := range req.RejectedActivities {
		decisions[id] = activityDecision{Status: string(consent.DecisionRejected), Timestamp: stamp}
	}
	encoded, err := json.Marshal(decisions)
	if err != nil {
		return nil, fmt.Errorf("failed to encode activity consents: %w", err)
	}
	return models.JSON(encoded), nil
}

// mirrorPreferences copies a recorded submission into the per-activity preference rows.
// A revocation withdraws the listed activities, or every activity of the widget when none is listed.
func (s *ConsentRecordService) mirrorPreferences(ctx context.Context, record *models.ConsentRecord, widget *models.PublicWidgetConfig, meta models.RequestMetadata) {
	statuses := map[string]consent.PreferenceStatus{}
	order := []string{}
	set := func(ids []string, status consent.PreferenceStatus) {
		for _, id := range ids {
			if _, ok := statuses[id]; !ok {
				order = append(order, id)
			}
			statuses[id] = status
		}
	}

	if record.ConsentStatus == string(consent.StatusRevoked) {
		listed := append(append([]string{}, record.AcceptedActivities...), record.RejectedActivities...)
		if len(listed) == 0 {
			listed = widget.ActivityIDs()
		}
		set(listed, consent.PreferenceWithdrawn)
	} else {
		set(record.AcceptedActivities, consent.PreferenceAccepted)
		set(record.RejectedActivities, consent.PreferenceRejected)
	}

	for _, id := range order {
		pref := &models.VisitorPreference{
			ID:               utils.GenerateID(),
			VisitorID:        record.VisitorID,
			WidgetID:         record.WidgetID,
			ActivityID:       id,
			ConsentStatus:    string(statuses[id]),
			VisitorEmailHash: record.VisitorEmailHash,
			DeviceType:       meta.DeviceType,
			Browser:          meta.Browser,
			OS:               meta.OS,
			Language:         meta.Language,
			ExpiresAt:        record.ExpiresAt,
			LastUpdated:      record.CreatedTime,
			CreatedTime:      record.CreatedTime,
		}
		if err := s.preferences.Upsert(ctx, pref); err != nil {
			s.countUpsert(models.PreferenceResultFailed)
			s.logger.WithError(err).WithFields(logrus.Fields{
				"consentId":  record.ConsentID,
				"activityId": id,
			}).Warn("Failed to mirror consent into visitor preferences")
			continue
		}
		s.countUpsert(models.PreferenceResultUpdated)
	}
}

func (s *ConsentRecordService) countUpsert(result string) {
	if s.metrics != nil {
		s.metrics.PreferenceUpserts.WithLabelValues(result).Inc()
	}
}

func toRecordResponse(r *models.ConsentRecord) models.ConsentRecordResponse {
	resp := models.ConsentRecordResponse{
		ID:                 r.ID,
		ConsentID:          r.ConsentID,
		WidgetID:           r.WidgetID,
		VisitorID:          r.VisitorID,
		ConsentStatus:      r.ConsentStatus,
		AcceptedActivities: nonNil(r.AcceptedActivities),
		RejectedActivities: nonNil(r.RejectedActivities),
		ActivityConsents:   r.ActivityConsents,
		Metadata: models.RequestMetadata{
			DeviceType: r.DeviceType,
			Browser:    r.Browser,
			OS:         r.OS,
			Language:   r.Language,
		},
		CreatedAt: utils.FormatMillis(r.CreatedTime),
		ExpiresAt: utils.FormatMillis(r.ExpiresAt),
	}
	if r.RevokedAt != nil {
		resp.RevokedAt = utils.FormatMillis(*r.RevokedAt)
	}
	if r.RevocationReason != nil {
		resp.RevocationReason = *r.RevocationReason
	}
	return resp
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
