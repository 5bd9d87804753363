package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/consently/consent-management-api/internal/config"
	"github.com/consently/consent-management-api/internal/database"
	"github.com/consently/consent-management-api/internal/events"
	"github.com/consently/consent-management-api/internal/metrics"
	"github.com/consently/consent-management-api/internal/models"
	"github.com/consently/consent-management-api/pkg/consent"
	"github.com/consently/consent-management-api/pkg/utils"
)

// PrivacyCentreRevocationReason is stored on records revoked from the privacy centre
const PrivacyCentreRevocationReason = "withdrawn via privacy centre"

// PreferenceSyncService keeps a visitor's per-activity preferences and the consent
// record log consistent when preferences are changed outside the widget
type PreferenceSyncService struct {
	preferences PreferenceStore
	records     ConsentRecordStore
	widgets     *WidgetConfigService
	tx          TxRunner
	hasher      *utils.EmailHasher
	cfg         config.ConsentConfig
	events      eventSink
	metrics     *metrics.Metrics
	logger      *logrus.Logger
	now         func() time.Time
}

// NewPreferenceSyncService creates a new PreferenceSyncService
func NewPreferenceSyncService(
	preferences PreferenceStore,
	records ConsentRecordStore,
	widgets *WidgetConfigService,
	tx TxRunner,
	hasher *utils.EmailHasher,
	cfg config.ConsentConfig,
	publisher events.Publisher,
	m *metrics.Metrics,
	logger *logrus.Logger,
) *PreferenceSyncService {
	return &PreferenceSyncService{
		preferences: preferences,
		records:     records,
		widgets:     widgets,
		tx:          tx,
		hasher:      hasher,
		cfg:         cfg,
		events:      eventSink{publisher: publisher, metrics: m, logger: logger},
		metrics:     m,
		logger:      logger,
		now:         time.Now,
	}
}

// UpdatePreferences applies a batch of per-activity preference changes.
//
// The batch is validated as a whole first: a malformed request or an activity that does
// not belong to the widget rejects the batch before anything is written. After that each
// row is upserted on its own and a failing row never affects the others. A consolidated
// consent record is then appended for the rows that succeeded; a failure there is logged
// and does not fail the request.
//
// When no row succeeds the response is returned together with a ServiceError so the
// caller can still report per-item detail.
func (s *PreferenceSyncService) UpdatePreferences(ctx context.Context, req *models.PreferenceUpdateRequest) (*models.PreferenceUpdateResponse, error) {
	if err := s.validateUpdateRequest(req); err != nil {
		return nil, err
	}

	widget, err := s.widgets.GetPublicConfig(ctx, req.WidgetID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(req.Preferences))
	for _, item := range req.Preferences {
		ids = append(ids, item.ActivityID)
	}
	if unknown := unknownActivities(ids, widget.ActivityIDs()); len(unknown) > 0 {
		return nil, NewValidationError(fmt.Sprintf("unknown activities for widget '%s': %s", req.WidgetID, strings.Join(unknown, ", ")))
	}

	emailHash, err := hashEmail(s.hasher, req.VisitorEmail)
	if err != nil {
		return nil, err
	}

	meta := sanitizeMetadata(req.Metadata)
	nowMillis := utils.TimeToMillis(s.now())
	expiresAt := utils.AddDays(nowMillis, s.duration(widget))

	resp := &models.PreferenceUpdateResponse{
		Results: make([]models.PreferenceItemResult, 0, len(req.Preferences)),
	}
	applied := map[string]consent.PreferenceStatus{}
	appliedOrder := []string{}
	storageFailed := false

	for _, item := range req.Preferences {
		result := models.PreferenceItemResult{ActivityID: item.ActivityID}

		status, err := consent.ParsePreferenceStatus(item.ConsentStatus)
		if err != nil {
			result.Result = models.PreferenceResultFailed
			result.Error = err.Error()
			resp.Results = append(resp.Results, result)
			continue
		}
		result.ConsentStatus = string(status)

		deviceType := meta.DeviceType
		if item.DeviceType != "" {
			deviceType = utils.SanitizeString(item.DeviceType)
		}
		if !consent.IsValidDeviceType(deviceType) {
			result.Result = models.PreferenceResultFailed
			result.Error = fmt.Sprintf("invalid device type: %q", deviceType)
			resp.Results = append(resp.Results, result)
			continue
		}

		pref := &models.VisitorPreference{
			ID:               utils.GenerateID(),
			VisitorID:        req.VisitorID,
			WidgetID:         req.WidgetID,
			ActivityID:       item.ActivityID,
			ConsentStatus:    string(status),
			VisitorEmailHash: emailHash,
			DeviceType:       deviceType,
			Browser:          meta.Browser,
			OS:               meta.OS,
			Language:         meta.Language,
			ExpiresAt:        expiresAt,
			LastUpdated:      nowMillis,
			CreatedTime:      nowMillis,
		}
		if err := s.preferences.Upsert(ctx, pref); err != nil {
			storageFailed = true
			s.countUpsert(models.PreferenceResultFailed)
			s.logger.WithError(err).WithFields(logrus.Fields{
				"widgetId":   req.WidgetID,
				"activityId": item.ActivityID,
			}).Error("Failed to upsert visitor preference")
			result.Result = models.PreferenceResultFailed
			result.Error = "failed to store preference"
			resp.Results = append(resp.Results, result)
			continue
		}

		s.countUpsert(models.PreferenceResultUpdated)
		result.Result = models.PreferenceResultUpdated
		resp.Results = append(resp.Results, result)
		applied[item.ActivityID] = status
		appliedOrder = append(appliedOrder, item.ActivityID)
	}

	resp.UpdatedCount = len(appliedOrder)
	resp.FailedCount = len(req.Preferences) - resp.UpdatedCount

	if resp.UpdatedCount == 0 {
		resp.Message = "No preferences were updated"
		if storageFailed {
			return resp, NewDatabaseError("Failed to update preferences", nil)
		}
		return resp, NewValidationError("every preference in the batch was invalid")
	}

	resp.Success = resp.FailedCount == 0
	if resp.Success {
		resp.Message = "Preferences updated"
	} else {
		resp.Message = fmt.Sprintf("%d of %d preferences updated", resp.UpdatedCount, len(req.Preferences))
	}

	summary := consent.SummarizePreferences(appliedOrder, applied)
	resp.ConsentStatus = string(summary.Status)

	record := s.derivedRecord(req.VisitorID, req.WidgetID, summary, emailHash, meta, nowMillis, expiresAt, PrivacyCentreRevocationReason)
	if err := s.records.Create(ctx, record); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"widgetId":  req.WidgetID,
			"visitorId": req.VisitorID,
		}).Warn("Failed to append consent record for preference update")
	} else {
		resp.ConsentRecordID = record.ConsentID
		if s.metrics != nil {
			s.metrics.ConsentRecords.WithLabelValues(record.ConsentStatus).Inc()
		}
	}

	eventType := events.TypePreferencesUpdated
	if summary.Status == consent.StatusRevoked {
		eventType = events.TypeConsentRevoked
	}
	event := events.NewConsentEvent(eventType, req.WidgetID, req.VisitorID, string(summary.Status))
	event.ConsentID = resp.ConsentRecordID
	event.AcceptedActivities = summary.AcceptedActivities
	event.RejectedActivities = summary.RejectedActivities
	s.events.publish(ctx, event)

	return resp, nil
}

// GetPreferences returns the visitor's status for every activity of the widget, in display
// order. Activities with no stored row are reported as not_set.
func (s *PreferenceSyncService) GetPreferences(ctx context.Context, visitorID, widgetID string) (*models.PreferencesResponse, error) {
	if err := utils.ValidateVisitorID(visitorID); err != nil {
		return nil, NewValidationError(err.Error())
	}

	widget, err := s.widgets.GetPublicConfig(ctx, widgetID)
	if err != nil {
		return nil, err
	}

	rows, err := s.preferences.ListByVisitor(ctx, visitorID, widgetID)
	if err != nil {
		s.logger.WithError(err).WithField("visitorId", visitorID).Error("Failed to list visitor preferences")
		return nil, NewDatabaseError("Failed to load preferences", err)
	}
	stored := make(map[string]*models.VisitorPreference, len(rows))
	for i := range rows {
		stored[rows[i].ActivityID] = &rows[i]
	}

	views := make([]models.PreferenceView, 0, len(widget.Activities))
	for _, activity := range widget.Activities {
		view := models.PreferenceView{
			ActivityID:    activity.ID,
			ActivityName:  activity.Name,
			Purpose:       activity.Purpose,
			ConsentStatus: string(consent.PreferenceNotSet),
		}
		if row, ok := stored[activity.ID]; ok {
			view.ConsentStatus = row.ConsentStatus
			view.LastUpdated = utils.FormatMillis(row.LastUpdated)
			if row.ExpiresAt > 0 {
				view.ExpiresAt = utils.FormatMillis(row.ExpiresAt)
			}
		}
		views = append(views, view)
	}

	return &models.PreferencesResponse{
		VisitorID:   visitorID,
		WidgetID:    widgetID,
		Preferences: views,
	}, nil
}

// WithdrawAll withdraws every activity of the widget for the visitor and appends a revoked
// record. The rows and the record are written in one transaction.
func (s *PreferenceSyncService) WithdrawAll(ctx context.Context, visitorID, widgetID, reason string) (*models.WithdrawResponse, error) {
	if err := utils.ValidateVisitorID(visitorID); err != nil {
		return nil, NewValidationError(err.Error())
	}

	widget, err := s.widgets.GetPublicConfig(ctx, widgetID)
	if err != nil {
		return nil, err
	}
	ids := widget.ActivityIDs()
	if len(ids) == 0 {
		return nil, NewValidationError(fmt.Sprintf("widget '%s' has no activities to withdraw", widgetID))
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = PrivacyCentreRevocationReason
	}

	nowMillis := utils.TimeToMillis(s.now())
	expiresAt := utils.AddDays(nowMillis, s.duration(widget))

	statuses := make(map[string]consent.PreferenceStatus, len(ids))
	for _, id := range ids {
		statuses[id] = consent.PreferenceWithdrawn
	}
	summary := consent.SummarizePreferences(ids, statuses)
	record := s.derivedRecord(visitorID, widgetID, summary, nil, models.RequestMetadata{}, nowMillis, expiresAt, reason)

	err = s.tx.WithTransaction(ctx, func(tx *database.Transaction) error {
		for _, id := range ids {
			pref := &models.VisitorPreference{
				ID:            utils.GenerateID(),
				VisitorID:     visitorID,
				WidgetID:      widgetID,
				ActivityID:    id,
				ConsentStatus: string(consent.PreferenceWithdrawn),
				ExpiresAt:     expiresAt,
				LastUpdated:   nowMillis,
				CreatedTime:   nowMillis,
			}
			if err := s.preferences.UpsertWithTx(ctx, tx, pref); err != nil {
				return err
			}
		}
		return s.records.CreateWithTx(ctx, tx, record)
	})
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"widgetId":  widgetID,
			"visitorId": visitorID,
		}).Error("Failed to withdraw consent")
		return nil, NewDatabaseError("Failed to withdraw consent", err)
	}

	s.countUpsertN(models.PreferenceResultUpdated, len(ids))
	if s.metrics != nil {
		s.metrics.ConsentRecords.WithLabelValues(record.ConsentStatus).Inc()
	}
	s.logger.WithFields(logrus.Fields{
		"consentId": record.ConsentID,
		"widgetId":  widgetID,
		"withdrawn": len(ids),
	}).Info("Consent withdrawn")

	event := events.NewConsentEvent(events.TypeConsentRevoked, widgetID, visitorID, record.ConsentStatus)
	event.RecordID = record.ID
	event.ConsentID = record.ConsentID
	event.RejectedActivities = summary.RejectedActivities
	s.events.publish(ctx, event)

	return &models.WithdrawResponse{
		Success:         true,
		WithdrawnCount:  len(ids),
		ConsentRecordID: record.ConsentID,
		RevokedAt:       utils.FormatMillis(nowMillis),
	}, nil
}

func (s *PreferenceSyncService) validateUpdateRequest(req *models.PreferenceUpdateRequest) error {
	if req == nil {
		return NewValidationError("request body is required")
	}
	if err := utils.ValidateVisitorID(req.VisitorID); err != nil {
		return NewValidationError(err.Error())
	}
	if err := utils.ValidateWidgetID(req.WidgetID); err != nil {
		return NewValidationError(err.Error())
	}
	if len(req.Preferences) == 0 {
		return NewValidationError("preferences must contain at least one item")
	}
	if s.cfg.MaxBatchSize > 0 && len(req.Preferences) > s.cfg.MaxBatchSize {
		return NewValidationError(fmt.Sprintf("preferences must not contain more than %d items", s.cfg.MaxBatchSize))
	}

	seen := make(map[string]struct{}, len(req.Preferences))
	for i, item := range req.Preferences {
		if err := utils.ValidateActivityID(item.ActivityID); err != nil {
			return NewValidationError(fmt.Sprintf("preferences[%d]: %v", i, err))
		}
		if _, dup := seen[item.ActivityID]; dup {
			return NewValidationError(fmt.Sprintf("activity '%s' appears more than once", item.ActivityID))
		}
		seen[item.ActivityID] = struct{}{}
	}
	return nil
}

func (s *PreferenceSyncService) duration(widget *models.PublicWidgetConfig) int {
	return utils.ClampDuration(widget.ConsentDuration, s.cfg.DefaultDurationDays, s.cfg.MaxDurationDays)
}

// derivedRecord builds the consolidated consent record for a set of preference changes
func (s *PreferenceSyncService) derivedRecord(
	visitorID, widgetID string,
	summary consent.PreferenceSummary,
	emailHash *string,
	meta models.RequestMetadata,
	nowMillis, expiresAt int64,
	reason string,
) *models.ConsentRecord {
	deviceType := meta.DeviceType
	if deviceType == "" || !consent.IsValidDeviceType(deviceType) {
		deviceType = consent.DeviceUnknown
	}
	record := &models.ConsentRecord{
		ID:                 utils.GenerateID(),
		ConsentID:          utils.GenerateConsentID(),
		WidgetID:           widgetID,
		VisitorID:          visitorID,
		ConsentStatus:      string(summary.Status),
		AcceptedActivities: models.StringList(summary.AcceptedActivities),
		RejectedActivities: models.StringList(summary.RejectedActivities),
		VisitorEmailHash:   emailHash,
		DeviceType:         deviceType,
		Browser:            meta.Browser,
		OS:                 meta.OS,
		Language:           meta.Language,
		CreatedTime:        nowMillis,
		ExpiresAt:          expiresAt,
	}
	if summary.Status == consent.StatusRevoked {
		revokedAt := nowMillis
		record.RevokedAt = &revokedAt
		record.RevocationReason = &reason
	}
	return record
}

func (s *PreferenceSyncService) countUpsert(result string) {
	s.countUpsertN(result, 1)
}

func (s *PreferenceSyncService) countUpsertN(result string, n int) {
	if s.metrics != nil {
		s.metrics.PreferenceUpserts.WithLabelValues(result).Add(float64(n))
	}
}
