package service

import (
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"

	"github.com/consently/consent-management-api/internal/config"
	"github.com/consently/consent-management-api/internal/dao"
	"github.com/consently/consent-management-api/internal/metrics"
	"github.com/consently/consent-management-api/internal/models"
	"github.com/consently/consent-management-api/internal/service/mocks"
	"github.com/consently/consent-management-api/pkg/utils"
)

const (
	testWidgetID  = "w1"
	testVisitorID = "visitor-123"
	testHashKey   = "test-email-hash-key"
)

var testNow = time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

// TestSetup contains common test dependencies
type TestSetup struct {
	WidgetStore     *mocks.MockWidgetConfigStore
	RecordStore     *mocks.MockConsentRecordStore
	PreferenceStore *mocks.MockPreferenceStore
	Tx              *mocks.MockTxRunner
	Publisher       *mocks.MockPublisher
	Metrics         *metrics.Metrics
	Hasher          *utils.EmailHasher
	Logger          *logrus.Logger

	WidgetService *WidgetConfigService
	RecordService *ConsentRecordService
	SyncService   *PreferenceSyncService
}

// NewTestSetup wires the services to fresh mocks. Widget w1 with activities act1, act2
// and act3 is always resolvable and every event publish succeeds.
func NewTestSetup() *TestSetup {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	hasher, err := utils.NewEmailHasher(testHashKey)
	if err != nil {
		panic(err)
	}

	s := &TestSetup{
		WidgetStore:     &mocks.MockWidgetConfigStore{},
		RecordStore:     &mocks.MockConsentRecordStore{},
		PreferenceStore: &mocks.MockPreferenceStore{},
		Tx:              &mocks.MockTxRunner{},
		Publisher:       &mocks.MockPublisher{},
		Metrics:         metrics.New(),
		Hasher:          hasher,
		Logger:          logger,
	}

	s.WidgetStore.On("GetByID", mock.Anything, testWidgetID).Return(newTestWidget(), nil).Maybe()
	s.WidgetStore.On("GetActivities", mock.Anything, testWidgetID).Return(newTestActivities(), nil).Maybe()
	s.Publisher.On("Publish", mock.Anything, mock.Anything).Return(nil).Maybe()

	cfg := config.ConsentConfig{DefaultDurationDays: 365, MaxDurationDays: 730, MaxBatchSize: 10}

	s.WidgetService = NewWidgetConfigService(s.WidgetStore, nil, s.Metrics, logger)
	s.RecordService = NewConsentRecordService(s.RecordStore, s.PreferenceStore, s.WidgetService, hasher, cfg, s.Publisher, s.Metrics, logger)
	s.RecordService.now = func() time.Time { return testNow }
	s.SyncService = NewPreferenceSyncService(s.PreferenceStore, s.RecordStore, s.WidgetService, s.Tx, hasher, cfg, s.Publisher, s.Metrics, logger)
	s.SyncService.now = func() time.Time { return testNow }
	return s
}

func newTestWidget() *models.WidgetConfig {
	return &models.WidgetConfig{
		WidgetID:        testWidgetID,
		Name:            "Main site",
		Domain:          "example.com",
		Title:           "Your privacy",
		Message:         "We process your data for the purposes below.",
		AcceptLabel:     "Accept all",
		RejectLabel:     "Reject all",
		AutoShow:        true,
		ConsentDuration: 365,
		IsActive:        true,
	}
}

func newTestActivities() []models.ProcessingActivity {
	return []models.ProcessingActivity{
		{ID: "act1", Name: "Marketing", Purpose: "Newsletters", DisplayOrder: 1},
		{ID: "act2", Name: "Analytics", Purpose: "Usage statistics", DisplayOrder: 2},
		{ID: "act3", Name: "Personalisation", Purpose: "Recommendations", DisplayOrder: 3},
	}
}

// Helper to create a pointer to a string
func strPtr(s string) *string {
	return &s
}

func errNotFoundForTest() error {
	return fmt.Errorf("widget nope: %w", dao.ErrNotFound)
}
