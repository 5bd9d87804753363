package dpdpa

import (
	"net/http"
	"time"

	"github.com/consently/consent-management-api/tests/integration/testutils"
)

func (ts *DPDPAAPITestSuite) TestRecordConsent_AcceptAll() {
	visitorID := testutils.UniqueVisitorID("accept")

	status, resp := ts.recordConsent(ConsentRecordRequest{
		WidgetID:           widgetID,
		VisitorID:          visitorID,
		VisitorEmail:       "visitor@example.com",
		ConsentStatus:      "accepted",
		AcceptedActivities: testutils.SeedActivityIDs,
		RejectedActivities: []string{},
		Metadata:           RequestMetadata{DeviceType: "Desktop", Browser: "Firefox", OS: "Linux", Language: "en-IN"},
	})

	ts.Require().Equal(http.StatusCreated, status)
	ts.True(resp.Success)
	ts.NotEmpty(resp.ConsentID)
	ts.NotEmpty(resp.RecordID)
	ts.Equal("accepted", resp.Status)

	expiresAt, err := time.Parse(time.RFC3339, resp.ExpiresAt)
	ts.Require().NoError(err)
	ts.WithinDuration(time.Now().AddDate(0, 0, 365), expiresAt, 24*time.Hour)

	list := ts.listRecords(visitorID)
	ts.Require().Len(list.Data, 1)
	ts.Equal(resp.ConsentID, list.Data[0].ConsentID)
	ts.Equal("Desktop", list.Data[0].Metadata.DeviceType)

	// The decision is mirrored into the privacy centre
	statuses := preferenceStatuses(ts.getPreferences(visitorID))
	ts.Equal("accepted", statuses["act1"])
	ts.Equal("accepted", statuses["act3"])
}

func (ts *DPDPAAPITestSuite) TestRecordConsent_StatusDerivedFromActivities() {
	visitorID := testutils.UniqueVisitorID("partial")

	status, resp := ts.recordConsent(ConsentRecordRequest{
		WidgetID:           widgetID,
		VisitorID:          visitorID,
		ConsentStatus:      "accepted",
		AcceptedActivities: []string{"act1"},
		RejectedActivities: []string{"act2"},
	})

	ts.Require().Equal(http.StatusCreated, status)
	ts.Equal("partial", resp.Status)

	list := ts.listRecords(visitorID)
	ts.Require().Len(list.Data, 1)
	ts.Equal("Unknown", list.Data[0].Metadata.DeviceType)
}

func (ts *DPDPAAPITestSuite) TestRecordConsent_RejectsUnknownActivity() {
	var errResp ErrorResponse
	status := ts.do("POST", "/api/dpdpa/consent-record", ConsentRecordRequest{
		WidgetID:           widgetID,
		VisitorID:          testutils.UniqueVisitorID("unknown"),
		AcceptedActivities: []string{"act1", "not-an-activity"},
		RejectedActivities: []string{},
	}, &errResp)

	ts.Equal(http.StatusBadRequest, status)
	ts.Equal("VALIDATION_ERROR", errResp.Code)
	ts.Contains(errResp.Details, "not-an-activity")
}

func (ts *DPDPAAPITestSuite) TestRecordConsent_UnknownWidget() {
	var errResp ErrorResponse
	status := ts.do("POST", "/api/dpdpa/consent-record", ConsentRecordRequest{
		WidgetID:           "does-not-exist",
		VisitorID:          testutils.UniqueVisitorID("nowidget"),
		AcceptedActivities: []string{"act1"},
		RejectedActivities: []string{},
	}, &errResp)

	ts.Equal(http.StatusNotFound, status)
	ts.Equal("WIDGET_NOT_FOUND", errResp.Code)
}

func (ts *DPDPAAPITestSuite) TestListRecords_NewestFirst() {
	visitorID := testutils.UniqueVisitorID("history")

	status, first := ts.recordConsent(ConsentRecordRequest{
		WidgetID:           widgetID,
		VisitorID:          visitorID,
		AcceptedActivities: testutils.SeedActivityIDs,
		RejectedActivities: []string{},
	})
	ts.Require().Equal(http.StatusCreated, status)
	time.Sleep(5 * time.Millisecond)
	status, second := ts.recordConsent(ConsentRecordRequest{
		WidgetID:           widgetID,
		VisitorID:          visitorID,
		AcceptedActivities: []string{},
		RejectedActivities: testutils.SeedActivityIDs,
	})
	ts.Require().Equal(http.StatusCreated, status)

	list := ts.listRecords(visitorID)
	ts.Equal(2, list.Metadata.Total)
	ts.Require().Len(list.Data, 2)
	ts.Equal(second.ConsentID, list.Data[0].ConsentID)
	ts.Equal(first.ConsentID, list.Data[1].ConsentID)
	ts.Equal("rejected", list.Data[0].ConsentStatus)
}
