package dpdpa

import (
	"net/http"
	"net/url"

	"github.com/consently/consent-management-api/tests/integration/testutils"
)

func (ts *DPDPAAPITestSuite) updatePreferences(req PreferenceUpdateRequest) (int, PreferenceUpdateResponse) {
	var resp PreferenceUpdateResponse
	status := ts.do(http.MethodPatch, "/api/privacy-centre/preferences", req, &resp)
	return status, resp
}

func (ts *DPDPAAPITestSuite) TestGetPreferences_NewVisitorIsNotSet() {
	prefs := ts.getPreferences(testutils.UniqueVisitorID("fresh"))

	ts.Require().Len(prefs.Preferences, 3)
	for _, p := range prefs.Preferences {
		ts.Equal("not_set", p.ConsentStatus, p.ActivityID)
	}
	ts.Equal("act1", prefs.Preferences[0].ActivityID)
}

func (ts *DPDPAAPITestSuite) TestUpdatePreferences_AllRowsApplied() {
	visitorID := testutils.UniqueVisitorID("update")

	status, resp := ts.updatePreferences(PreferenceUpdateRequest{
		VisitorID: visitorID,
		WidgetID:  widgetID,
		Preferences: []PreferenceItem{
			{ActivityID: "act1", ConsentStatus: "accepted"},
			{ActivityID: "act2", ConsentStatus: "rejected"},
		},
		Metadata: RequestMetadata{DeviceType: "Mobile"},
	})

	ts.Require().Equal(http.StatusOK, status)
	ts.True(resp.Success)
	ts.Equal(2, resp.UpdatedCount)
	ts.Equal(0, resp.FailedCount)
	ts.Equal("partial", resp.ConsentStatus)
	ts.NotEmpty(resp.ConsentRecordID)

	statuses := preferenceStatuses(ts.getPreferences(visitorID))
	ts.Equal("accepted", statuses["act1"])
	ts.Equal("rejected", statuses["act2"])
	ts.Equal("not_set", statuses["act3"])

	// Last write wins on a second update
	status, _ = ts.updatePreferences(PreferenceUpdateRequest{
		VisitorID:   visitorID,
		WidgetID:    widgetID,
		Preferences: []PreferenceItem{{ActivityID: "act1", ConsentStatus: "withdrawn"}},
	})
	ts.Require().Equal(http.StatusOK, status)
	ts.Equal("withdrawn", preferenceStatuses(ts.getPreferences(visitorID))["act1"])
}

func (ts *DPDPAAPITestSuite) TestUpdatePreferences_PartialFailure() {
	visitorID := testutils.UniqueVisitorID("partialfail")

	status, resp := ts.updatePreferences(PreferenceUpdateRequest{
		VisitorID: visitorID,
		WidgetID:  widgetID,
		Preferences: []PreferenceItem{
			{ActivityID: "act1", ConsentStatus: "accepted"},
			{ActivityID: "act2", ConsentStatus: "maybe"},
		},
	})

	ts.Require().Equal(http.StatusMultiStatus, status)
	ts.Equal(1, resp.UpdatedCount)
	ts.Equal(1, resp.FailedCount)
	ts.Require().Len(resp.Results, 2)
	ts.Equal("updated", resp.Results[0].Result)
	ts.Equal("failed", resp.Results[1].Result)
	ts.NotEmpty(resp.Results[1].Error)

	statuses := preferenceStatuses(ts.getPreferences(visitorID))
	ts.Equal("accepted", statuses["act1"])
	ts.Equal("not_set", statuses["act2"])
}

func (ts *DPDPAAPITestSuite) TestUpdatePreferences_UnknownActivityWritesNothing() {
	visitorID := testutils.UniqueVisitorID("badbatch")

	var errResp ErrorResponse
	status := ts.do(http.MethodPatch, "/api/privacy-centre/preferences", PreferenceUpdateRequest{
		VisitorID: visitorID,
		WidgetID:  widgetID,
		Preferences: []PreferenceItem{
			{ActivityID: "act1", ConsentStatus: "accepted"},
			{ActivityID: "retired", ConsentStatus: "accepted"},
		},
	}, &errResp)

	ts.Equal(http.StatusBadRequest, status)
	ts.Equal("VALIDATION_ERROR", errResp.Code)
	ts.Equal("not_set", preferenceStatuses(ts.getPreferences(visitorID))["act1"])
}

func (ts *DPDPAAPITestSuite) TestWithdrawAll() {
	visitorID := testutils.UniqueVisitorID("withdraw")
	status, _ := ts.recordConsent(ConsentRecordRequest{
		WidgetID:           widgetID,
		VisitorID:          visitorID,
		AcceptedActivities: testutils.SeedActivityIDs,
		RejectedActivities: []string{},
	})
	ts.Require().Equal(http.StatusCreated, status)

	var resp WithdrawResponse
	query := url.Values{"visitorId": {visitorID}, "widgetId": {widgetID}, "reason": {"closing account"}}
	status = ts.do(http.MethodDelete, "/api/privacy-centre/preferences?"+query.Encode(), nil, &resp)

	ts.Require().Equal(http.StatusOK, status)
	ts.True(resp.Success)
	ts.Equal(3, resp.WithdrawnCount)
	ts.NotEmpty(resp.ConsentRecordID)

	for id, s := range preferenceStatuses(ts.getPreferences(visitorID)) {
		ts.Equal("withdrawn", s, id)
	}

	list := ts.listRecords(visitorID)
	ts.Require().NotEmpty(list.Data)
	ts.Equal("revoked", list.Data[0].ConsentStatus)
	ts.Equal("closing account", list.Data[0].RevocationReason)
	ts.NotEmpty(list.Data[0].RevokedAt)
}
