package dpdpa

import (
	"net/http"
)

func (ts *DPDPAAPITestSuite) TestGetWidgetConfig_ReturnsActivitiesInOrder() {
	var cfg WidgetConfigResponse
	status := ts.do(http.MethodGet, "/api/dpdpa/widget-public/"+widgetID, nil, &cfg)

	ts.Require().Equal(http.StatusOK, status)
	ts.Equal(widgetID, cfg.WidgetID)
	ts.NotEmpty(cfg.Title)
	ts.Equal(365, cfg.ConsentDuration)
	ts.Require().Len(cfg.Activities, 3)
	ts.Equal("act1", cfg.Activities[0].ID)
	ts.Equal("Marketing", cfg.Activities[0].Name)
	ts.Equal([]string{"email", "name"}, cfg.Activities[0].DataAttributes)
	ts.Equal("act3", cfg.Activities[2].ID)
}

func (ts *DPDPAAPITestSuite) TestGetWidgetConfig_UnknownWidget() {
	var errResp ErrorResponse
	status := ts.do(http.MethodGet, "/api/dpdpa/widget-public/does-not-exist", nil, &errResp)

	ts.Equal(http.StatusNotFound, status)
	ts.Equal("WIDGET_NOT_FOUND", errResp.Code)
	ts.NotEmpty(errResp.TraceID)
}
