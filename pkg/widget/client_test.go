package widget

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/consently/consent-management-api/pkg/consent"
)

func TestConfigClient_FetchConfig(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/dpdpa/widget-public/w1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"widgetId": "w1",
			"title": "Your privacy",
			"autoShow": true,
			"showAfterDelay": 500,
			"consentDuration": 30,
			"activities": [{"id": "act1", "activityName": "Marketing", "dataAttributes": ["email"]}]
		}`))
	}))
	defer server.Close()

	cfg, err := NewConfigClient(server.URL, nil, nil).FetchConfig(context.Background(), "w1")
	require.NoError(t, err)
	assert.Equal(t, "Your privacy", cfg.Title)
	assert.Equal(t, 30, cfg.ConsentDuration)
	assert.Equal(t, 500*time.Millisecond, cfg.ShowDelay())
	require.Len(t, cfg.Activities, 1)
	assert.Equal(t, "Marketing", cfg.Activities[0].Name)
}

func TestConfigClient_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"code":"NOT_FOUND","message":"widget not found"}`))
	}))
	defer server.Close()

	_, err := NewConfigClient(server.URL, nil, nil).FetchConfig(context.Background(), "missing")

	var fetchErr *ConfigFetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, http.StatusNotFound, fetchErr.StatusCode)
	assert.Contains(t, fetchErr.Error(), "widget not found")
}

func TestConfigClient_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close()

	_, err := NewConfigClient(server.URL, nil, nil).FetchConfig(context.Background(), "w1")
	var fetchErr *ConfigFetchError
	assert.True(t, errors.As(err, &fetchErr))
}

func TestConsentRecorder_Submit(t *testing.T) {
	expires := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/dpdpa/consent-record", r.URL.Path)

		var body ConsentSubmission
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, consent.StatusPartial, body.ConsentStatus)
		assert.Equal(t, []string{"act1"}, body.AcceptedActivities)

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"success":true,"consentId":"CONSENT-1","recordId":"r1","expiresAt":"2025-02-01T00:00:00Z"}`))
	}))
	defer server.Close()

	result, err := NewConsentRecorder(server.URL+"/", nil, nil).Submit(context.Background(), &ConsentSubmission{
		WidgetID:           "w1",
		VisitorID:          "v1",
		ConsentStatus:      consent.StatusPartial,
		AcceptedActivities: []string{"act1"},
		RejectedActivities: []string{"act2"},
	})
	require.NoError(t, err)
	assert.Equal(t, "CONSENT-1", result.ConsentID)
	assert.True(t, expires.Equal(result.ExpiresAt))
}

func TestConsentRecorder_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":"VALIDATION_ERROR","message":"unknown activity"}`))
	}))
	defer server.Close()

	_, err := NewConsentRecorder(server.URL, nil, nil).Submit(context.Background(), &ConsentSubmission{})
	var recErr *RecordSubmissionError
	require.True(t, errors.As(err, &recErr))
	assert.Equal(t, http.StatusBadRequest, recErr.StatusCode)
	assert.Equal(t, "unknown activity", recErr.Message)
}

func TestResolveAPIBase(t *testing.T) {
	tests := []struct {
		name      string
		scriptSrc string
		page      string
		expected  string
	}{
		{"absolute script url", "https://cdn.consently.in/dpdpa-widget.js?v=2", "https://shop.example.com", "https://cdn.consently.in"},
		{"relative script url", "/dpdpa-widget.js", "https://shop.example.com/", "https://shop.example.com"},
		{"no script url", "", "http://localhost:3000", "http://localhost:3000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ResolveAPIBase(tt.scriptSrc, tt.page))
		})
	}
}

func TestDetectMetadata(t *testing.T) {
	tests := []struct {
		ua      string
		device  string
		browser string
		os      string
	}{
		{"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36", DeviceDesktop, "Chrome", "Windows"},
		{"Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1", DeviceMobile, "Safari", "iOS"},
		{"Mozilla/5.0 (Linux; Android 13; SM-X200) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36", DeviceTablet, "Chrome", "Android"},
		{"Mozilla/5.0 (Windows NT 10.0) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36 Edg/120.0", DeviceDesktop, "Edge", "Windows"},
		{"", DeviceUnknown, "Unknown", "Unknown"},
	}
	for _, tt := range tests {
		md := DetectMetadata(tt.ua, "en-IN")
		assert.Equal(t, tt.device, md.DeviceType, tt.ua)
		assert.Equal(t, tt.browser, md.Browser, tt.ua)
		assert.Equal(t, tt.os, md.OS, tt.ua)
		assert.Equal(t, "en-IN", md.Language)
	}
}
