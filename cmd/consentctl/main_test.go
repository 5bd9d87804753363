package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/consently/consent-management-api/pkg/consent"
	"github.com/consently/consent-management-api/pkg/widget"
)

type fakeAPI struct {
	mu          sync.Mutex
	submissions []widget.ConsentSubmission
	failSubmit  bool
}

func (f *fakeAPI) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/dpdpa/widget-public/w1", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"widgetId": "w1",
			"title": "Your privacy",
			"message": "We process your data for the purposes below.",
			"buttonLabels": {"accept": "Accept", "reject": "Reject"},
			"respectDNT": true,
			"consentDuration": 365,
			"activities": [
				{"id": "act1", "activityName": "Marketing", "purpose": "Newsletters", "dataAttributes": ["email"]},
				{"id": "act2", "activityName": "Analytics", "dataAttributes": []}
			]
		}`))
	})
	mux.HandleFunc("/api/dpdpa/consent-record", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var submission widget.ConsentSubmission
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&submission))

		f.mu.Lock()
		f.submissions = append(f.submissions, submission)
		fail := f.failSubmit
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if fail {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"code":"DATABASE_ERROR","message":"Failed to store consent record"}`))
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"consentId":"c-1","recordId":"r-1","status":"` + string(submission.ConsentStatus) +
			`","expiresAt":"2099-01-01T10:00:00Z"}`))
	})
	return mux
}

func (f *fakeAPI) recorded() []widget.ConsentSubmission {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]widget.ConsentSubmission(nil), f.submissions...)
}

type cliHarness struct {
	api     *fakeAPI
	server  *httptest.Server
	profile string
}

func newCLIHarness(t *testing.T) *cliHarness {
	api := &fakeAPI{}
	server := httptest.NewServer(api.handler(t))
	t.Cleanup(server.Close)
	return &cliHarness{
		api:     api,
		server:  server,
		profile: filepath.Join(t.TempDir(), "profile.json"),
	}
}

func (h *cliHarness) run(t *testing.T, args ...string) (string, error) {
	var stdout, stderr bytes.Buffer
	cmd := newRootCommand(&stdout, &stderr)
	full := append([]string{"--api", h.server.URL, "--profile", h.profile, "--widget", "w1"}, args...)
	cmd.SetArgs(full)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func TestShow_PrintsPrompt(t *testing.T) {
	h := newCLIHarness(t)

	out, err := h.run(t, "show")

	require.NoError(t, err)
	assert.Contains(t, out, "Your privacy")
	assert.Contains(t, out, "[ ] Marketing (act1)")
	assert.Contains(t, out, "purpose: Newsletters")
	assert.Contains(t, out, "[Accept] [Reject]")
	assert.Empty(t, h.api.recorded())
}

func TestAcceptAll_RecordsAndPersists(t *testing.T) {
	h := newCLIHarness(t)

	out, err := h.run(t, "accept-all")
	require.NoError(t, err)
	assert.Contains(t, out, "Consent c-1 recorded (accepted)")

	submissions := h.api.recorded()
	require.Len(t, submissions, 1)
	assert.Equal(t, consent.StatusAccepted, submissions[0].ConsentStatus)
	assert.Equal(t, []string{"act1", "act2"}, submissions[0].AcceptedActivities)
	assert.Empty(t, submissions[0].RejectedActivities)
	assert.NotEmpty(t, submissions[0].VisitorID)

	_, err = os.Stat(h.profile)
	require.NoError(t, err)

	// A second invocation sees the stored decision and reuses the visitor id
	out, err = h.run(t, "status", "--output", "json")
	require.NoError(t, err)
	var report statusReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "consent_valid", report.State)
	assert.Equal(t, "accepted", report.Status)
	assert.Equal(t, "c-1", report.ConsentID)
	assert.Equal(t, submissions[0].VisitorID, report.VisitorID)
	require.Len(t, report.Activities, 2)
	assert.Equal(t, "accepted", report.Activities[0].Decision)
}

func TestDecide_SubmitsPartialSelection(t *testing.T) {
	h := newCLIHarness(t)

	_, err := h.run(t, "decide", "--accept", "act1", "--reject", "act2")
	require.NoError(t, err)

	submissions := h.api.recorded()
	require.Len(t, submissions, 1)
	assert.Equal(t, consent.StatusPartial, submissions[0].ConsentStatus)
	assert.Equal(t, []string{"act1"}, submissions[0].AcceptedActivities)
	assert.Equal(t, []string{"act2"}, submissions[0].RejectedActivities)
}

func TestDecide_Errors(t *testing.T) {
	h := newCLIHarness(t)

	_, err := h.run(t, "decide")
	assert.ErrorContains(t, err, "--accept or --reject")

	_, err = h.run(t, "decide", "--accept", "nope")
	assert.ErrorIs(t, err, widget.ErrUnknownActivity)
	assert.Empty(t, h.api.recorded())
}

func TestRejectAll_SubmissionFailureKeepsNothing(t *testing.T) {
	h := newCLIHarness(t)
	h.api.failSubmit = true

	out, err := h.run(t, "reject-all")

	require.Error(t, err)
	assert.Contains(t, out, "could not save your choices")

	out, err = h.run(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Consent:  none stored")
}

func TestStatus_YAMLAndUnknownFormat(t *testing.T) {
	h := newCLIHarness(t)

	out, err := h.run(t, "status", "-o", "yaml")
	require.NoError(t, err)
	var report statusReport
	require.NoError(t, yaml.Unmarshal([]byte(out), &report))
	assert.Equal(t, "w1", report.WidgetID)
	assert.Equal(t, "awaiting_decision", report.State)
	assert.Empty(t, report.Status)

	_, err = h.run(t, "status", "-o", "xml")
	assert.ErrorContains(t, err, "unsupported output format")
}

func TestDoNotTrack_SuppressesPrompt(t *testing.T) {
	h := newCLIHarness(t)

	out, err := h.run(t, "--dnt", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "State:    suppressed")
}

func TestClearAndWithdraw(t *testing.T) {
	h := newCLIHarness(t)
	_, err := h.run(t, "accept-all")
	require.NoError(t, err)

	out, err := h.run(t, "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "Local consent cleared.")
	out, err = h.run(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "none stored")

	_, err = h.run(t, "accept-all")
	require.NoError(t, err)
	_, err = h.run(t, "withdraw", "--reject")
	require.NoError(t, err)

	submissions := h.api.recorded()
	require.Len(t, submissions, 3)
	assert.Equal(t, consent.StatusRevoked, submissions[2].ConsentStatus)

	out, err = h.run(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Consent:  rejected")
}

func TestReceipt(t *testing.T) {
	h := newCLIHarness(t)

	_, err := h.run(t, "receipt", "--out", "-")
	assert.ErrorIs(t, err, widget.ErrNoConsent)

	_, err = h.run(t, "accept-all")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "receipt.json")
	out, err := h.run(t, "receipt", "--out", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Receipt written to "+path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var receipt widget.Receipt
	require.NoError(t, json.Unmarshal(data, &receipt))
	assert.Equal(t, "w1", receipt.WidgetID)
	assert.Equal(t, "c-1", receipt.ConsentID)
	require.Len(t, receipt.AcceptedActivities, 2)
	assert.Equal(t, "Marketing", receipt.AcceptedActivities[0].Name)
}

func TestMissingWidgetFlag(t *testing.T) {
	var stdout, stderr bytes.Buffer
	cmd := newRootCommand(&stdout, &stderr)
	cmd.SetArgs([]string{"--widget", "", "status"})

	err := cmd.Execute()

	assert.ErrorContains(t, err, "--widget is required")
}
