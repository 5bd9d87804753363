package widget

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
)

// Recorder persists a finalized consent decision remotely
type Recorder interface {
	Submit(ctx context.Context, submission *ConsentSubmission) (*SubmissionResult, error)
}

// ConsentRecorder posts submissions to the consent-record endpoint. It keeps no state.
type ConsentRecorder struct {
	api apiClient
}

// NewConsentRecorder creates a recorder for the API at baseURL
func NewConsentRecorder(baseURL string, httpClient *http.Client, logger logrus.FieldLogger) *ConsentRecorder {
	return &ConsentRecorder{api: newAPIClient(baseURL, httpClient, logger)}
}

// Submit posts the submission once. Any failure is a *RecordSubmissionError.
func (r *ConsentRecorder) Submit(ctx context.Context, submission *ConsentSubmission) (*SubmissionResult, error) {
	status, body, err := r.api.do(ctx, http.MethodPost, "/api/dpdpa/consent-record", submission)
	if err != nil {
		return nil, &RecordSubmissionError{StatusCode: status, Err: err}
	}
	if status < 200 || status >= 300 {
		msg := errorMessage(status, body)
		return nil, &RecordSubmissionError{StatusCode: status, Message: msg, Err: errors.New(msg)}
	}

	var result SubmissionResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &RecordSubmissionError{StatusCode: status, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	if result.ExpiresAt.IsZero() {
		return nil, &RecordSubmissionError{StatusCode: status, Message: "response has no expiresAt"}
	}
	return &result, nil
}
