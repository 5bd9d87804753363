package widget

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultTimeout bounds every widget API call
const DefaultTimeout = 10 * time.Second

// apiClient performs the JSON calls shared by the config client and the recorder
type apiClient struct {
	baseURL    string
	httpClient *http.Client
	logger     logrus.FieldLogger
}

func newAPIClient(baseURL string, httpClient *http.Client, logger logrus.FieldLogger) apiClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	if logger == nil {
		logger = nopLogger()
	}
	return apiClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

// apiError is the error body returned by the consent API
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
}

// do sends body (when non-nil) as JSON and returns the status and raw response body
func (c apiClient) do(ctx context.Context, method, path string, body any) (int, []byte, error) {
	endpoint := c.baseURL + path

	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	startTime := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(startTime)
	if err != nil {
		c.logger.WithError(err).WithFields(logrus.Fields{
			"url":      endpoint,
			"duration": duration,
		}).Warn("Consent API call failed")
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"method":     method,
		"url":        endpoint,
		"statusCode": resp.StatusCode,
		"duration":   duration,
	}).Debug("Consent API response received")

	return resp.StatusCode, respBody, nil
}

func errorMessage(statusCode int, body []byte) string {
	var apiErr apiError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Message != "" {
		return apiErr.Message
	}
	return http.StatusText(statusCode)
}

// ResolveAPIBase returns the origin the widget API lives at. An absolute script URL wins,
// so a widget embedded cross-origin talks to the host that served it; otherwise the
// page origin is used.
func ResolveAPIBase(scriptSrc, pageOrigin string) string {
	if u, err := url.Parse(strings.TrimSpace(scriptSrc)); err == nil && u.Scheme != "" && u.Host != "" {
		return u.Scheme + "://" + u.Host
	}
	return strings.TrimRight(strings.TrimSpace(pageOrigin), "/")
}
