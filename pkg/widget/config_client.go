package widget

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/sirupsen/logrus"
)

// ConfigFetcher loads the public configuration of a widget
type ConfigFetcher interface {
	FetchConfig(ctx context.Context, widgetID string) (*Config, error)
}

// ConfigClient fetches widget configuration from the consent API. It keeps no state.
type ConfigClient struct {
	api apiClient
}

// NewConfigClient creates a client for the API at baseURL
func NewConfigClient(baseURL string, httpClient *http.Client, logger logrus.FieldLogger) *ConfigClient {
	return &ConfigClient{api: newAPIClient(baseURL, httpClient, logger)}
}

// FetchConfig performs one GET for the widget config. Any failure is a *ConfigFetchError.
func (c *ConfigClient) FetchConfig(ctx context.Context, widgetID string) (*Config, error) {
	path := "/api/dpdpa/widget-public/" + url.PathEscape(widgetID)

	status, body, err := c.api.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, &ConfigFetchError{WidgetID: widgetID, StatusCode: status, Err: err}
	}
	if status < 200 || status >= 300 {
		return nil, &ConfigFetchError{
			WidgetID:   widgetID,
			StatusCode: status,
			Err:        fmt.Errorf("%s", errorMessage(status, body)),
		}
	}

	var cfg Config
	if err := json.Unmarshal(body, &cfg); err != nil {
		return nil, &ConfigFetchError{WidgetID: widgetID, StatusCode: status, Err: fmt.Errorf("failed to decode config: %w", err)}
	}
	if cfg.WidgetID == "" {
		cfg.WidgetID = widgetID
	}
	return &cfg, nil
}
