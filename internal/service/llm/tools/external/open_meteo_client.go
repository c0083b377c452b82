package external

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultOpenMeteoBaseURL is the default Open-Meteo API host
	DefaultOpenMeteoBaseURL = "https://api.open-meteo.com"
	// DefaultOpenMeteoTimeout is the default HTTP timeout for forecast requests
	DefaultOpenMeteoTimeout = 10 * time.Second
)

// OpenMeteoClient implements WeatherClient for Open-Meteo. No API key is needed.
type OpenMeteoClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewOpenMeteoClient creates a forecast client against baseURL.
func NewOpenMeteoClient(baseURL string) *OpenMeteoClient {
	return NewOpenMeteoClientWithConfig(baseURL, DefaultOpenMeteoTimeout)
}

// NewOpenMeteoClientWithConfig creates a forecast client with a custom timeout.
func NewOpenMeteoClientWithConfig(baseURL string, timeout time.Duration) *OpenMeteoClient {
	if baseURL == "" {
		baseURL = DefaultOpenMeteoBaseURL
	}
	return &OpenMeteoClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Forecast implements WeatherClient.
func (c *OpenMeteoClient) Forecast(ctx context.Context, latitude, longitude float64) (json.RawMessage, error) {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(latitude, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(longitude, 'f', -1, 64))
	q.Set("current", "temperature_2m")
	q.Set("hourly", "temperature_2m")
	q.Set("daily", "sunrise,sunset")
	q.Set("timezone", "auto")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/forecast?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }() // Error ignored: response consumed

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	if !json.Valid(body) {
		return nil, fmt.Errorf("failed to parse response: invalid JSON")
	}

	return json.RawMessage(body), nil
}
