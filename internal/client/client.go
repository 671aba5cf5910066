package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kjstillabower/weather-relay/internal/models"
	"github.com/kjstillabower/weather-relay/internal/observability"
)

// DefaultBaseURL is the Visual Crossing Timeline endpoint. Location and date
// are appended as path segments.
const DefaultBaseURL = "https://weather.visualcrossing.com/VisualCrossingWebServices/rest/services/timeline"

// WeatherClient fetches one (location, date) lookup from the upstream provider.
// Non-200 or non-JSON answers come back as a Result carrying an UpstreamError;
// a non-nil error means the provider could not be reached or its JSON was unreadable.
type WeatherClient interface {
	Fetch(ctx context.Context, location, date string) (models.Result, error)
}

var (
	ErrUpstreamUnreachable = errors.New("upstream unreachable")
	ErrMalformedPayload    = errors.New("malformed upstream payload")
)

type VisualCrossingClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewVisualCrossingClient builds a client for baseURL (DefaultBaseURL when empty).
// The API key is not checked; a missing key is reported by the provider itself.
// timeout bounds each upstream call; zero means no client-side limit.
func NewVisualCrossingClient(apiKey, baseURL string, timeout time.Duration) (*VisualCrossingClient, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid API URL: %w", err)
	}
	return &VisualCrossingClient{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

func (c *VisualCrossingClient) Fetch(ctx context.Context, location, date string) (models.Result, error) {
	start := time.Now()

	req, err := c.buildRequest(ctx, location, date)
	if err != nil {
		observability.WeatherAPICallsTotal.WithLabelValues("error").Inc()
		return models.Result{}, fmt.Errorf("build request: %w", err)
	}

	if corrID := extractCorrelationID(ctx); corrID != "" {
		req.Header.Set("X-Correlation-ID", corrID)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		observability.WeatherAPICallsTotal.WithLabelValues("error").Inc()
		observability.WeatherAPIDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		err = fmt.Errorf("%w: %w", ErrUpstreamUnreachable, err)
		observability.WeatherAPIErrorsTotal.WithLabelValues(string(CategorizeError(err))).Inc()
		return models.Result{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	status := statusLabel(resp.StatusCode)
	observability.WeatherAPICallsTotal.WithLabelValues(status).Inc()
	observability.WeatherAPIDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())
	if err != nil {
		err = fmt.Errorf("%w: read response body: %w", ErrUpstreamUnreachable, err)
		observability.WeatherAPIErrorsTotal.WithLabelValues(string(CategorizeError(err))).Inc()
		return models.Result{}, err
	}

	if resp.StatusCode != http.StatusOK || !isJSON(resp.Header.Get("Content-Type")) {
		return models.Result{Error: &models.UpstreamError{
			Error:  string(body),
			Status: resp.StatusCode,
		}}, nil
	}

	if !json.Valid(body) {
		err := fmt.Errorf("%w: parse response: invalid JSON", ErrMalformedPayload)
		observability.WeatherAPIErrorsTotal.WithLabelValues(string(CategorizeError(err))).Inc()
		return models.Result{}, err
	}
	return models.Result{Payload: json.RawMessage(body)}, nil
}

// buildRequest appends location and date as escaped path segments and the
// fixed query (metric units, daily granularity, API key).
func (c *VisualCrossingClient) buildRequest(ctx context.Context, location, date string) (*http.Request, error) {
	params := url.Values{}
	params.Set("unitGroup", "metric")
	params.Set("include", "days")
	params.Set("key", c.apiKey)

	rawURL := c.baseURL + "/" + url.PathEscape(location) + "/" + url.PathEscape(date) + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// isJSON accepts parameters ("application/json; charset=utf-8") but matches the
// media type case-sensitively.
func isJSON(contentType string) bool {
	return strings.Contains(contentType, "application/json")
}

func extractCorrelationID(ctx context.Context) string {
	if corrIDVal := ctx.Value("correlation_id"); corrIDVal != nil {
		if corrID, ok := corrIDVal.(string); ok {
			return corrID
		}
	}
	return ""
}

func statusLabel(statusCode int) string {
	if statusCode >= 200 && statusCode < 300 {
		return "success"
	}
	if statusCode == 429 {
		return "rate_limited"
	}
	if statusCode >= 400 && statusCode < 500 {
		return "client_error"
	}
	if statusCode >= 500 {
		return "server_error"
	}
	return "error"
}
