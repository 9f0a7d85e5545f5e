package openweather

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/weather-etl-service/internal/domain"
	"github.com/couchcryptid/weather-etl-service/internal/observability"
)

// DefaultBaseURL is the OpenWeatherMap current-weather endpoint.
const DefaultBaseURL = "http://api.openweathermap.org/data/2.5/weather"

// Client fetches current-weather observations from OpenWeatherMap.
// It implements pipeline.Source. Each Fetch issues exactly one request:
// there is no retry and no caching.
type Client struct {
	apiKey     string
	units      string
	baseURL    string
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an OpenWeatherMap client. timeout bounds each request.
// A nil metrics records to an unregistered set.
func NewClient(apiKey, baseURL, units string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if metrics == nil {
		metrics = observability.NewMetricsForTesting()
	}
	return &Client{
		apiKey:  apiKey,
		units:   units,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		metrics: metrics,
		logger:  logger,
	}
}

// Fetch returns the raw response body for city.
//
// A non-200 response yields *domain.FetchError carrying the status and body
// verbatim; a request that cannot complete yields *domain.TransportError.
func (c *Client) Fetch(ctx context.Context, city string) (domain.RawObservation, error) {
	params := url.Values{
		"q":     {city},
		"units": {c.units},
		"appid": {c.apiKey},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, &domain.TransportError{City: city, Err: fmt.Errorf("create request: %w", err)}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(start, "error")
		return nil, &domain.TransportError{City: city, Err: err}
	}
	defer resp.Body.Close()
	c.observe(start, statusClass(resp.StatusCode))

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.TransportError{City: city, Err: fmt.Errorf("read body: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &domain.FetchError{City: city, Status: resp.StatusCode, Body: string(body)}
	}

	c.logger.Debug("observation fetched", "city", city, "bytes", len(body), "duration", time.Since(start))
	return domain.RawObservation(body), nil
}

func (c *Client) observe(start time.Time, status string) {
	c.metrics.FetchDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())
}

func statusClass(code int) string {
	if code < 100 || code > 599 {
		return strconv.Itoa(code)
	}
	return strconv.Itoa(code/100) + "xx"
}
