package airquality

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/airtrack/airtrack/internal/shared"
)

const (
	// DefaultGeocodingURL is the Open-Meteo geocoding search endpoint.
	DefaultGeocodingURL = "https://geocoding-api.open-meteo.com/v1/search"
	// DefaultAirQualityURL is the Open-Meteo air-quality endpoint.
	DefaultAirQualityURL = "https://air-quality-api.open-meteo.com/v1/air-quality"

	defaultTimeout = 10 * time.Second
)

// ClientConfig configures the Open-Meteo client.
type ClientConfig struct {
	GeocodingURL  string
	AirQualityURL string
	Timeout       time.Duration
	HTTPClient    *http.Client
}

// Client talks to the Open-Meteo geocoding and air-quality APIs.
type Client struct {
	geocodingURL  string
	airQualityURL string
	httpClient    *http.Client
}

// NewClient constructs a new client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.GeocodingURL == "" {
		cfg.GeocodingURL = DefaultGeocodingURL
	}
	if cfg.AirQualityURL == "" {
		cfg.AirQualityURL = DefaultAirQualityURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		geocodingURL:  cfg.GeocodingURL,
		airQualityURL: cfg.AirQualityURL,
		httpClient:    httpClient,
	}
}

type geocodeResponse struct {
	Results []struct {
		Name      string  `json:"name"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"results"`
}

type airQualityResponse struct {
	Current struct {
		USAQI *float64 `json:"us_aqi"`
	} `json:"current"`
}

// Geocode resolves name to the provider's best match.
func (c *Client) Geocode(ctx context.Context, name string) (Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Location{}, fmt.Errorf("%w: city name is required", shared.ErrInvalidInput)
	}
	q := url.Values{}
	q.Set("name", name)
	q.Set("count", "1")
	q.Set("language", "en")
	q.Set("format", "json")

	var body geocodeResponse
	if err := c.getJSON(ctx, c.geocodingURL, q, &body); err != nil {
		return Location{}, fmt.Errorf("geocode %q: %w", name, err)
	}
	if len(body.Results) == 0 {
		return Location{}, fmt.Errorf("geocode %q: %w", name, shared.ErrNotFound)
	}
	match := body.Results[0]
	return Location{Name: match.Name, Latitude: match.Latitude, Longitude: match.Longitude}, nil
}

// CurrentAQI returns the current US AQI at the coordinates, rounded to an integer.
func (c *Client) CurrentAQI(ctx context.Context, latitude, longitude float64) (int, error) {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(latitude, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(longitude, 'f', -1, 64))
	q.Set("current", "us_aqi")

	var body airQualityResponse
	if err := c.getJSON(ctx, c.airQualityURL, q, &body); err != nil {
		return 0, fmt.Errorf("air quality: %w", err)
	}
	if body.Current.USAQI == nil {
		return 0, fmt.Errorf("air quality: no us_aqi reading: %w", shared.ErrProviderUnavailable)
	}
	return int(math.Round(*body.Current.USAQI)), nil
}

func (c *Client) getJSON(ctx context.Context, base string, q url.Values, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrProviderUnavailable, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%w: status %d", shared.ErrProviderUnavailable, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("%w: decode response: %v", shared.ErrProviderUnavailable, err)
	}
	return nil
}

var _ Provider = (*Client)(nil)
