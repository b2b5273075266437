// Package weather fetches current conditions from OpenWeatherMap and
// turns them into a short human-friendly report.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nugget/bob-assistant/internal/httpkit"
)

// DefaultBaseURL is the OpenWeatherMap current-weather endpoint.
const DefaultBaseURL = "https://api.openweathermap.org/data/2.5/weather"

// ErrNotConfigured is returned when no API key is set.
var ErrNotConfigured = errors.New("weather API key not configured")

// ErrLocationNotFound is returned when the provider does not know the
// requested location.
var ErrLocationNotFound = errors.New("location not found")

// Report is the current weather at one location.
type Report struct {
	Location    string  `json:"location"`
	Temperature float64 `json:"temperature"`
	Condition   string  `json:"condition"`
	Description string  `json:"description"`
	Humidity    int     `json:"humidity"`
	WindSpeed   float64 `json:"wind_speed"`
	Suggestion  string  `json:"suggestion"`
}

// String renders the report as a single observation line.
func (r *Report) String() string {
	return fmt.Sprintf("Weather in %s: %.1f°C, %s. %s", r.Location, r.Temperature, r.Description, r.Suggestion)
}

// Client is an OpenWeatherMap client.
type Client struct {
	apiKey     string
	baseURL    string
	units      string
	httpClient *http.Client
}

// NewClient creates a weather client. Empty baseURL and units select
// the public endpoint and metric units.
func NewClient(apiKey, baseURL, units string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if units == "" {
		units = "metric"
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		units:   units,
		httpClient: httpkit.NewClient(
			httpkit.WithTimeout(15*time.Second),
			httpkit.WithRetry(2, time.Second),
		),
	}
}

// Configured reports whether an API key is set.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

type owmResponse struct {
	Name    string `json:"name"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity int     `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
}

// Current returns the current weather for location.
func (c *Client) Current(ctx context.Context, location string) (*Report, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, errors.New("location is required")
	}
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	params := url.Values{
		"q":     {location},
		"appid": {c.apiKey},
		"units": {c.units},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("weather: build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weather: request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		httpkit.DrainAndClose(resp.Body, 4096)
		return nil, fmt.Errorf("%w: %q", ErrLocationNotFound, location)
	case resp.StatusCode != http.StatusOK:
		body := httpkit.ReadErrorBody(resp.Body, 512)
		return nil, fmt.Errorf("weather: HTTP %d: %s", resp.StatusCode, body)
	}

	var data owmResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("weather: decode response: %w", err)
	}

	r := &Report{
		Location:    data.Name,
		Temperature: data.Main.Temp,
		Humidity:    data.Main.Humidity,
		WindSpeed:   data.Wind.Speed,
	}
	if r.Location == "" {
		r.Location = location
	}
	if len(data.Weather) > 0 {
		r.Condition = data.Weather[0].Main
		r.Description = data.Weather[0].Description
	}
	r.Suggestion = Suggest(r.Temperature, r.Condition)
	return r, nil
}

// Suggest returns advice for a temperature in Celsius and an
// OpenWeatherMap condition group such as "Rain" or "Clouds".
func Suggest(tempC float64, condition string) string {
	var parts []string
	switch {
	case tempC > 30:
		parts = append(parts, "It's quite hot! Stay hydrated and consider indoor activities.")
	case tempC > 20:
		parts = append(parts, "Perfect weather for outdoor activities!")
	case tempC > 10:
		parts = append(parts, "Pleasant weather, but bring a light jacket.")
	case tempC > 0:
		parts = append(parts, "It's cold! Dress warmly.")
	default:
		parts = append(parts, "It's freezing! Bundle up and stay warm.")
	}

	cond := strings.ToLower(condition)
	switch {
	case strings.Contains(cond, "rain"), strings.Contains(cond, "drizzle"):
		parts = append(parts, "Don't forget your umbrella!")
	case strings.Contains(cond, "snow"):
		parts = append(parts, "Snow expected! Drive carefully.")
	case strings.Contains(cond, "cloud"):
		parts = append(parts, "Cloudy skies today.")
	case strings.Contains(cond, "clear"), strings.Contains(cond, "sun"):
		parts = append(parts, "Clear skies ahead!")
	}
	return strings.Join(parts, " ")
}
