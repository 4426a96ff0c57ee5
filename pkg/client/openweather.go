package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/bobby-s-dev/weather-dashboard/internal/models"
)

const (
	DefaultOpenWeatherURL = "https://api.openweathermap.org"
	DefaultSearchLimit    = 5
)

// OpenWeatherClient talks to the current-weather, one-call and geocoding
// endpoints. All three share one base URL and one circuit breaker.
type OpenWeatherClient struct {
	*BaseClient
	apiKey  string
	baseURL string
	geoURL  string
}

func NewOpenWeatherClient(apiKey string, config ClientConfig, logger *zap.Logger) *OpenWeatherClient {
	return NewOpenWeatherClientWithURLs(DefaultOpenWeatherURL, DefaultOpenWeatherURL, apiKey, NewBaseClient("openweather", config, logger))
}

// NewOpenWeatherClientWithURLs points the data and geocoding calls at other
// hosts (tests, proxies). An empty geoURL reuses baseURL.
func NewOpenWeatherClientWithURLs(baseURL, geoURL, apiKey string, base *BaseClient) *OpenWeatherClient {
	if geoURL == "" {
		geoURL = baseURL
	}
	return &OpenWeatherClient{
		BaseClient: base,
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		geoURL:     strings.TrimRight(geoURL, "/"),
	}
}

type geocodingEntry struct {
	Name    string  `json:"name"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Country string  `json:"country"`
	State   string  `json:"state"`
}

// Search resolves a free-text place name to candidate locations.
func (c *OpenWeatherClient) Search(ctx context.Context, query string, limit int) ([]models.Location, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	q := url.Values{}
	q.Set("q", query)
	q.Set("limit", strconv.Itoa(limit))
	q.Set("appid", c.apiKey)

	var raw []geocodingEntry
	if err := c.GetJSON(ctx, c.geoURL+"/geo/1.0/direct?"+q.Encode(), &raw); err != nil {
		return nil, fmt.Errorf("failed to search locations for %q: %w", query, err)
	}

	locations := make([]models.Location, 0, len(raw))
	for _, e := range raw {
		locations = append(locations, models.Location{
			Name:    e.Name,
			Country: e.Country,
			State:   e.State,
			Lat:     e.Lat,
			Lon:     e.Lon,
		})
	}
	return locations, nil
}

// Current fetches current conditions at a coordinate in the given unit system.
func (c *OpenWeatherClient) Current(ctx context.Context, lat, lon float64, units string) (*models.CurrentWeather, error) {
	var weather models.CurrentWeather
	if err := c.GetJSON(ctx, c.coordURL("/data/2.5/weather", lat, lon, units, nil), &weather); err != nil {
		return nil, fmt.Errorf("failed to fetch current weather: %w", err)
	}
	return &weather, nil
}

// OneCall fetches the bundled current/hourly/daily/alerts payload.
func (c *OpenWeatherClient) OneCall(ctx context.Context, lat, lon float64, units string) (*models.OneCall, error) {
	extra := url.Values{}
	extra.Set("exclude", "minutely")

	var data models.OneCall
	if err := c.GetJSON(ctx, c.coordURL("/data/3.0/onecall", lat, lon, units, extra), &data); err != nil {
		return nil, fmt.Errorf("failed to fetch forecast: %w", err)
	}
	return &data, nil
}

func (c *OpenWeatherClient) coordURL(path string, lat, lon float64, units string, extra url.Values) string {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("units", units)
	q.Set("appid", c.apiKey)
	for k, vs := range extra {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	return c.baseURL + path + "?" + q.Encode()
}
