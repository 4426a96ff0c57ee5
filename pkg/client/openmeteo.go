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

const DefaultOpenMeteoGeoURL = "https://geocoding-api.open-meteo.com"

// OpenMeteoGeocoder resolves place names without an API key. It only covers
// location search; weather data still comes from OpenWeatherMap.
type OpenMeteoGeocoder struct {
	*BaseClient
	baseURL string
}

type openMeteoSearchResponse struct {
	Results []struct {
		Name        string  `json:"name"`
		Latitude    float64 `json:"latitude"`
		Longitude   float64 `json:"longitude"`
		CountryCode string  `json:"country_code"`
		Admin1      string  `json:"admin1"`
	} `json:"results"`
}

func NewOpenMeteoGeocoder(config ClientConfig, logger *zap.Logger) *OpenMeteoGeocoder {
	return NewOpenMeteoGeocoderWithURL(DefaultOpenMeteoGeoURL, NewBaseClient("openmeteo", config, logger))
}

func NewOpenMeteoGeocoderWithURL(baseURL string, base *BaseClient) *OpenMeteoGeocoder {
	return &OpenMeteoGeocoder{
		BaseClient: base,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

func (c *OpenMeteoGeocoder) Search(ctx context.Context, query string, limit int) ([]models.Location, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	q := url.Values{}
	q.Set("name", query)
	q.Set("count", strconv.Itoa(limit))
	q.Set("language", "en")
	q.Set("format", "json")

	var response openMeteoSearchResponse
	if err := c.GetJSON(ctx, c.baseURL+"/v1/search?"+q.Encode(), &response); err != nil {
		return nil, fmt.Errorf("failed to search locations for %q: %w", query, err)
	}

	// A query with no match comes back without a "results" key at all.
	locations := make([]models.Location, 0, len(response.Results))
	for _, r := range response.Results {
		locations = append(locations, models.Location{
			Name:    r.Name,
			Country: r.CountryCode,
			State:   r.Admin1,
			Lat:     r.Latitude,
			Lon:     r.Longitude,
		})
	}
	return locations, nil
}
