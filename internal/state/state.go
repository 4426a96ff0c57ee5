// Package state holds the per-session dashboard state and the stores that keep
// it between requests. Every update is a function from one AppState value to
// the next; nothing mutates a state in place.
package state

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bobby-s-dev/weather-dashboard/internal/display"
	"github.com/bobby-s-dev/weather-dashboard/internal/models"
)

var (
	ErrNotFound     = errors.New("session not found")
	ErrConflict     = errors.New("session changed concurrently")
	ErrInvalidTheme = errors.New("theme must be light or dark")
	ErrUnknownChart = errors.New("chart must be temperature or precipitation")
)

type Theme string

const (
	Light Theme = "light"
	Dark  Theme = "dark"
)

func ParseTheme(s string) (Theme, error) {
	switch Theme(strings.ToLower(strings.TrimSpace(s))) {
	case Light:
		return Light, nil
	case Dark:
		return Dark, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidTheme, s)
}

func (t Theme) Toggle() Theme {
	if t == Dark {
		return Light
	}
	return Dark
}

// Chart names one of the two forecast charts.
type Chart string

const (
	TemperatureChart   Chart = "temperature"
	PrecipitationChart Chart = "precipitation"
)

func ParseChart(s string) (Chart, error) {
	switch Chart(strings.ToLower(strings.TrimSpace(s))) {
	case TemperatureChart:
		return TemperatureChart, nil
	case PrecipitationChart:
		return PrecipitationChart, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownChart, s)
}

// AppState is everything one dashboard session shows.
type AppState struct {
	ID                string            `json:"id"`
	Units             display.Units     `json:"units"`
	Theme             Theme             `json:"theme"`
	Location          *models.Location  `json:"location,omitempty"`
	Weather           *models.Snapshot  `json:"weather,omitempty"`
	MapLayer          display.MapLayer  `json:"map_layer"`
	TemperatureView   display.ChartView `json:"temperature_view"`
	PrecipitationView display.ChartView `json:"precipitation_view"`
	AutoRefresh       bool              `json:"auto_refresh"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// New returns the initial state: no location, weekly charts, temperature map.
func New(id string, units display.Units, theme Theme, now time.Time) AppState {
	if units == "" {
		units = display.Metric
	}
	if theme == "" {
		theme = Light
	}
	return AppState{
		ID:                id,
		Units:             units,
		Theme:             theme,
		MapLayer:          display.LayerTemperature,
		TemperatureView:   display.Weekly,
		PrecipitationView: display.Weekly,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// HasLocation reports whether a location has been selected.
func (s AppState) HasLocation() bool {
	return s.Location != nil
}

func (s AppState) ToggleUnits() AppState {
	s.Units = s.Units.Toggle()
	return s
}

func (s AppState) WithUnits(u display.Units) AppState {
	s.Units = u
	return s
}

func (s AppState) ToggleTheme() AppState {
	s.Theme = s.Theme.Toggle()
	return s
}

func (s AppState) WithTheme(t Theme) AppState {
	s.Theme = t
	return s
}

// WithLocation selects a location. The previous snapshot belongs to the old
// location and is dropped.
func (s AppState) WithLocation(loc models.Location) AppState {
	s.Location = &loc
	s.Weather = nil
	return s
}

// WithSnapshot replaces the fetched data wholesale.
func (s AppState) WithSnapshot(snap *models.Snapshot) AppState {
	s.Weather = snap
	return s
}

func (s AppState) WithMapLayer(layer display.MapLayer) AppState {
	s.MapLayer = display.ParseMapLayer(string(layer))
	return s
}

func (s AppState) ToggleChartView(chart Chart) (AppState, error) {
	switch chart {
	case TemperatureChart:
		s.TemperatureView = s.TemperatureView.Toggle()
	case PrecipitationChart:
		s.PrecipitationView = s.PrecipitationView.Toggle()
	default:
		return s, fmt.Errorf("%w: %q", ErrUnknownChart, chart)
	}
	return s, nil
}

func (s AppState) WithAutoRefresh(enabled bool) AppState {
	s.AutoRefresh = enabled
	return s
}

func (s AppState) Touched(now time.Time) AppState {
	s.UpdatedAt = now
	return s
}
