package services

import (
	"time"

	"github.com/bobby-s-dev/weather-dashboard/internal/display"
	"github.com/bobby-s-dev/weather-dashboard/internal/models"
	"github.com/bobby-s-dev/weather-dashboard/internal/state"
)

// DashboardView is the fully formatted dashboard for one session.
type DashboardView struct {
	SessionID          string                     `json:"session_id"`
	Units              display.Units              `json:"units"`
	Theme              state.Theme                `json:"theme"`
	AutoRefresh        bool                       `json:"auto_refresh"`
	Location           string                     `json:"location"`
	HasWeather         bool                       `json:"has_weather"`
	Current            *display.CurrentCard       `json:"current,omitempty"`
	Hourly             []display.HourlyItem       `json:"hourly"`
	Details            *display.Details           `json:"details,omitempty"`
	TemperatureChart   display.TemperatureChart   `json:"temperature_chart"`
	PrecipitationChart display.PrecipitationChart `json:"precipitation_chart"`
	Map                display.MapView            `json:"map"`
	FetchedAt          *time.Time                 `json:"fetched_at,omitempty"`
	UpdatedAt          time.Time                  `json:"updated_at"`
}

// ComposeView turns a session state into its formatted view. Values are
// labelled in the units they were fetched in, which differ from s.Units only
// after a unit toggle whose refetch failed.
func ComposeView(s state.AppState, mapAPIKey string) DashboardView {
	view := DashboardView{
		SessionID:   s.ID,
		Units:       s.Units,
		Theme:       s.Theme,
		AutoRefresh: s.AutoRefresh,
		Hourly:      []display.HourlyItem{},
		UpdatedAt:   s.UpdatedAt,
	}

	var lat, lon float64
	if s.Location != nil {
		view.Location = s.Location.Label()
		lat, lon = s.Location.Lat, s.Location.Lon
	}
	view.Map = display.BuildMapView(s.MapLayer, lat, lon, s.HasLocation(), mapAPIKey)

	snap := s.Weather
	units := s.Units
	if snap != nil {
		if u, err := display.ParseUnits(snap.Units); err == nil {
			units = u
		}
	}
	loc := snap.Zone()

	var (
		hourly []models.HourlyPoint
		daily  []models.DailyPoint
		oc     *models.OneCall
		cur    *models.CurrentWeather
	)
	if snap != nil {
		cur, oc = snap.Current, snap.OneCall
		fetched := snap.FetchedAt
		view.FetchedAt = &fetched
		view.HasWeather = cur != nil || oc != nil
	}
	if oc != nil {
		hourly, daily = oc.Hourly, oc.Daily
	}

	view.TemperatureChart = display.BuildTemperatureChart(units, s.TemperatureView, hourly, daily, loc)
	view.PrecipitationChart = display.BuildPrecipitationChart(s.PrecipitationView, hourly, daily, loc)

	if !view.HasWeather {
		return view
	}

	card := display.BuildCurrentCard(units, view.Location, cur)
	details := display.BuildDetails(units, cur, oc, loc)
	view.Current = &card
	view.Details = &details
	view.Hourly = display.BuildHourlyStrip(units, hourly, loc)
	return view
}
