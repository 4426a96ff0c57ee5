package models

import (
	"strings"
	"time"
)

// Condition is one entry of the provider's "weather" array.
type Condition struct {
	ID          int    `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// Numeric fields are pointers throughout: the provider omits what it does
// not know and every consumer has to tell "absent" apart from zero.

type MainReadings struct {
	Temp      *float64 `json:"temp,omitempty"`
	FeelsLike *float64 `json:"feels_like,omitempty"`
	TempMin   *float64 `json:"temp_min,omitempty"`
	TempMax   *float64 `json:"temp_max,omitempty"`
	Pressure  *float64 `json:"pressure,omitempty"`
	Humidity  *float64 `json:"humidity,omitempty"`
}

type Wind struct {
	Speed *float64 `json:"speed,omitempty"`
	Deg   *float64 `json:"deg,omitempty"`
}

type Clouds struct {
	All *float64 `json:"all,omitempty"`
}

type SunCycle struct {
	Country string `json:"country,omitempty"`
	Sunrise int64  `json:"sunrise,omitempty"`
	Sunset  int64  `json:"sunset,omitempty"`
}

type Coord struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// CurrentWeather mirrors the provider's current-conditions payload.
type CurrentWeather struct {
	Coord      Coord        `json:"coord"`
	Weather    []Condition  `json:"weather,omitempty"`
	Main       MainReadings `json:"main"`
	Visibility *float64     `json:"visibility,omitempty"`
	Wind       Wind         `json:"wind"`
	Clouds     Clouds       `json:"clouds"`
	Dt         int64        `json:"dt"`
	Sys        SunCycle     `json:"sys"`
	Timezone   int          `json:"timezone"`
	Name       string       `json:"name"`
}

// Condition returns the primary condition, if the provider sent one.
func (c *CurrentWeather) Condition() (Condition, bool) {
	if c == nil || len(c.Weather) == 0 {
		return Condition{}, false
	}
	return c.Weather[0], true
}

type OneCallCurrent struct {
	Dt         int64       `json:"dt"`
	Sunrise    int64       `json:"sunrise,omitempty"`
	Sunset     int64       `json:"sunset,omitempty"`
	Temp       *float64    `json:"temp,omitempty"`
	FeelsLike  *float64    `json:"feels_like,omitempty"`
	Pressure   *float64    `json:"pressure,omitempty"`
	Humidity   *float64    `json:"humidity,omitempty"`
	UVI        *float64    `json:"uvi,omitempty"`
	Clouds     *float64    `json:"clouds,omitempty"`
	Visibility *float64    `json:"visibility,omitempty"`
	WindSpeed  *float64    `json:"wind_speed,omitempty"`
	Weather    []Condition `json:"weather,omitempty"`
}

// HourlyPoint is one hourly forecast entry.
type HourlyPoint struct {
	Dt        int64       `json:"dt"`
	Temp      *float64    `json:"temp,omitempty"`
	FeelsLike *float64    `json:"feels_like,omitempty"`
	Humidity  *float64    `json:"humidity,omitempty"`
	Pop       *float64    `json:"pop,omitempty"`
	Weather   []Condition `json:"weather,omitempty"`
}

type DailyTemp struct {
	Day *float64 `json:"day,omitempty"`
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// DailyPoint is one daily forecast entry.
type DailyPoint struct {
	Dt       int64       `json:"dt"`
	Temp     DailyTemp   `json:"temp"`
	Humidity *float64    `json:"humidity,omitempty"`
	Pop      *float64    `json:"pop,omitempty"`
	Weather  []Condition `json:"weather,omitempty"`
}

type Alert struct {
	SenderName  string `json:"sender_name"`
	Event       string `json:"event"`
	Start       int64  `json:"start"`
	End         int64  `json:"end"`
	Description string `json:"description"`
}

// OneCall bundles current, hourly, daily and alert data for a coordinate.
type OneCall struct {
	Lat            float64         `json:"lat"`
	Lon            float64         `json:"lon"`
	Timezone       string          `json:"timezone"`
	TimezoneOffset int             `json:"timezone_offset"`
	Current        *OneCallCurrent `json:"current,omitempty"`
	Hourly         []HourlyPoint   `json:"hourly,omitempty"`
	Daily          []DailyPoint    `json:"daily,omitempty"`
	Alerts         []Alert         `json:"alerts,omitempty"`
}

// Location is a geocoding result.
type Location struct {
	Name    string  `json:"name"`
	Country string  `json:"country"`
	State   string  `json:"state,omitempty"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// Label renders "name, state, country", leaving out empty parts.
func (l Location) Label() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{l.Name, l.State, l.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// Snapshot is everything fetched for one location in one go. It is replaced
// wholesale on every successful fetch.
type Snapshot struct {
	Current   *CurrentWeather `json:"current,omitempty"`
	OneCall   *OneCall        `json:"one_call,omitempty"`
	Units     string          `json:"units"`
	FetchedAt time.Time       `json:"fetched_at"`
}

// Zone returns the location's fixed zone, preferring the one-call offset.
func (s *Snapshot) Zone() *time.Location {
	if s == nil {
		return time.UTC
	}
	switch {
	case s.OneCall != nil:
		return time.FixedZone("", s.OneCall.TimezoneOffset)
	case s.Current != nil:
		return time.FixedZone("", s.Current.Timezone)
	}
	return time.UTC
}
