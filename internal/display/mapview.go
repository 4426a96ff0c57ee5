package display

import (
	"fmt"
	"net/url"
	"strconv"
)

// MapLayer is the overlay drawn on the embedded weather map.
type MapLayer string

const (
	LayerTemperature   MapLayer = "temperature"
	LayerPrecipitation MapLayer = "precipitation"
	LayerWind          MapLayer = "wind"
	LayerClouds        MapLayer = "clouds"
)

const (
	MapZoom = 10

	// Shown when no location has been picked yet (New York).
	DefaultMapLat = 40.7128
	DefaultMapLon = -74.006

	tileURLFormat = "https://tile.openweathermap.org/map/%s/{z}/{x}/{y}.png?appid=%s"
	embedBaseURL  = "https://openweathermap.org/weathermap"
)

// ParseMapLayer never fails: anything unrecognised draws temperature.
func ParseMapLayer(s string) MapLayer {
	switch MapLayer(s) {
	case LayerPrecipitation, LayerWind, LayerClouds:
		return MapLayer(s)
	}
	return LayerTemperature
}

// TileLayer is the provider's tile layer name for l.
func (l MapLayer) TileLayer() string {
	switch l {
	case LayerPrecipitation:
		return "precipitation_new"
	case LayerWind:
		return "wind_new"
	case LayerClouds:
		return "clouds_new"
	default:
		return "temp_new"
	}
}

type MapView struct {
	Layer    MapLayer   `json:"layer"`
	Layers   []MapLayer `json:"layers"`
	TileURL  string     `json:"tile_url"`
	EmbedURL string     `json:"embed_url"`
	Lat      float64    `json:"lat"`
	Lon      float64    `json:"lon"`
	Zoom     int        `json:"zoom"`
}

// BuildMapView centres the map on lat/lon, or on the default city when
// hasLocation is false.
func BuildMapView(layer MapLayer, lat, lon float64, hasLocation bool, apiKey string) MapView {
	layer = ParseMapLayer(string(layer))
	if !hasLocation {
		lat, lon = DefaultMapLat, DefaultMapLon
	}

	// Layer names and formatted coordinates need no escaping.
	embed := fmt.Sprintf("%s?basemap=map&cities=false&layer=%s&lat=%s&lon=%s&zoom=%d",
		embedBaseURL, layer,
		strconv.FormatFloat(lat, 'f', -1, 64),
		strconv.FormatFloat(lon, 'f', -1, 64),
		MapZoom)

	return MapView{
		Layer:    layer,
		Layers:   []MapLayer{LayerTemperature, LayerPrecipitation, LayerWind, LayerClouds},
		TileURL:  fmt.Sprintf(tileURLFormat, layer.TileLayer(), url.QueryEscape(apiKey)),
		EmbedURL: embed,
		Lat:      lat,
		Lon:      lon,
		Zoom:     MapZoom,
	}
}
