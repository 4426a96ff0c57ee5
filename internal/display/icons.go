// Package display turns provider payloads into display-ready values: icon
// variants, unit-suffixed strings, chart series and map URLs. Everything in
// here is a pure function of its inputs.
package display

import (
	"embed"
	"fmt"
)

//go:embed icons/*.svg
var iconFS embed.FS

// Icon is one of the eight pictures the dashboard draws for a condition.
type Icon string

const (
	IconClearSky     Icon = "clear-sky"
	IconFewClouds    Icon = "few-clouds"
	IconCloudy       Icon = "cloudy"
	IconShowerRain   Icon = "shower-rain"
	IconRain         Icon = "rain"
	IconThunderstorm Icon = "thunderstorm"
	IconSnow         Icon = "snow"
	IconMist         Icon = "mist"
)

// Icons lists every variant in display order.
var Icons = []Icon{
	IconClearSky, IconFewClouds, IconCloudy, IconShowerRain,
	IconRain, IconThunderstorm, IconSnow, IconMist,
}

var iconLabels = map[Icon]string{
	IconClearSky:     "Clear sky",
	IconFewClouds:    "Few clouds",
	IconCloudy:       "Cloudy",
	IconShowerRain:   "Shower rain",
	IconRain:         "Rain",
	IconThunderstorm: "Thunderstorm",
	IconSnow:         "Snow",
	IconMist:         "Mist",
}

// IconFor maps a provider condition code ("10d", "09n", ...) to its variant.
// Only the first two characters matter. Unknown or short codes fall back to
// clear sky.
func IconFor(code string) Icon {
	if len(code) < 2 {
		return IconClearSky
	}

	switch code[:2] {
	case "01":
		return IconClearSky
	case "02":
		return IconFewClouds
	case "03", "04":
		return IconCloudy
	case "09":
		return IconShowerRain
	case "10":
		return IconRain
	case "11":
		return IconThunderstorm
	case "13":
		return IconSnow
	case "50":
		return IconMist
	default:
		return IconClearSky
	}
}

func (i Icon) Label() string {
	if l, ok := iconLabels[i]; ok {
		return l
	}
	return iconLabels[IconClearSky]
}

// SVG returns the embedded artwork for the variant.
func (i Icon) SVG() ([]byte, error) {
	if _, ok := iconLabels[i]; !ok {
		i = IconClearSky
	}
	data, err := iconFS.ReadFile("icons/" + string(i) + ".svg")
	if err != nil {
		return nil, fmt.Errorf("reading icon %s: %w", i, err)
	}
	return data, nil
}
