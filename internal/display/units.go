package display

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// NotAvailable is shown wherever the provider left a field out.
const NotAvailable = "N/A"

var ErrInvalidUnits = errors.New("units must be metric or imperial")

// Units is the display convention the provider is queried in.
type Units string

const (
	Metric   Units = "metric"
	Imperial Units = "imperial"
)

func ParseUnits(s string) (Units, error) {
	switch Units(strings.ToLower(strings.TrimSpace(s))) {
	case Metric:
		return Metric, nil
	case Imperial:
		return Imperial, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidUnits, s)
}

func (u Units) Toggle() Units {
	if u == Imperial {
		return Metric
	}
	return Imperial
}

func (u Units) TemperatureSuffix() string {
	if u == Imperial {
		return "°F"
	}
	return "°C"
}

func (u Units) SpeedSuffix() string {
	if u == Imperial {
		return "mph"
	}
	return "m/s"
}

// Round rounds to the nearest integer with halves going up, so -2.5 becomes
// -2 rather than -3.
func Round(v float64) int {
	r := math.Floor(v)
	if v-r >= 0.5 {
		r++
	}
	return int(r)
}

// RoundPtr is Round for an optional value.
func RoundPtr(v *float64) *int {
	if v == nil {
		return nil
	}
	r := Round(*v)
	return &r
}

func FormatTemperature(u Units, v *float64) string {
	if v == nil {
		return NotAvailable
	}
	return strconv.Itoa(Round(*v)) + u.TemperatureSuffix()
}

func FormatWindSpeed(u Units, v *float64) string {
	if v == nil {
		return NotAvailable
	}
	return strconv.Itoa(Round(*v)) + " " + u.SpeedSuffix()
}

// FormatPercent formats a value already on a 0..100 scale.
func FormatPercent(v *float64) string {
	if v == nil {
		return NotAvailable
	}
	return strconv.Itoa(Round(*v)) + "%"
}

// FormatProbability formats a 0..1 probability as a percentage.
func FormatProbability(v *float64) string {
	if v == nil {
		return NotAvailable
	}
	return strconv.Itoa(Round(*v*100)) + "%"
}

func FormatPressure(v *float64) string {
	if v == nil {
		return NotAvailable
	}
	return strconv.Itoa(Round(*v)) + " hPa"
}

// FormatVisibility takes metres, as the provider always reports them.
func FormatVisibility(u Units, meters *float64) string {
	if meters == nil {
		return NotAvailable
	}
	if u == Imperial {
		return strconv.FormatFloat(*meters/1609.344, 'f', 1, 64) + " mi"
	}
	return strconv.FormatFloat(*meters/1000, 'f', 1, 64) + " km"
}
