package display

import (
	"fmt"
	"time"

	"github.com/bobby-s-dev/weather-dashboard/internal/models"
)

// ChartView selects which forecast series a chart is drawn from.
type ChartView string

const (
	// Weekly draws the next 24 hourly points.
	Weekly ChartView = "weekly"
	// Monthly draws the next 7 daily points.
	Monthly ChartView = "monthly"
)

const (
	HourlyWindow = 24
	DailyWindow  = 7
)

func ParseChartView(s string) (ChartView, error) {
	switch ChartView(s) {
	case Weekly, Monthly:
		return ChartView(s), nil
	}
	return "", fmt.Errorf("unknown chart view %q", s)
}

func (v ChartView) Toggle() ChartView {
	if v == Monthly {
		return Weekly
	}
	return Monthly
}

// Window returns at most the first n items of series. Shorter series come
// back whole, never padded.
func Window[T any](series []T, n int) []T {
	if n <= 0 || len(series) == 0 {
		return []T{}
	}
	if len(series) < n {
		n = len(series)
	}
	out := make([]T, n)
	copy(out, series[:n])
	return out
}

// TemperaturePoint carries either the hourly pair (Temperature, FeelsLike) or
// the daily pair (Max, Min), depending on the chart view.
type TemperaturePoint struct {
	Label       string `json:"label"`
	Temperature *int   `json:"temperature,omitempty"`
	FeelsLike   *int   `json:"feels_like,omitempty"`
	Max         *int   `json:"max,omitempty"`
	Min         *int   `json:"min,omitempty"`
}

type PrecipitationPoint struct {
	Label       string `json:"label"`
	Probability *int   `json:"probability,omitempty"`
	Humidity    *int   `json:"humidity,omitempty"`
}

type TemperatureChart struct {
	View   ChartView          `json:"view"`
	Unit   string             `json:"unit"`
	Points []TemperaturePoint `json:"points"`
}

type PrecipitationChart struct {
	View   ChartView            `json:"view"`
	Points []PrecipitationPoint `json:"points"`
}

// HourLabel renders a unix timestamp as "3PM" in loc.
func HourLabel(dt int64, loc *time.Location) string {
	return formatUnix(dt, loc, "3PM")
}

// DayLabel renders a unix timestamp as "Mon" in loc.
func DayLabel(dt int64, loc *time.Location) string {
	return formatUnix(dt, loc, "Mon")
}

func formatUnix(dt int64, loc *time.Location, layout string) string {
	if dt == 0 {
		return NotAvailable
	}
	if loc == nil {
		loc = time.UTC
	}
	return time.Unix(dt, 0).In(loc).Format(layout)
}

func BuildTemperatureChart(u Units, view ChartView, hourly []models.HourlyPoint, daily []models.DailyPoint, loc *time.Location) TemperatureChart {
	chart := TemperatureChart{View: view, Unit: u.TemperatureSuffix()}

	if view == Monthly {
		days := Window(daily, DailyWindow)
		chart.Points = make([]TemperaturePoint, 0, len(days))
		for _, d := range days {
			chart.Points = append(chart.Points, TemperaturePoint{
				Label: DayLabel(d.Dt, loc),
				Max:   RoundPtr(d.Temp.Max),
				Min:   RoundPtr(d.Temp.Min),
			})
		}
		return chart
	}

	hours := Window(hourly, HourlyWindow)
	chart.Points = make([]TemperaturePoint, 0, len(hours))
	for _, h := range hours {
		chart.Points = append(chart.Points, TemperaturePoint{
			Label:       HourLabel(h.Dt, loc),
			Temperature: RoundPtr(h.Temp),
			FeelsLike:   RoundPtr(h.FeelsLike),
		})
	}
	return chart
}

func BuildPrecipitationChart(view ChartView, hourly []models.HourlyPoint, daily []models.DailyPoint, loc *time.Location) PrecipitationChart {
	chart := PrecipitationChart{View: view}

	if view == Monthly {
		days := Window(daily, DailyWindow)
		chart.Points = make([]PrecipitationPoint, 0, len(days))
		for _, d := range days {
			chart.Points = append(chart.Points, PrecipitationPoint{
				Label:       DayLabel(d.Dt, loc),
				Probability: probabilityPercent(d.Pop),
				Humidity:    RoundPtr(d.Humidity),
			})
		}
		return chart
	}

	hours := Window(hourly, HourlyWindow)
	chart.Points = make([]PrecipitationPoint, 0, len(hours))
	for _, h := range hours {
		chart.Points = append(chart.Points, PrecipitationPoint{
			Label:       HourLabel(h.Dt, loc),
			Probability: probabilityPercent(h.Pop),
			Humidity:    RoundPtr(h.Humidity),
		})
	}
	return chart
}

func probabilityPercent(pop *float64) *int {
	if pop == nil {
		return nil
	}
	p := Round(*pop * 100)
	return &p
}
