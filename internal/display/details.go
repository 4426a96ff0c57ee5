package display

import (
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/bobby-s-dev/weather-dashboard/internal/models"
)

// AlertDescriptionLimit is how many characters of an alert body are shown.
const AlertDescriptionLimit = 120

// HourlyStripSize is how many hours the current-conditions card shows.
const HourlyStripSize = 8

type AlertView struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Details is the "weather details" panel: every value is a display string.
type Details struct {
	HighLow       string     `json:"high_low"`
	Sunrise       string     `json:"sunrise"`
	Sunset        string     `json:"sunset"`
	Precipitation string     `json:"precipitation"`
	CloudCover    string     `json:"cloud_cover"`
	UVIndex       string     `json:"uv_index"`
	Humidity      string     `json:"humidity"`
	Wind          string     `json:"wind"`
	Pressure      string     `json:"pressure"`
	Visibility    string     `json:"visibility"`
	Alert         *AlertView `json:"alert,omitempty"`
}

func BuildDetails(u Units, current *models.CurrentWeather, oneCall *models.OneCall, loc *time.Location) Details {
	d := Details{
		HighLow:       NotAvailable,
		Sunrise:       NotAvailable,
		Sunset:        NotAvailable,
		Precipitation: NotAvailable,
		CloudCover:    NotAvailable,
		UVIndex:       NotAvailable,
		Humidity:      NotAvailable,
		Wind:          NotAvailable,
		Pressure:      NotAvailable,
		Visibility:    NotAvailable,
	}

	if current != nil {
		d.HighLow = formatHighLow(u, current.Main.TempMax, current.Main.TempMin)
		d.Sunrise = ClockLabel(current.Sys.Sunrise, loc)
		d.Sunset = ClockLabel(current.Sys.Sunset, loc)
		d.CloudCover = FormatPercent(current.Clouds.All)
		d.Humidity = FormatPercent(current.Main.Humidity)
		d.Wind = FormatWindSpeed(u, current.Wind.Speed)
		d.Pressure = FormatPressure(current.Main.Pressure)
		d.Visibility = FormatVisibility(u, current.Visibility)
	}

	if oneCall != nil {
		if oneCall.Current != nil && oneCall.Current.UVI != nil {
			uvi := Round(*oneCall.Current.UVI)
			d.UVIndex = strconv.Itoa(uvi) + " (" + UVLevel(float64(uvi)) + ")"
		}
		if len(oneCall.Hourly) > 0 {
			d.Precipitation = FormatProbability(oneCall.Hourly[0].Pop)
		}
		if len(oneCall.Alerts) > 0 {
			a := oneCall.Alerts[0]
			d.Alert = &AlertView{
				Title:       a.Event,
				Description: Truncate(a.Description, AlertDescriptionLimit),
			}
		}
	}

	return d
}

func formatHighLow(u Units, max, min *float64) string {
	if max == nil && min == nil {
		return NotAvailable
	}
	part := func(v *float64) string {
		if v == nil {
			return NotAvailable
		}
		return strconv.Itoa(Round(*v))
	}
	return part(max) + "/" + part(min) + u.TemperatureSuffix()
}

// UVLevel names the exposure band for a UV index.
func UVLevel(uvi float64) string {
	switch {
	case uvi <= 2:
		return "Low"
	case uvi <= 5:
		return "Moderate"
	case uvi <= 7:
		return "High"
	case uvi <= 10:
		return "Very High"
	default:
		return "Extreme"
	}
}

// Truncate cuts s to max characters and appends "..." when it had to cut.
func Truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max]) + "..."
}

// ClockLabel renders a unix timestamp as "6:42 AM" in loc.
func ClockLabel(dt int64, loc *time.Location) string {
	return formatUnix(dt, loc, "3:04 PM")
}

// CurrentCard is the headline block of the dashboard.
type CurrentCard struct {
	Location    string `json:"location"`
	Icon        Icon   `json:"icon"`
	IconCode    string `json:"icon_code,omitempty"`
	Temperature string `json:"temperature"`
	FeelsLike   string `json:"feels_like"`
	Description string `json:"description"`
}

func BuildCurrentCard(u Units, location string, current *models.CurrentWeather) CurrentCard {
	card := CurrentCard{
		Location:    location,
		Icon:        IconClearSky,
		Temperature: NotAvailable,
		FeelsLike:   NotAvailable,
		Description: NotAvailable,
	}
	if current == nil {
		return card
	}

	if location == "" {
		card.Location = current.Name
	}
	card.Temperature = FormatTemperature(u, current.Main.Temp)
	card.FeelsLike = FormatTemperature(u, current.Main.FeelsLike)
	if cond, ok := current.Condition(); ok {
		card.Icon = IconFor(cond.Icon)
		card.IconCode = cond.Icon
		if cond.Description != "" {
			card.Description = cond.Description
		}
	}
	return card
}

type HourlyItem struct {
	Label       string `json:"label"`
	Icon        Icon   `json:"icon"`
	Temperature string `json:"temperature"`
}

// BuildHourlyStrip renders the first few hours with "3 PM" style labels.
func BuildHourlyStrip(u Units, hourly []models.HourlyPoint, loc *time.Location) []HourlyItem {
	hours := Window(hourly, HourlyStripSize)
	items := make([]HourlyItem, 0, len(hours))
	for _, h := range hours {
		icon := IconClearSky
		if len(h.Weather) > 0 {
			icon = IconFor(h.Weather[0].Icon)
		}
		items = append(items, HourlyItem{
			Label:       formatUnix(h.Dt, loc, "3 PM"),
			Icon:        icon,
			Temperature: FormatTemperature(u, h.Temp),
		})
	}
	return items
}
