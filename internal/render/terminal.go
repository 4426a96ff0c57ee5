// Package render draws a dashboard view in the terminal.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/bobby-s-dev/weather-dashboard/internal/display"
	"github.com/bobby-s-dev/weather-dashboard/internal/services"
	"github.com/bobby-s-dev/weather-dashboard/internal/state"
)

const barWidth = 20

// Palette is the colour set for one theme.
type Palette struct {
	Foreground lipgloss.Color
	Primary    lipgloss.Color
	Accent     lipgloss.Color
	Muted      lipgloss.Color
	Border     lipgloss.Color
	Alert      lipgloss.Color
}

var (
	lightPalette = Palette{
		Foreground: lipgloss.Color("#101F38"),
		Primary:    lipgloss.Color("#1565C0"),
		Accent:     lipgloss.Color("#F9A825"),
		Muted:      lipgloss.Color("#6B7280"),
		Border:     lipgloss.Color("#D6DAE0"),
		Alert:      lipgloss.Color("#E53935"),
	}
	darkPalette = Palette{
		Foreground: lipgloss.Color("#F2F2F2"),
		Primary:    lipgloss.Color("#64B5F6"),
		Accent:     lipgloss.Color("#FFD54F"),
		Muted:      lipgloss.Color("#9CA3AF"),
		Border:     lipgloss.Color("#2A3850"),
		Alert:      lipgloss.Color("#EF5350"),
	}
)

func PaletteFor(theme state.Theme) Palette {
	if theme == state.Dark {
		return darkPalette
	}
	return lightPalette
}

type Styles struct {
	Title lipgloss.Style
	Muted lipgloss.Style
	Card  lipgloss.Style
	Label lipgloss.Style
	Value lipgloss.Style
	Bar   lipgloss.Style
	Alert lipgloss.Style
}

func NewStyles(theme state.Theme) Styles {
	p := PaletteFor(theme)
	return Styles{
		Title: lipgloss.NewStyle().Bold(true).Foreground(p.Primary),
		Muted: lipgloss.NewStyle().Foreground(p.Muted),
		Card: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.Border).
			Padding(0, 1),
		Label: lipgloss.NewStyle().Foreground(p.Muted).Width(16),
		Value: lipgloss.NewStyle().Foreground(p.Foreground),
		Bar:   lipgloss.NewStyle().Foreground(p.Accent),
		Alert: lipgloss.NewStyle().Bold(true).Foreground(p.Alert),
	}
}

// Dashboard renders the whole view as a block of terminal text.
func Dashboard(v services.DashboardView) string {
	st := NewStyles(v.Theme)

	if !v.HasWeather {
		return st.Card.Render(st.Muted.Render("No location selected. Search for a city to get started."))
	}

	sections := []string{
		currentSection(st, v),
		hourlySection(st, v.Hourly),
	}
	if v.Details != nil {
		sections = append(sections, detailsSection(st, *v.Details))
	}
	sections = append(sections,
		temperatureSection(st, v.TemperatureChart),
		precipitationSection(st, v.PrecipitationChart),
	)
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func currentSection(st Styles, v services.DashboardView) string {
	if v.Current == nil {
		return st.Card.Render(st.Title.Render(v.Location))
	}
	c := v.Current
	lines := []string{
		st.Title.Render(c.Location),
		fmt.Sprintf("%s  %s", st.Value.Bold(true).Render(c.Temperature), c.Icon.Label()),
		st.Muted.Render(fmt.Sprintf("%s · feels like %s", c.Description, c.FeelsLike)),
	}
	return st.Card.Render(strings.Join(lines, "\n"))
}

func hourlySection(st Styles, items []display.HourlyItem) string {
	if len(items) == 0 {
		return ""
	}
	cols := make([]string, 0, len(items))
	for _, it := range items {
		cols = append(cols, lipgloss.NewStyle().Width(8).Align(lipgloss.Center).Render(
			st.Muted.Render(it.Label)+"\n"+st.Value.Render(it.Temperature)))
	}
	return st.Card.Render(lipgloss.JoinHorizontal(lipgloss.Top, cols...))
}

func detailsSection(st Styles, d display.Details) string {
	rows := [][2]string{
		{"High / Low", d.HighLow},
		{"Sunrise", d.Sunrise},
		{"Sunset", d.Sunset},
		{"Precipitation", d.Precipitation},
		{"Cloud cover", d.CloudCover},
		{"UV index", d.UVIndex},
		{"Humidity", d.Humidity},
		{"Wind", d.Wind},
		{"Pressure", d.Pressure},
		{"Visibility", d.Visibility},
	}

	lines := make([]string, 0, len(rows)+2)
	for _, r := range rows {
		lines = append(lines, st.Label.Render(r[0])+st.Value.Render(r[1]))
	}
	if d.Alert != nil {
		lines = append(lines, "", st.Alert.Render(d.Alert.Title), d.Alert.Description)
	}
	return st.Card.Render(strings.Join(lines, "\n"))
}

func temperatureSection(st Styles, chart display.TemperatureChart) string {
	title := st.Title.Render(fmt.Sprintf("Temperature (%s, %s)", chart.View, chart.Unit))
	if len(chart.Points) == 0 {
		return st.Card.Render(title + "\n" + st.Muted.Render(display.NotAvailable))
	}

	lo, hi, ok := tempRange(chart.Points)
	lines := []string{title}
	for _, p := range chart.Points {
		v := p.Temperature
		if chart.View == display.Monthly {
			v = p.Max
		}
		lines = append(lines, st.Label.Render(p.Label)+barLine(st, v, lo, hi, ok, chart.Unit))
	}
	return st.Card.Render(strings.Join(lines, "\n"))
}

func precipitationSection(st Styles, chart display.PrecipitationChart) string {
	title := st.Title.Render(fmt.Sprintf("Precipitation (%s)", chart.View))
	if len(chart.Points) == 0 {
		return st.Card.Render(title + "\n" + st.Muted.Render(display.NotAvailable))
	}

	lines := []string{title}
	for _, p := range chart.Points {
		lines = append(lines, st.Label.Render(p.Label)+barLine(st, p.Probability, 0, 100, true, "%"))
	}
	return st.Card.Render(strings.Join(lines, "\n"))
}

func barLine(st Styles, v *int, lo, hi int, ok bool, unit string) string {
	if v == nil || !ok {
		return st.Muted.Render(display.NotAvailable)
	}
	n := barWidth
	if hi > lo {
		n = 1 + (*v-lo)*(barWidth-1)/(hi-lo)
	}
	return st.Bar.Render(strings.Repeat("█", n)) + " " + st.Value.Render(fmt.Sprintf("%d%s", *v, unit))
}

func tempRange(points []display.TemperaturePoint) (lo, hi int, ok bool) {
	for _, p := range points {
		for _, v := range []*int{p.Temperature, p.Max, p.Min} {
			if v == nil {
				continue
			}
			if !ok || *v < lo {
				lo = *v
			}
			if !ok || *v > hi {
				hi = *v
			}
			ok = true
		}
	}
	return lo, hi, ok
}
