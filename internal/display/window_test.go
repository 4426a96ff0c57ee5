package display_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobby-s-dev/weather-dashboard/internal/display"
	"github.com/bobby-s-dev/weather-dashboard/internal/models"
)

// Monday 2024-01-01 00:00 UTC.
var monday = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func i(v int) *int { return &v }

func hourlySeries(n int) []models.HourlyPoint {
	out := make([]models.HourlyPoint, n)
	for k := range out {
		out[k] = models.HourlyPoint{
			Dt:        monday.Add(time.Duration(k) * time.Hour).Unix(),
			Temp:      f(10 + float64(k) + 0.5),
			FeelsLike: f(8 + float64(k)),
			Humidity:  f(70),
			Pop:       f(0.2),
		}
	}
	return out
}

func dailySeries(n int) []models.DailyPoint {
	out := make([]models.DailyPoint, n)
	for k := range out {
		out[k] = models.DailyPoint{
			Dt:       monday.Add(time.Duration(k) * 24 * time.Hour).Add(12 * time.Hour).Unix(),
			Temp:     models.DailyTemp{Max: f(20 + float64(k)), Min: f(5.4)},
			Humidity: f(55),
			Pop:      f(0.75),
		}
	}
	return out
}

func TestWindow(t *testing.T) {
	assert.Equal(t, []int{1, 2, 3}, display.Window([]int{1, 2, 3, 4, 5}, 3))
	assert.Equal(t, []int{1, 2}, display.Window([]int{1, 2}, 24), "shorter series is returned whole")
	assert.Empty(t, display.Window([]int{}, 7))
	assert.Empty(t, display.Window[int](nil, 7))
	assert.Empty(t, display.Window([]int{1}, 0))
}

func TestWindow_DoesNotAliasInput(t *testing.T) {
	in := []int{1, 2, 3}
	out := display.Window(in, 2)
	out[0] = 99
	assert.Equal(t, 1, in[0])
}

func TestTemperatureChart_WeeklyTakes24Hours(t *testing.T) {
	chart := display.BuildTemperatureChart(display.Metric, display.Weekly, hourlySeries(30), dailySeries(10), time.UTC)

	require.Len(t, chart.Points, 24)
	assert.Equal(t, display.Weekly, chart.View)
	assert.Equal(t, "°C", chart.Unit)

	first := chart.Points[0]
	want := display.TemperaturePoint{Label: "12AM", Temperature: i(11), FeelsLike: i(8)}
	if diff := cmp.Diff(want, first); diff != "" {
		t.Errorf("first point mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "3PM", chart.Points[15].Label)
}

func TestTemperatureChart_MonthlyTakes7Days(t *testing.T) {
	chart := display.BuildTemperatureChart(display.Imperial, display.Monthly, hourlySeries(30), dailySeries(10), time.UTC)

	require.Len(t, chart.Points, 7)
	assert.Equal(t, "°F", chart.Unit)

	labels := make([]string, 0, len(chart.Points))
	for _, p := range chart.Points {
		labels = append(labels, p.Label)
		assert.Nil(t, p.Temperature)
	}
	assert.Equal(t, []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}, labels)
	assert.Equal(t, i(20), chart.Points[0].Max)
	assert.Equal(t, i(5), chart.Points[0].Min)
}

func TestTemperatureChart_ShortSeriesNotPadded(t *testing.T) {
	weekly := display.BuildTemperatureChart(display.Metric, display.Weekly, hourlySeries(5), nil, time.UTC)
	assert.Len(t, weekly.Points, 5)

	monthly := display.BuildTemperatureChart(display.Metric, display.Monthly, nil, dailySeries(3), time.UTC)
	assert.Len(t, monthly.Points, 3)

	empty := display.BuildTemperatureChart(display.Metric, display.Monthly, nil, nil, time.UTC)
	assert.Empty(t, empty.Points)
}

func TestPrecipitationChart(t *testing.T) {
	weekly := display.BuildPrecipitationChart(display.Weekly, hourlySeries(30), dailySeries(10), time.UTC)
	require.Len(t, weekly.Points, 24)
	assert.Equal(t, i(20), weekly.Points[0].Probability)
	assert.Equal(t, i(70), weekly.Points[0].Humidity)

	monthly := display.BuildPrecipitationChart(display.Monthly, hourlySeries(30), dailySeries(10), time.UTC)
	require.Len(t, monthly.Points, 7)
	assert.Equal(t, i(75), monthly.Points[0].Probability)
	assert.Equal(t, "Mon", monthly.Points[0].Label)
}

func TestPrecipitationChart_MissingValuesStayEmpty(t *testing.T) {
	hourly := []models.HourlyPoint{{Dt: monday.Unix()}}
	chart := display.BuildPrecipitationChart(display.Weekly, hourly, nil, time.UTC)
	require.Len(t, chart.Points, 1)
	assert.Nil(t, chart.Points[0].Probability)
	assert.Nil(t, chart.Points[0].Humidity)
}

func TestLabels_UseLocationZone(t *testing.T) {
	tokyo := time.FixedZone("", 9*3600)
	assert.Equal(t, "9AM", display.HourLabel(monday.Unix(), tokyo))
	assert.Equal(t, "12AM", display.HourLabel(monday.Unix(), nil))
	assert.Equal(t, display.NotAvailable, display.DayLabel(0, time.UTC))
}

func TestChartView(t *testing.T) {
	assert.Equal(t, display.Monthly, display.Weekly.Toggle())
	assert.Equal(t, display.Weekly, display.Monthly.Toggle())

	v, err := display.ParseChartView("monthly")
	require.NoError(t, err)
	assert.Equal(t, display.Monthly, v)

	_, err = display.ParseChartView("yearly")
	require.Error(t, err)
}
