package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/bobby-s-dev/weather-dashboard/internal/config"
	"github.com/bobby-s-dev/weather-dashboard/internal/display"
	"github.com/bobby-s-dev/weather-dashboard/internal/render"
	"github.com/bobby-s-dev/weather-dashboard/internal/services"
	"github.com/bobby-s-dev/weather-dashboard/internal/state"
)

var (
	showUnits string
	showView  string
	showTheme string
)

var showCmd = &cobra.Command{
	Use:   "show <city>",
	Short: "Print the dashboard for a city to the terminal",
	Example: `  weatherdash show London
  weatherdash show "New York" --units imperial --view monthly`,
	Args: cobra.MinimumNArgs(1),
	RunE: runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	if cfg.WeatherAPI.OpenWeatherAPIKey == "" {
		return errors.New("OPENWEATHER_API_KEY is required")
	}

	view, err := display.ParseChartView(showView)
	if err != nil {
		return err
	}

	logger, err = newLogger("warn")
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	store := state.NewMemoryStore(time.Hour, 1, logger)
	defer store.Close()
	dashboard := newDashboard(cfg, store, logger)

	s, err := dashboard.CreateSession(ctx, showUnits, showTheme)
	if err != nil {
		return err
	}

	city := strings.Join(args, " ")
	if _, err := dashboard.SearchAndSelect(ctx, s.ID, city); err != nil {
		if n, ok := services.NotificationFor(err); ok {
			return fmt.Errorf("%s: %s", n.Title, n.Description)
		}
		return err
	}

	if view == display.Monthly {
		for _, chart := range []state.Chart{state.TemperatureChart, state.PrecipitationChart} {
			if _, err := dashboard.ToggleChart(ctx, s.ID, string(chart)); err != nil {
				return err
			}
		}
	}

	dv, err := dashboard.View(ctx, s.ID)
	if err != nil {
		return err
	}

	fmt.Fprintln(os.Stdout, render.Dashboard(dv))
	return nil
}
