package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/bobby-s-dev/weather-dashboard/internal/config"
	"github.com/bobby-s-dev/weather-dashboard/internal/display"
	"github.com/bobby-s-dev/weather-dashboard/internal/services"
	"github.com/bobby-s-dev/weather-dashboard/internal/state"
	"github.com/bobby-s-dev/weather-dashboard/pkg/client"
)

func newLogger(level string) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if verbose {
		level = "debug"
	}
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", level, err)
	}
	zcfg.Level = lvl
	return zcfg.Build()
}

func clientConfig(cfg *config.Config) client.ClientConfig {
	return client.ClientConfig{
		Timeout:        cfg.WeatherAPI.HTTPTimeout,
		Threshold:      cfg.CircuitBreaker.Threshold,
		BreakerTimeout: cfg.CircuitBreaker.Timeout,
	}
}

func newWeatherClient(cfg *config.Config, log *zap.Logger) *client.OpenWeatherClient {
	base := client.NewBaseClient("openweather", clientConfig(cfg), log)
	return client.NewOpenWeatherClientWithURLs(
		cfg.WeatherAPI.OpenWeatherURL,
		cfg.WeatherAPI.OpenWeatherGeoURL,
		cfg.WeatherAPI.OpenWeatherAPIKey,
		base,
	)
}

// newGeocoder picks the location search backend. The OpenWeatherMap one
// shares the weather client's breaker.
func newGeocoder(cfg *config.Config, weather *client.OpenWeatherClient, log *zap.Logger) services.LocationSearcher {
	if cfg.WeatherAPI.Geocoder == "openmeteo" {
		log.Info("Using Open-Meteo geocoder")
		base := client.NewBaseClient("openmeteo", clientConfig(cfg), log)
		return client.NewOpenMeteoGeocoderWithURL(cfg.WeatherAPI.OpenMeteoGeoURL, base)
	}
	return weather
}

func newStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (state.Store, error) {
	if cfg.Sessions.Backend == "redis" {
		rdb, err := state.Connect(ctx, cfg.Sessions.RedisURL)
		if err != nil {
			return nil, err
		}
		log.Info("Using Redis session store")
		return state.NewRedisStore(rdb, cfg.Sessions.TTL), nil
	}
	return state.NewMemoryStore(cfg.Sessions.TTL, cfg.Sessions.MaxSize, log), nil
}

func newDashboard(cfg *config.Config, store state.Store, log *zap.Logger) *services.Dashboard {
	weather := newWeatherClient(cfg, log)
	return services.NewDashboard(weather, newGeocoder(cfg, weather, log), store, services.DashboardConfig{
		DefaultUnits: display.Units(cfg.Dashboard.DefaultUnits),
		SearchLimit:  cfg.Dashboard.SearchLimit,
		MapAPIKey:    cfg.WeatherAPI.OpenWeatherAPIKey,
	}, log)
}
