package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobby-s-dev/weather-dashboard/internal/config"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "https://api.openweathermap.org", cfg.WeatherAPI.OpenWeatherGeoURL)
	assert.Equal(t, "openweather", cfg.WeatherAPI.Geocoder)
	assert.Equal(t, 3, cfg.CircuitBreaker.Threshold)
	assert.Equal(t, 24*time.Hour, cfg.Sessions.TTL)
	assert.Equal(t, "memory", cfg.Sessions.Backend)
	assert.Equal(t, "metric", cfg.Dashboard.DefaultUnits)
	assert.Equal(t, 5, cfg.Dashboard.SearchLimit)
	assert.Equal(t, "@every 10m", cfg.Scheduler.AutoRefreshSpec)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("FIBER_PORT", "9090")
	t.Setenv("DEFAULT_UNITS", "Imperial")
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("GEOCODER", "openmeteo")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "imperial", cfg.Dashboard.DefaultUnits)
	assert.Equal(t, 30*time.Minute, cfg.Sessions.TTL)
	assert.Equal(t, "openmeteo", cfg.WeatherAPI.Geocoder)
}

func TestLoadConfig_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dashboard.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
fiber_port: 7070
MAX_SESSIONS: 50
SEARCH_LIMIT: 8
AUTO_REFRESH_SPEC: "@every 5m"
`), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("SEARCH_LIMIT", "2")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Server.Port)
	assert.Equal(t, 50, cfg.Sessions.MaxSize)
	assert.Equal(t, 2, cfg.Dashboard.SearchLimit, "environment wins over the file")
	assert.Equal(t, "@every 5m", cfg.Scheduler.AutoRefreshSpec)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))

	_, err := config.LoadConfig()
	require.Error(t, err)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := map[string]map[string]string{
		"unknown backend":   {"SESSION_BACKEND": "etcd"},
		"redis without url": {"SESSION_BACKEND": "redis"},
		"bad units":         {"DEFAULT_UNITS": "kelvin"},
		"bad geocoder":      {"GEOCODER": "bing"},
	}
	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			t.Setenv("CONFIG_FILE", "")
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := config.LoadConfig()
			assert.Error(t, err)
		})
	}
}
