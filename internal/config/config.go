package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port         string
		ReadTimeout  time.Duration
		WriteTimeout time.Duration
		LogLevel     string
		RateLimitMax int
	}

	WeatherAPI struct {
		OpenWeatherAPIKey string
		OpenWeatherURL    string
		OpenWeatherGeoURL string
		OpenMeteoGeoURL   string
		Geocoder          string
		HTTPTimeout       time.Duration
	}

	CircuitBreaker struct {
		Threshold int
		Timeout   time.Duration
	}

	Sessions struct {
		TTL      time.Duration
		MaxSize  int
		Backend  string
		RedisURL string
	}

	Dashboard struct {
		DefaultUnits string
		SearchLimit  int
	}

	Scheduler struct {
		AutoRefreshSpec string
	}
}

// LoadConfig reads .env (if present), then an optional YAML file named by
// CONFIG_FILE, then the environment. Real environment variables win over the
// file, and the file wins over built-in defaults.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		zap.L().Info("No .env file found, using environment variables")
	}

	file, err := loadFile(os.Getenv("CONFIG_FILE"))
	if err != nil {
		return nil, err
	}
	env := source{file: file}

	cfg := &Config{}

	// Server configuration
	cfg.Server.Port = env.get("FIBER_PORT", "8080")
	cfg.Server.ReadTimeout = parseDuration(env.get("FIBER_READ_TIMEOUT", "10s"))
	cfg.Server.WriteTimeout = parseDuration(env.get("FIBER_WRITE_TIMEOUT", "10s"))
	cfg.Server.LogLevel = env.get("LOG_LEVEL", "info")
	cfg.Server.RateLimitMax = parseInt(env.get("RATE_LIMIT_MAX", "120"))

	// Provider configuration
	cfg.WeatherAPI.OpenWeatherAPIKey = env.get("OPENWEATHER_API_KEY", "")
	cfg.WeatherAPI.OpenWeatherURL = env.get("OPENWEATHER_URL", "https://api.openweathermap.org")
	cfg.WeatherAPI.OpenWeatherGeoURL = env.get("OPENWEATHER_GEO_URL", cfg.WeatherAPI.OpenWeatherURL)
	cfg.WeatherAPI.OpenMeteoGeoURL = env.get("OPENMETEO_GEO_URL", "https://geocoding-api.open-meteo.com")
	cfg.WeatherAPI.Geocoder = strings.ToLower(env.get("GEOCODER", "openweather"))
	cfg.WeatherAPI.HTTPTimeout = parseDuration(env.get("HTTP_TIMEOUT", "10s"))

	// Circuit breaker configuration
	cfg.CircuitBreaker.Threshold = parseInt(env.get("CIRCUIT_BREAKER_THRESHOLD", "3"))
	cfg.CircuitBreaker.Timeout = parseDuration(env.get("CIRCUIT_BREAKER_TIMEOUT", "30s"))

	// Session configuration
	cfg.Sessions.TTL = parseDuration(env.get("SESSION_TTL", "24h"))
	cfg.Sessions.MaxSize = parseInt(env.get("MAX_SESSIONS", "1000"))
	cfg.Sessions.Backend = strings.ToLower(env.get("SESSION_BACKEND", "memory"))
	cfg.Sessions.RedisURL = env.get("REDIS_URL", "")

	// Dashboard defaults
	cfg.Dashboard.DefaultUnits = strings.ToLower(env.get("DEFAULT_UNITS", "metric"))
	cfg.Dashboard.SearchLimit = parseInt(env.get("SEARCH_LIMIT", "5"))

	cfg.Scheduler.AutoRefreshSpec = env.get("AUTO_REFRESH_SPEC", "@every 10m")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Sessions.Backend {
	case "memory":
	case "redis":
		if c.Sessions.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when SESSION_BACKEND=redis")
		}
	default:
		return fmt.Errorf("unknown SESSION_BACKEND %q", c.Sessions.Backend)
	}

	switch c.WeatherAPI.Geocoder {
	case "openweather", "openmeteo":
	default:
		return fmt.Errorf("unknown GEOCODER %q", c.WeatherAPI.Geocoder)
	}

	switch c.Dashboard.DefaultUnits {
	case "metric", "imperial":
	default:
		return fmt.Errorf("DEFAULT_UNITS must be metric or imperial, got %q", c.Dashboard.DefaultUnits)
	}

	if c.Sessions.TTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	return nil
}

type source struct {
	file map[string]string
}

func (s source) get(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	if value, ok := s.file[key]; ok && value != "" {
		return value
	}
	return defaultValue
}

// loadFile reads a flat YAML map keyed by the same names as the environment.
func loadFile(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	values := make(map[string]string, len(raw))
	for k, v := range raw {
		if v == nil {
			continue
		}
		values[strings.ToUpper(k)] = fmt.Sprint(v)
	}
	return values, nil
}

func parseDuration(value string) time.Duration {
	duration, err := time.ParseDuration(value)
	if err != nil {
		zap.L().Warn("Failed to parse duration", zap.String("value", value), zap.Error(err))
		return 0
	}
	return duration
}

func parseInt(value string) int {
	intValue, err := strconv.Atoi(value)
	if err != nil {
		zap.L().Warn("Failed to parse int", zap.String("value", value), zap.Error(err))
		return 0
	}
	return intValue
}
