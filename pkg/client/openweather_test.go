package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bobby-s-dev/weather-dashboard/pkg/client"
)

func testBase(threshold int) *client.BaseClient {
	return client.NewBaseClient("test", client.ClientConfig{
		Timeout:        2 * time.Second,
		Threshold:      threshold,
		BreakerTimeout: time.Minute,
	}, zap.NewNop())
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *client.OpenWeatherClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return client.NewOpenWeatherClientWithURLs(srv.URL, "", "test-key", testBase(5))
}

func TestOpenWeatherClient_Search(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/geo/1.0/direct", r.URL.Path)
		assert.Equal(t, "Paris", r.URL.Query().Get("q"))
		assert.Equal(t, "3", r.URL.Query().Get("limit"))
		assert.Equal(t, "test-key", r.URL.Query().Get("appid"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"name": "Paris", "lat": 48.8566, "lon": 2.3522, "country": "FR", "state": "Ile-de-France"},
			{"name": "Paris", "lat": 33.66, "lon": -95.55, "country": "US", "state": "Texas"},
		})
	})

	got, err := c.Search(context.Background(), "Paris", 3)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Paris, Ile-de-France, FR", got[0].Label())
	assert.Equal(t, -95.55, got[1].Lon)
}

func TestOpenWeatherClient_SearchUsesGeoURL(t *testing.T) {
	geo := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	t.Cleanup(geo.Close)

	c := client.NewOpenWeatherClientWithURLs("http://127.0.0.1:1", geo.URL, "k", testBase(5))
	got, err := c.Search(context.Background(), "Nowhere", 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestOpenWeatherClient_Current(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/data/2.5/weather", r.URL.Path)
		assert.Equal(t, "imperial", r.URL.Query().Get("units"))
		assert.Equal(t, "48.8566", r.URL.Query().Get("lat"))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"name":     "Paris",
			"timezone": 3600,
			"main":     map[string]any{"temp": 0, "humidity": 81},
			"weather":  []map[string]any{{"id": 800, "icon": "01d", "description": "clear sky"}},
		})
	})

	got, err := c.Current(context.Background(), 48.8566, 2.3522, "imperial")
	require.NoError(t, err)
	assert.Equal(t, "Paris", got.Name)
	require.NotNil(t, got.Main.Temp, "zero must decode as a present reading")
	assert.Equal(t, 0.0, *got.Main.Temp)
	assert.Nil(t, got.Main.FeelsLike)
	assert.Nil(t, got.Visibility)

	cond, ok := got.Condition()
	require.True(t, ok)
	assert.Equal(t, "01d", cond.Icon)
}

func TestOpenWeatherClient_OneCall(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/data/3.0/onecall", r.URL.Path)
		assert.Equal(t, "minutely", r.URL.Query().Get("exclude"))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"timezone_offset": -18000,
			"current":         map[string]any{"uvi": 2.1},
			"hourly":          []map[string]any{{"dt": 1700000000, "temp": 10.5, "pop": 0.2}},
			"daily":           []map[string]any{{"dt": 1700000000, "temp": map[string]any{"min": 3, "max": 12}}},
			"alerts":          []map[string]any{{"event": "Frost", "description": "Ground frost"}},
		})
	})

	got, err := c.OneCall(context.Background(), 40.7, -74.0, "metric")
	require.NoError(t, err)
	assert.Equal(t, -18000, got.TimezoneOffset)
	require.NotNil(t, got.Current)
	assert.Equal(t, 2.1, *got.Current.UVI)
	require.Len(t, got.Hourly, 1)
	require.Len(t, got.Daily, 1)
	assert.Equal(t, 12.0, *got.Daily[0].Temp.Max)
	require.Len(t, got.Alerts, 1)
	assert.Equal(t, "Frost", got.Alerts[0].Event)
}

func TestOpenWeatherClient_StatusError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"cod":401,"message":"Invalid API key"}`, http.StatusUnauthorized)
	})

	_, err := c.Current(context.Background(), 1, 2, "metric")
	require.Error(t, err)

	var statusErr *client.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
	assert.Contains(t, statusErr.Body, "Invalid API key")
}

func TestOpenWeatherClient_MalformedBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	})

	_, err := c.OneCall(context.Background(), 1, 2, "metric")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse response")
}

func TestBaseClient_SingleAttemptAndBreakerTrips(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	base := testBase(2)
	ctx := context.Background()

	_, err := base.Get(ctx, srv.URL)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load(), "a failed call is not retried")

	_, err = base.Get(ctx, srv.URL)
	require.Error(t, err)
	assert.Equal(t, gobreaker.StateOpen, base.BreakerState())

	_, err = base.Get(ctx, srv.URL)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(2), calls.Load(), "open breaker short-circuits")
}

func TestBaseClient_CancelledCallsLeaveBreakerClosed(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(srv.Close)

	base := testBase(2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for i := 0; i < 3; i++ {
		_, err := base.Get(ctx, srv.URL)
		assert.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, gobreaker.StateClosed, base.BreakerState())

	_, err := base.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestBaseClient_ClientErrorsLeaveBreakerClosed(t *testing.T) {
	status := atomic.Int32{}
	status.Store(http.StatusNotFound)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(int(status.Load()))
	}))
	t.Cleanup(srv.Close)

	base := testBase(2)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := base.Get(ctx, srv.URL)
		var statusErr *client.StatusError
		require.True(t, errors.As(err, &statusErr))
		assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	}
	assert.Equal(t, gobreaker.StateClosed, base.BreakerState())

	status.Store(http.StatusTooManyRequests)
	for i := 0; i < 2; i++ {
		_, err := base.Get(ctx, srv.URL)
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, base.BreakerState(), "rate limiting counts as a failure")
}

func TestOpenMeteoGeocoder_Search(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/search", r.URL.Path)
		assert.Equal(t, "Prague", r.URL.Query().Get("name"))
		assert.Equal(t, "5", r.URL.Query().Get("count"))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{"name": "Prague", "latitude": 50.0755, "longitude": 14.4378, "country_code": "CZ", "admin1": "Prague"},
			},
		})
	}))
	t.Cleanup(srv.Close)

	g := client.NewOpenMeteoGeocoderWithURL(srv.URL, testBase(5))
	got, err := g.Search(context.Background(), "Prague", 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "CZ", got[0].Country)
	assert.Equal(t, 50.0755, got[0].Lat)
}

func TestOpenMeteoGeocoder_NoResultsKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"generationtime_ms":0.5}`))
	}))
	t.Cleanup(srv.Close)

	g := client.NewOpenMeteoGeocoderWithURL(srv.URL, testBase(5))
	got, err := g.Search(context.Background(), "Xyzzy", 5)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
