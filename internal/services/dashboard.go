package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bobby-s-dev/weather-dashboard/internal/display"
	"github.com/bobby-s-dev/weather-dashboard/internal/models"
	"github.com/bobby-s-dev/weather-dashboard/internal/state"
)

// MinQueryLength is the shortest query that reaches the geocoder.
const MinQueryLength = 3

// errSuperseded rejects a snapshot commit when the session moved on while the
// fetch was in flight.
var errSuperseded = errors.New("snapshot superseded")

type WeatherProvider interface {
	Current(ctx context.Context, lat, lon float64, units string) (*models.CurrentWeather, error)
	OneCall(ctx context.Context, lat, lon float64, units string) (*models.OneCall, error)
}

type LocationSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]models.Location, error)
}

type DashboardConfig struct {
	DefaultUnits display.Units
	SearchLimit  int
	MapAPIKey    string
}

// Dashboard owns the session lifecycle: it applies state updates, fetches
// weather for the selected location and composes the formatted view.
type Dashboard struct {
	weather  WeatherProvider
	geocoder LocationSearcher
	store    state.Store
	config   DashboardConfig
	logger   *zap.Logger
	now      func() time.Time

	mu            sync.Mutex
	searches      int
	fetches       int
	fetchFailures int
	lastFetchTime time.Time
}

func NewDashboard(weather WeatherProvider, geocoder LocationSearcher, store state.Store, cfg DashboardConfig, logger *zap.Logger) *Dashboard {
	if cfg.DefaultUnits == "" {
		cfg.DefaultUnits = display.Metric
	}
	return &Dashboard{
		weather:  weather,
		geocoder: geocoder,
		store:    store,
		config:   cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// CreateSession starts a session. Empty units or theme take the defaults.
func (d *Dashboard) CreateSession(ctx context.Context, units, theme string) (state.AppState, error) {
	u := d.config.DefaultUnits
	if units != "" {
		parsed, err := display.ParseUnits(units)
		if err != nil {
			return state.AppState{}, err
		}
		u = parsed
	}

	t := state.Light
	if theme != "" {
		parsed, err := state.ParseTheme(theme)
		if err != nil {
			return state.AppState{}, err
		}
		t = parsed
	}

	s := state.New(uuid.NewString(), u, t, d.now())
	if err := d.store.Save(ctx, s); err != nil {
		return state.AppState{}, fmt.Errorf("saving new session: %w", err)
	}

	d.logger.Info("Session created",
		zap.String("session", s.ID),
		zap.String("units", string(u)))
	return s, nil
}

func (d *Dashboard) Session(ctx context.Context, id string) (state.AppState, error) {
	return d.store.Get(ctx, id)
}

func (d *Dashboard) DeleteSession(ctx context.Context, id string) error {
	if _, err := d.store.Get(ctx, id); err != nil {
		return err
	}
	return d.store.Delete(ctx, id)
}

// Search looks up locations by name. Queries shorter than MinQueryLength
// return nothing without calling the geocoder.
func (d *Dashboard) Search(ctx context.Context, query string) ([]models.Location, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < MinQueryLength {
		return []models.Location{}, nil
	}

	d.mu.Lock()
	d.searches++
	d.mu.Unlock()

	results, err := d.geocoder.Search(ctx, query, d.config.SearchLimit)
	if err != nil {
		d.logger.Warn("Location search failed",
			zap.String("query", query),
			zap.Error(err))
		return nil, notify(SearchErrorNotification, err)
	}
	return results, nil
}

// SelectLocation fetches weather for loc and, on success, makes it the
// session's location with a fresh snapshot. On failure the session is left
// as it was.
func (d *Dashboard) SelectLocation(ctx context.Context, id string, loc models.Location) (state.AppState, error) {
	s, err := d.store.Get(ctx, id)
	if err != nil {
		return state.AppState{}, err
	}

	snap, err := d.fetch(ctx, loc, s.Units)
	if err != nil {
		return s, err
	}

	s, err = d.update(ctx, id, func(cur state.AppState) (state.AppState, error) {
		return cur.WithLocation(loc).WithSnapshot(snap), nil
	})
	if err != nil {
		return s, err
	}

	d.logger.Info("Location selected",
		zap.String("session", id),
		zap.String("location", loc.Label()))
	return s, nil
}

// SearchAndSelect selects the first match for query.
func (d *Dashboard) SearchAndSelect(ctx context.Context, id, query string) (state.AppState, error) {
	if _, err := d.store.Get(ctx, id); err != nil {
		return state.AppState{}, err
	}

	results, err := d.Search(ctx, query)
	if err != nil {
		return state.AppState{}, err
	}
	if len(results) == 0 {
		return state.AppState{}, notify(NoResultsNotification, ErrNoResults)
	}
	return d.SelectLocation(ctx, id, results[0])
}

// Refresh refetches weather for the session's current location. Changes made
// to the session while the fetch is in flight are kept.
func (d *Dashboard) Refresh(ctx context.Context, id string) (state.AppState, error) {
	s, err := d.store.Get(ctx, id)
	if err != nil {
		return state.AppState{}, err
	}
	if !s.HasLocation() {
		return s, ErrNoLocation
	}
	return d.refetch(ctx, s)
}

// ToggleUnits flips the unit system and refetches, since the provider returns
// values already converted. If the refetch fails the toggle still sticks and
// the old snapshot stays, labelled with the units it was fetched in.
func (d *Dashboard) ToggleUnits(ctx context.Context, id string) (state.AppState, error) {
	return d.changeUnits(ctx, id, func(s state.AppState) state.AppState {
		return s.ToggleUnits()
	})
}

// SetUnits switches to the given unit system, refetching when the snapshot is
// in other units. A failed refetch behaves as in ToggleUnits.
func (d *Dashboard) SetUnits(ctx context.Context, id string, units string) (state.AppState, error) {
	u, err := display.ParseUnits(units)
	if err != nil {
		return state.AppState{}, err
	}
	return d.changeUnits(ctx, id, func(s state.AppState) state.AppState {
		return s.WithUnits(u)
	})
}

func (d *Dashboard) ToggleTheme(ctx context.Context, id string) (state.AppState, error) {
	return d.update(ctx, id, func(s state.AppState) (state.AppState, error) {
		return s.ToggleTheme(), nil
	})
}

func (d *Dashboard) SetTheme(ctx context.Context, id string, theme string) (state.AppState, error) {
	t, err := state.ParseTheme(theme)
	if err != nil {
		return state.AppState{}, err
	}
	return d.update(ctx, id, func(s state.AppState) (state.AppState, error) {
		return s.WithTheme(t), nil
	})
}

func (d *Dashboard) SetMapLayer(ctx context.Context, id string, layer string) (state.AppState, error) {
	return d.update(ctx, id, func(s state.AppState) (state.AppState, error) {
		return s.WithMapLayer(display.MapLayer(layer)), nil
	})
}

func (d *Dashboard) ToggleChart(ctx context.Context, id string, chart string) (state.AppState, error) {
	c, err := state.ParseChart(chart)
	if err != nil {
		return state.AppState{}, err
	}
	return d.update(ctx, id, func(s state.AppState) (state.AppState, error) {
		return s.ToggleChartView(c)
	})
}

func (d *Dashboard) SetAutoRefresh(ctx context.Context, id string, enabled bool) (state.AppState, error) {
	return d.update(ctx, id, func(s state.AppState) (state.AppState, error) {
		return s.WithAutoRefresh(enabled), nil
	})
}

// View returns the formatted dashboard for a session.
func (d *Dashboard) View(ctx context.Context, id string) (DashboardView, error) {
	s, err := d.store.Get(ctx, id)
	if err != nil {
		return DashboardView{}, err
	}
	return ComposeView(s, d.config.MapAPIKey), nil
}

// RefreshAutoSessions refreshes every session with auto refresh on and a
// location selected. One failing session does not stop the others.
func (d *Dashboard) RefreshAutoSessions(ctx context.Context) (int, error) {
	sessions, err := d.store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing sessions: %w", err)
	}

	startTime := d.now()
	refreshed := 0
	var errs []error
	for _, s := range sessions {
		if !s.AutoRefresh || !s.HasLocation() {
			continue
		}
		if _, err := d.Refresh(ctx, s.ID); err != nil {
			if errors.Is(err, state.ErrNotFound) {
				continue
			}
			d.logger.Warn("Auto refresh failed",
				zap.String("session", s.ID),
				zap.Error(err))
			errs = append(errs, fmt.Errorf("session %s: %w", s.ID, err))
			continue
		}
		refreshed++
	}

	d.logger.Info("Auto refresh completed",
		zap.Int("sessions", len(sessions)),
		zap.Int("refreshed", refreshed),
		zap.Int("failed", len(errs)),
		zap.Duration("duration", d.now().Sub(startTime)))

	return refreshed, errors.Join(errs...)
}

func (d *Dashboard) GetStats() map[string]interface{} {
	d.mu.Lock()
	defer d.mu.Unlock()

	stats := map[string]interface{}{
		"searches":       d.searches,
		"fetches":        d.fetches,
		"fetch_failures": d.fetchFailures,
		"store":          d.store.Stats(),
	}
	if !d.lastFetchTime.IsZero() {
		stats["last_fetch_time"] = d.lastFetchTime
	}
	return stats
}

// update applies fn to the stored session atomically and stamps the result.
func (d *Dashboard) update(ctx context.Context, id string, fn state.UpdateFunc) (state.AppState, error) {
	return d.store.Update(ctx, id, func(cur state.AppState) (state.AppState, error) {
		next, err := fn(cur)
		if err != nil {
			return cur, err
		}
		return next.Touched(d.now()), nil
	})
}

// changeUnits stores the new units first, then refetches for the current
// location if the snapshot no longer matches them.
func (d *Dashboard) changeUnits(ctx context.Context, id string, fn func(state.AppState) state.AppState) (state.AppState, error) {
	s, err := d.update(ctx, id, func(cur state.AppState) (state.AppState, error) {
		return fn(cur), nil
	})
	if err != nil {
		return s, err
	}
	if !s.HasLocation() || (s.Weather != nil && s.Weather.Units == string(s.Units)) {
		return s, nil
	}

	return d.refetch(ctx, s)
}

// refetch fetches for the location and units s was read with, then stores
// the snapshot only if the session still shows that location in those units
// and holds nothing newer. Otherwise the session as it now stands is
// returned untouched.
func (d *Dashboard) refetch(ctx context.Context, s state.AppState) (state.AppState, error) {
	loc := *s.Location
	snap, err := d.fetch(ctx, loc, s.Units)
	if err != nil {
		return s, err
	}

	next, err := d.update(ctx, s.ID, func(cur state.AppState) (state.AppState, error) {
		if cur.Location == nil || *cur.Location != loc || string(cur.Units) != snap.Units {
			return cur, errSuperseded
		}
		if cur.Weather != nil && cur.Weather.FetchedAt.After(snap.FetchedAt) {
			return cur, errSuperseded
		}
		return cur.WithSnapshot(snap), nil
	})
	if errors.Is(err, errSuperseded) {
		d.logger.Debug("Discarding superseded snapshot",
			zap.String("session", s.ID),
			zap.String("location", loc.Label()))
		return next, nil
	}
	return next, err
}

// fetch loads current conditions and the one-call bundle in parallel. Either
// failing fails the whole fetch.
func (d *Dashboard) fetch(ctx context.Context, loc models.Location, units display.Units) (*models.Snapshot, error) {
	var (
		current *models.CurrentWeather
		oneCall *models.OneCall
	)

	// Neither call cancels the other: each outcome reaches the provider's
	// circuit breaker as it really happened.
	var g errgroup.Group
	g.Go(func() error {
		var err error
		current, err = d.weather.Current(ctx, loc.Lat, loc.Lon, string(units))
		return err
	})
	g.Go(func() error {
		var err error
		oneCall, err = d.weather.OneCall(ctx, loc.Lat, loc.Lon, string(units))
		return err
	})

	err := g.Wait()

	d.mu.Lock()
	d.fetches++
	d.lastFetchTime = d.now()
	if err != nil {
		d.fetchFailures++
	}
	d.mu.Unlock()

	if err != nil {
		d.logger.Error("Failed to fetch weather",
			zap.String("location", loc.Label()),
			zap.String("units", string(units)),
			zap.Error(err))
		return nil, notify(WeatherErrorNotification, err)
	}

	return &models.Snapshot{
		Current:   current,
		OneCall:   oneCall,
		Units:     string(units),
		FetchedAt: d.now(),
	}, nil
}
