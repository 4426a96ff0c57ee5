package api

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/bobby-s-dev/weather-dashboard/internal/display"
	"github.com/bobby-s-dev/weather-dashboard/internal/models"
	"github.com/bobby-s-dev/weather-dashboard/internal/services"
	"github.com/bobby-s-dev/weather-dashboard/internal/state"
)

type DashboardService interface {
	CreateSession(ctx context.Context, units, theme string) (state.AppState, error)
	Session(ctx context.Context, id string) (state.AppState, error)
	DeleteSession(ctx context.Context, id string) error
	Search(ctx context.Context, query string) ([]models.Location, error)
	SelectLocation(ctx context.Context, id string, loc models.Location) (state.AppState, error)
	SearchAndSelect(ctx context.Context, id, query string) (state.AppState, error)
	Refresh(ctx context.Context, id string) (state.AppState, error)
	ToggleUnits(ctx context.Context, id string) (state.AppState, error)
	SetUnits(ctx context.Context, id string, units string) (state.AppState, error)
	ToggleTheme(ctx context.Context, id string) (state.AppState, error)
	SetTheme(ctx context.Context, id string, theme string) (state.AppState, error)
	SetMapLayer(ctx context.Context, id string, layer string) (state.AppState, error)
	ToggleChart(ctx context.Context, id string, chart string) (state.AppState, error)
	SetAutoRefresh(ctx context.Context, id string, enabled bool) (state.AppState, error)
	View(ctx context.Context, id string) (services.DashboardView, error)
	GetStats() map[string]interface{}
}

// StatusReporter is implemented by the auto-refresh scheduler.
type StatusReporter interface {
	GetStatus() map[string]interface{}
}

type Handler struct {
	dashboard DashboardService
	scheduler StatusReporter
	logger    *zap.Logger
	startTime time.Time
}

// NewHandler wires the handlers. scheduler may be nil when auto refresh is off.
func NewHandler(dashboard DashboardService, scheduler StatusReporter, logger *zap.Logger) *Handler {
	return &Handler{
		dashboard: dashboard,
		scheduler: scheduler,
		logger:    logger,
		startTime: time.Now(),
	}
}

type createSessionRequest struct {
	Units string `json:"units"`
	Theme string `json:"theme"`
}

type locationRequest struct {
	Lat     *float64 `json:"lat"`
	Lon     *float64 `json:"lon"`
	Name    string   `json:"name"`
	Country string   `json:"country"`
	State   string   `json:"state"`
}

type searchRequest struct {
	Query string `json:"query"`
}

type unitsRequest struct {
	Units string `json:"units"`
}

type themeRequest struct {
	Theme string `json:"theme"`
}

type mapLayerRequest struct {
	Layer string `json:"layer"`
}

type autoRefreshRequest struct {
	Enabled *bool `json:"enabled"`
}

// GetHealth handles GET /api/v1/health
func (h *Handler) GetHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "healthy",
		"timestamp": time.Now(),
		"uptime":    time.Since(h.startTime).String(),
		"stats":     h.dashboard.GetStats(),
	})
}

// GetMetrics handles GET /api/v1/metrics
func (h *Handler) GetMetrics(c *fiber.Ctx) error {
	metrics := fiber.Map{
		"dashboard": h.dashboard.GetStats(),
	}
	if h.scheduler != nil {
		metrics["scheduler"] = h.scheduler.GetStatus()
	}

	return c.JSON(fiber.Map{
		"metrics":   metrics,
		"timestamp": time.Now(),
	})
}

// GetIcon handles GET /api/v1/icons/:code
func (h *Handler) GetIcon(c *fiber.Ctx) error {
	icon := display.IconFor(c.Params("code"))
	svg, err := icon.SVG()
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, "image/svg+xml")
	c.Set(fiber.HeaderCacheControl, "public, max-age=86400")
	return c.Send(svg)
}

// SearchLocations handles GET /api/v1/locations?q=
func (h *Handler) SearchLocations(c *fiber.Ctx) error {
	query := c.Query("q")

	results, err := h.dashboard.Search(c.UserContext(), query)
	if err != nil {
		return h.fail(c, err, nil)
	}

	return c.JSON(fiber.Map{
		"query":     strings.TrimSpace(query),
		"locations": results,
	})
}

// CreateSession handles POST /api/v1/sessions
func (h *Handler) CreateSession(c *fiber.Ctx) error {
	var req createSessionRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "Invalid request body")
		}
	}

	s, err := h.dashboard.CreateSession(c.UserContext(), req.Units, req.Theme)
	if err != nil {
		return h.fail(c, err, nil)
	}
	return c.Status(fiber.StatusCreated).JSON(s)
}

// GetSession handles GET /api/v1/sessions/:id
func (h *Handler) GetSession(c *fiber.Ctx) error {
	s, err := h.dashboard.Session(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.fail(c, err, nil)
	}
	return c.JSON(s)
}

// DeleteSession handles DELETE /api/v1/sessions/:id
func (h *Handler) DeleteSession(c *fiber.Ctx) error {
	if err := h.dashboard.DeleteSession(c.UserContext(), c.Params("id")); err != nil {
		return h.fail(c, err, nil)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetDashboard handles GET /api/v1/sessions/:id/dashboard
func (h *Handler) GetDashboard(c *fiber.Ctx) error {
	view, err := h.dashboard.View(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.fail(c, err, nil)
	}
	return c.JSON(view)
}

// SelectLocation handles POST /api/v1/sessions/:id/location
func (h *Handler) SelectLocation(c *fiber.Ctx) error {
	var req locationRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Lat == nil || req.Lon == nil {
		return badRequest(c, "lat and lon are required")
	}
	if *req.Lat < -90 || *req.Lat > 90 || *req.Lon < -180 || *req.Lon > 180 {
		return badRequest(c, "lat or lon out of range")
	}

	loc := models.Location{
		Name:    strings.TrimSpace(req.Name),
		Country: req.Country,
		State:   req.State,
		Lat:     *req.Lat,
		Lon:     *req.Lon,
	}

	h.logger.Info("Selecting location",
		zap.String("session", c.Params("id")),
		zap.String("location", loc.Label()))

	return h.respond(c, func(ctx context.Context, id string) (state.AppState, error) {
		return h.dashboard.SelectLocation(ctx, id, loc)
	})
}

// SearchAndSelect handles POST /api/v1/sessions/:id/search
func (h *Handler) SearchAndSelect(c *fiber.Ctx) error {
	var req searchRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if strings.TrimSpace(req.Query) == "" {
		return badRequest(c, "query is required")
	}

	return h.respond(c, func(ctx context.Context, id string) (state.AppState, error) {
		return h.dashboard.SearchAndSelect(ctx, id, req.Query)
	})
}

// Refresh handles POST /api/v1/sessions/:id/refresh
func (h *Handler) Refresh(c *fiber.Ctx) error {
	return h.respond(c, h.dashboard.Refresh)
}

// ToggleUnits handles POST /api/v1/sessions/:id/units/toggle
func (h *Handler) ToggleUnits(c *fiber.Ctx) error {
	return h.respond(c, h.dashboard.ToggleUnits)
}

// SetUnits handles PUT /api/v1/sessions/:id/units
func (h *Handler) SetUnits(c *fiber.Ctx) error {
	var req unitsRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	return h.respond(c, func(ctx context.Context, id string) (state.AppState, error) {
		return h.dashboard.SetUnits(ctx, id, req.Units)
	})
}

// ToggleTheme handles POST /api/v1/sessions/:id/theme/toggle
func (h *Handler) ToggleTheme(c *fiber.Ctx) error {
	return h.respond(c, h.dashboard.ToggleTheme)
}

// SetTheme handles PUT /api/v1/sessions/:id/theme
func (h *Handler) SetTheme(c *fiber.Ctx) error {
	var req themeRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	return h.respond(c, func(ctx context.Context, id string) (state.AppState, error) {
		return h.dashboard.SetTheme(ctx, id, req.Theme)
	})
}

// SetMapLayer handles PUT /api/v1/sessions/:id/map-layer
func (h *Handler) SetMapLayer(c *fiber.Ctx) error {
	var req mapLayerRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	return h.respond(c, func(ctx context.Context, id string) (state.AppState, error) {
		return h.dashboard.SetMapLayer(ctx, id, req.Layer)
	})
}

// ToggleChart handles POST /api/v1/sessions/:id/charts/:chart/toggle
func (h *Handler) ToggleChart(c *fiber.Ctx) error {
	chart := c.Params("chart")
	return h.respond(c, func(ctx context.Context, id string) (state.AppState, error) {
		return h.dashboard.ToggleChart(ctx, id, chart)
	})
}

// SetAutoRefresh handles PUT /api/v1/sessions/:id/auto-refresh
func (h *Handler) SetAutoRefresh(c *fiber.Ctx) error {
	var req autoRefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Enabled == nil {
		return badRequest(c, "enabled is required")
	}

	return h.respond(c, func(ctx context.Context, id string) (state.AppState, error) {
		return h.dashboard.SetAutoRefresh(ctx, id, *req.Enabled)
	})
}

// respond runs a session update and writes the resulting state. A failed
// update that still produced a state (a unit toggle whose refetch failed)
// reports both.
func (h *Handler) respond(c *fiber.Ctx, update func(ctx context.Context, id string) (state.AppState, error)) error {
	s, err := update(c.UserContext(), c.Params("id"))
	if err != nil {
		if s.ID != "" {
			return h.fail(c, err, &s)
		}
		return h.fail(c, err, nil)
	}
	return c.JSON(s)
}

func (h *Handler) fail(c *fiber.Ctx, err error, session *state.AppState) error {
	code := statusFor(err)
	if code >= fiber.StatusInternalServerError {
		h.logger.Error("Request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err))
	}

	body := fiber.Map{
		"success": false,
		"error":   err.Error(),
	}
	if n, ok := services.NotificationFor(err); ok {
		body["notification"] = n
	}
	if session != nil {
		body["session"] = session
	}
	return c.Status(code).JSON(body)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, state.ErrNotFound), errors.Is(err, services.ErrNoResults):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrNoLocation), errors.Is(err, state.ErrConflict):
		return fiber.StatusConflict
	case errors.Is(err, display.ErrInvalidUnits),
		errors.Is(err, state.ErrInvalidTheme),
		errors.Is(err, state.ErrUnknownChart):
		return fiber.StatusBadRequest
	}
	if _, ok := services.NotificationFor(err); ok {
		return fiber.StatusBadGateway
	}
	return fiber.StatusInternalServerError
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"success": false,
		"error":   msg,
	})
}

// ErrorHandler is the app-wide fallback for errors handlers return unhandled.
func ErrorHandler(c *fiber.Ctx, err error) error {
	zap.L().Error("HTTP error",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Error(err))

	code := fiber.StatusInternalServerError

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   err.Error(),
		"success": false,
	})
}
