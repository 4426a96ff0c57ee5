package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bobby-s-dev/weather-dashboard/internal/api"
	"github.com/bobby-s-dev/weather-dashboard/internal/config"
	"github.com/bobby-s-dev/weather-dashboard/internal/scheduler"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	logger, err = newLogger(cfg.Server.LogLevel)
	if err != nil {
		return err
	}
	zap.ReplaceGlobals(logger)
	logger.Info("Starting Weather Dashboard Service")

	if cfg.WeatherAPI.OpenWeatherAPIKey == "" {
		logger.Warn("OPENWEATHER_API_KEY is empty, provider calls will fail")
	}

	startCtx, cancelStart := context.WithTimeout(context.Background(), 10*time.Second)
	store, err := newStore(startCtx, cfg, logger)
	cancelStart()
	if err != nil {
		logger.Error("Failed to initialize session store", zap.Error(err))
		return err
	}
	defer store.Close()

	dashboard := newDashboard(cfg, store, logger)

	// Initialize scheduler
	refreshScheduler, err := scheduler.NewScheduler(dashboard, cfg.Scheduler.AutoRefreshSpec, logger)
	if err != nil {
		return err
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
		JSONEncoder:           json.Marshal,
		ErrorHandler:          api.ErrorHandler,
		DisableStartupMessage: true,
	})

	// Setup handlers and routes
	handler := api.NewHandler(dashboard, refreshScheduler, logger)
	api.SetupRoutes(app, handler, api.RouteConfig{RateLimitMax: cfg.Server.RateLimitMax})

	refreshScheduler.Start()

	// Start server in goroutine
	listenErr := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Server.Port
		logger.Info("Starting server", zap.String("address", addr))
		listenErr <- app.Listen(addr)
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
	case err := <-listenErr:
		refreshScheduler.Stop()
		logger.Error("Failed to start server", zap.Error(err))
		return err
	}

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	refreshScheduler.Stop()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}

	logger.Info("Server stopped")
	return nil
}
