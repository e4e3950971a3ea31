// Command api is the Casedata API server.
//
// Usage:
//
//	casedata-api
//	API_PORT=8080 casedata-api

// @title Casedata API
// @version 1.0.0
// @description Rehab case-management backend: scheduled appointment reminders, notification feed, and LLM-generated narrative system reports.
// @host localhost:8000
// @BasePath /api/v1
// @schemes http https
// @contact.name Lumen Rehab
// @license.name MIT
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/lumenrehab/casedata/internal/api"
	"github.com/lumenrehab/casedata/internal/cache"
	"github.com/lumenrehab/casedata/internal/config"
	"github.com/lumenrehab/casedata/internal/db"
	"github.com/lumenrehab/casedata/internal/listener"
	"github.com/lumenrehab/casedata/internal/maintenance"
	"github.com/lumenrehab/casedata/internal/reminder"
	"github.com/lumenrehab/casedata/internal/report"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// Load .env if present
	_ = godotenv.Load(".env")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	loc, err := cfg.ClinicLocation()
	if err != nil {
		logger.Error("Failed to resolve clinic timezone", "error", err)
		os.Exit(1)
	}

	// Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	// Connect to database
	logger.Info("Connecting to database...")
	pool, err := db.New(ctx, cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("Database connected",
		"min_conns", cfg.DBPoolMinConns,
		"max_conns", cfg.DBPoolMaxConns)

	// Initialize cache
	appCache := cache.New(cfg.CacheEnabled)
	logger.Info("Cache initialized", "enabled", cfg.CacheEnabled)

	// Reminder pipelines + cron scheduler
	store := reminder.NewPgStore(pool.Pool)
	reminders := reminder.NewService(store, loc, logger)
	scheduler := reminder.NewScheduler(reminders, loc, cfg.DailyReminderHour, logger)
	if cfg.RemindersEnabled {
		if err := scheduler.Start(); err != nil {
			logger.Error("Failed to start reminder scheduler", "error", err)
			os.Exit(1)
		}
		defer scheduler.Stop()
	} else {
		logger.Info("Reminder scheduler disabled (REMINDERS_ENABLED=false)")
	}

	// Start LISTEN/NOTIFY consumer for appointment change events
	go listener.Start(ctx, cfg.DatabaseURL, pool.Pool, store, loc, logger)

	// Start maintenance tickers (notification cleanup)
	go maintenance.Start(ctx, pool.Pool, maintenance.DefaultConfig(), logger)

	// Narrative report generator
	reports := report.NewGenerator(
		report.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL),
		cfg.OpenAIModel, logger)
	if cfg.OpenAIAPIKey == "" {
		logger.Info("Report generation disabled (no OPENAI_API_KEY)")
	}

	// Create router
	router := api.NewRouter(pool.Pool, appCache, cfg, reports, scheduler)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		logger.Info("Starting Casedata API",
			"addr", addr,
			"environment", cfg.Environment,
			"docs", fmt.Sprintf("http://localhost:%d/docs/", cfg.APIPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt
	<-ctx.Done()
	logger.Info("Shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}
	logger.Info("Server stopped")
}
