// Command server is the SholatKu push notification service.
//
// Usage:
//
//	sholatku-server
//	PORT=3005 sholatku-server

// @title SholatKu Push API
// @version 1.0.0
// @description Web Push backend for the SholatKu PWA: stores subscriptions, computes daily prayer schedules per coordinate, and pushes notifications at prayer times.
// @host localhost:3005
// @BasePath /
// @schemes http https
// @contact.name SholatKu
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

	"github.com/ajekkk/sholatku-push/internal/api"
	"github.com/ajekkk/sholatku-push/internal/config"
	"github.com/ajekkk/sholatku-push/internal/notify"
	"github.com/ajekkk/sholatku-push/internal/prayer"
	"github.com/ajekkk/sholatku-push/internal/push"
	"github.com/ajekkk/sholatku-push/internal/store"

	_ "github.com/ajekkk/sholatku-push/docs" // swagger docs
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// Load .env if present
	_ = godotenv.Load(".env")

	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	// VAPID keys: load or generate on first run
	keys, created, err := push.LoadOrGenerateKeys(cfg.VAPIDKeysFile)
	if err != nil {
		logger.Error("Failed to load VAPID keys", "error", err)
		os.Exit(1)
	}
	if created {
		logger.Warn("Generated new VAPID keys — existing subscriptions are now invalid",
			"file", cfg.VAPIDKeysFile)
	}
	logger.Info("VAPID keys loaded", "publicKey", keys.Truncated())

	// Subscriber store: Postgres when configured, JSON document otherwise
	st, err := openStore(ctx, cfg)
	if err != nil {
		logger.Error("Failed to open subscriber store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	count, _ := st.Count(ctx)
	logger.Info("Subscriptions loaded", "count", count)

	// Push adapter and dispatch loop
	adapter := push.NewAdapter(st, keys, cfg.VAPIDSubject, logger)
	aladhan := prayer.NewAladhanClient(cfg.AladhanBaseURL, cfg.AladhanMethod, cfg.AladhanRPM, logger)
	cache := prayer.NewCache(aladhan)
	markers := notify.NewMemoryMarkers()

	loop := notify.NewLoop(st, cache, markers, adapter, cfg.DispatchInterval, logger)
	go loop.Start(ctx)

	// Create router and HTTP server
	router := api.NewRouter(st, adapter, keys, cfg, logger)

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		logger.Info("Starting SholatKu push service",
			"addr", addr,
			"environment", cfg.Environment,
			"interval", cfg.DispatchInterval)
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

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	if cfg.DatabaseURL != "" {
		return store.OpenPostgres(ctx, cfg.DatabaseURL)
	}
	return store.OpenFile(cfg.DataFile)
}
