// Package api wires the HTTP surface: router, middleware, and handlers.
package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	corslib "github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/ajekkk/sholatku-push/internal/api/handler"
	"github.com/ajekkk/sholatku-push/internal/config"
	"github.com/ajekkk/sholatku-push/internal/push"
	"github.com/ajekkk/sholatku-push/internal/store"
)

// NewRouter creates and configures the Chi router with all middleware and routes.
func NewRouter(st store.Store, adapter *push.Adapter, keys push.VAPIDKeys, cfg *config.Config, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	// --- Middleware stack ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(TimingMiddleware)

	// CORS — the PWA is served from a different origin than this service.
	c := corslib.New(corslib.Options{
		AllowedOrigins:   cfg.CORSAllowOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
	})
	r.Use(c.Handler)

	// Rate limiting
	if cfg.RateLimitEnabled {
		r.Use(RateLimitMiddleware(cfg.RateLimitRequests, cfg.RateLimitWindow))
	}

	// --- Handler dependencies ---
	h := handler.New(st, adapter, keys, cfg, logger)

	// --- Routes ---
	r.Get("/", h.Root)
	r.Get("/health", h.HealthCheck)
	r.Get("/vapid-public-key", h.VAPIDPublicKey)
	r.Post("/subscribe", h.Subscribe)
	r.Post("/unsubscribe", h.Unsubscribe)
	r.Post("/test-push", h.TestPush)

	// Swagger UI
	r.Get("/docs/*", httpSwagger.Handler(
		httpSwagger.URL("/docs/doc.json"),
	))

	return r
}
