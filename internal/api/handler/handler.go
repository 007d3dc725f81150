// Package handler provides HTTP handlers for all API endpoints.
package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/ajekkk/sholatku-push/internal/api/respond"
	"github.com/ajekkk/sholatku-push/internal/config"
	"github.com/ajekkk/sholatku-push/internal/push"
	"github.com/ajekkk/sholatku-push/internal/store"
)

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	store   store.Store
	adapter *push.Adapter
	keys    push.VAPIDKeys
	cfg     *config.Config
	logger  *slog.Logger
}

// New creates a Handler with shared dependencies.
func New(st store.Store, adapter *push.Adapter, keys push.VAPIDKeys, cfg *config.Config, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		store:   st,
		adapter: adapter,
		keys:    keys,
		cfg:     cfg,
		logger:  logger,
	}
}

// Root serves service status at /.
// @Summary Service status
// @Description Returns service identity, subscriber count, and the truncated VAPID public key.
// @Tags meta
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router / [get]
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	count, err := h.store.Count(r.Context())
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "STORE_ERROR", "Failed to count subscriptions")
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":        "running",
		"service":       "sholatku-push",
		"subscriptions": count,
		"vapidKey":      h.keys.Truncated(),
	})
}

// HealthCheck returns basic health status.
// @Summary Health check
// @Description Returns basic health status and timestamp.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// VAPIDPublicKey returns the key clients need to create a push subscription.
// @Summary VAPID public key
// @Description Returns the application server key for PushManager.subscribe.
// @Tags push
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /vapid-public-key [get]
func (h *Handler) VAPIDPublicKey(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"key": h.keys.PublicKey,
	})
}
