package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/ajekkk/sholatku-push/internal/api/respond"
	"github.com/ajekkk/sholatku-push/internal/config"
	"github.com/ajekkk/sholatku-push/internal/store"
)

// subscribeRequest mirrors what the web client posts. Pointer fields
// distinguish "absent" from zero values so defaults match the client's
// behavior: location falls back to Jakarta, prayer alerts default on,
// imsak alerts default off.
type subscribeRequest struct {
	Subscription         *webpush.Subscription `json:"subscription"`
	Lat                  *float64              `json:"lat"`
	Lng                  *float64              `json:"lng"`
	NotificationsEnabled *bool                 `json:"notificationsEnabled"`
	ImsakNotifEnabled    *bool                 `json:"imsakNotifEnabled"`
}

type unsubscribeRequest struct {
	Endpoint string `json:"endpoint"`
}

// Subscribe registers or updates a push subscription.
// @Summary Subscribe to prayer notifications
// @Description Upserts a push subscription with location and notification preferences, keyed by endpoint.
// @Tags push
// @Accept json
// @Produce json
// @Param request body subscribeRequest true "Subscription descriptor and preferences"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} respond.ErrorResponse
// @Router /subscribe [post]
func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Malformed JSON body")
		return
	}
	if req.Subscription == nil || req.Subscription.Endpoint == "" {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_SUBSCRIPTION", "Invalid subscription")
		return
	}

	rec := store.Record{
		Subscription:         *req.Subscription,
		Lat:                  config.FallbackLat,
		Lng:                  config.FallbackLng,
		NotificationsEnabled: true,
		ImsakNotifEnabled:    false,
		CreatedAt:            time.Now().UTC(),
	}
	if req.Lat != nil && req.Lng != nil {
		rec.Lat = *req.Lat
		rec.Lng = *req.Lng
	}
	if req.NotificationsEnabled != nil {
		rec.NotificationsEnabled = *req.NotificationsEnabled
	}
	if req.ImsakNotifEnabled != nil {
		rec.ImsakNotifEnabled = *req.ImsakNotifEnabled
	}

	if err := h.store.Upsert(r.Context(), rec); err != nil {
		if errors.Is(err, store.ErrInvalidSubscription) {
			respond.WriteError(w, http.StatusBadRequest, "INVALID_SUBSCRIPTION", "Invalid subscription")
			return
		}
		h.logger.Error("Upsert failed", "error", err)
		respond.WriteError(w, http.StatusInternalServerError, "STORE_ERROR", "Failed to save subscription")
		return
	}

	h.logger.Info("Subscription saved",
		"lat", rec.Lat, "lng", rec.Lng,
		"prayer", rec.NotificationsEnabled, "imsak", rec.ImsakNotifEnabled)
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{"success": true})
}

// Unsubscribe removes a push subscription. Idempotent.
// @Summary Unsubscribe from prayer notifications
// @Description Removes the subscription for the given endpoint. Succeeds whether or not it existed.
// @Tags push
// @Accept json
// @Produce json
// @Param request body unsubscribeRequest true "Push endpoint"
// @Success 200 {object} map[string]interface{}
// @Router /unsubscribe [post]
func (h *Handler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	var req unsubscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Malformed JSON body")
		return
	}

	if err := h.store.Remove(r.Context(), req.Endpoint); err != nil {
		h.logger.Error("Remove failed", "error", err)
		respond.WriteError(w, http.StatusInternalServerError, "STORE_ERROR", "Failed to remove subscription")
		return
	}

	h.logger.Info("Unsubscribed")
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{"success": true})
}
