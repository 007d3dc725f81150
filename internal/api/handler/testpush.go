package handler

import (
	"net/http"

	"github.com/ajekkk/sholatku-push/internal/api/respond"
)

// Test payload sent to every subscriber by /test-push.
const (
	testPushTitle = "🧪 Test Push SholatKu"
	testPushBody  = "Push notification berhasil! Notif ini dikirim dari server."
)

// testPushOutcome is one subscriber's delivery result.
type testPushOutcome struct {
	Sub        int    `json:"sub"`
	Status     string `json:"status"` // "sent" | "failed"
	Error      string `json:"error,omitempty"`
	StatusCode int    `json:"statusCode,omitempty"`
}

// TestPush sends one immediate test notification to every subscriber.
// @Summary Send a test push to all subscribers
// @Description Delivers a fixed test payload to every current subscription and reports the per-subscriber outcome.
// @Tags push
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /test-push [post]
func (h *Handler) TestPush(w http.ResponseWriter, r *http.Request) {
	subs, err := h.store.ListAll(r.Context())
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "STORE_ERROR", "Failed to list subscriptions")
		return
	}

	h.logger.Info("Test push requested", "subscribers", len(subs))

	results := make([]testPushOutcome, 0, len(subs))
	for i, rec := range subs {
		result, err := h.adapter.Deliver(r.Context(), rec, testPushTitle, testPushBody)
		if err != nil {
			results = append(results, testPushOutcome{
				Sub:        i,
				Status:     "failed",
				Error:      err.Error(),
				StatusCode: result.StatusCode,
			})
			continue
		}
		results = append(results, testPushOutcome{
			Sub:        i,
			Status:     "sent",
			StatusCode: result.StatusCode,
		})
	}

	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{"results": results})
}
