package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/ajekkk/sholatku-push/internal/store"
)

// ErrSubscriptionGone marks a terminal delivery failure: the push gateway
// reported the endpoint permanently gone (404/410) and the subscriber has
// already been removed from the store. Never retried.
var ErrSubscriptionGone = errors.New("subscription gone")

// defaultTTL is how long the push gateway may queue an undelivered message.
// Prayer alerts are pointless hours later, so keep it short.
const defaultTTL = 5 * time.Minute

// payload is the JSON body the service worker's push handler expects.
type payload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Result reports the gateway status for one delivery.
type Result struct {
	StatusCode int
}

// transport matches webpush.SendNotificationWithContext; injectable so
// tests can stub the gateway call.
type transport func(ctx context.Context, message []byte, s *webpush.Subscription, options *webpush.Options) (*http.Response, error)

// Adapter sends Web Push notifications and feeds expiry information back to
// the subscriber store.
type Adapter struct {
	st      store.Store
	keys    VAPIDKeys
	subject string
	send    transport
	logger  *slog.Logger
}

// NewAdapter creates a push adapter. subject is the VAPID contact
// (mailto: or https: URL) presented to push gateways.
func NewAdapter(st store.Store, keys VAPIDKeys, subject string, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{
		st:      st,
		keys:    keys,
		subject: subject,
		send:    webpush.SendNotificationWithContext,
		logger:  logger,
	}
}

// Send delivers a notification, satisfying the dispatch loop's Sender.
func (a *Adapter) Send(ctx context.Context, rec store.Record, title, body string) error {
	_, err := a.Deliver(ctx, rec, title, body)
	return err
}

// Deliver sends one notification and interprets the gateway response.
//
// 404 and 410 mean the destination is permanently gone: the subscriber is
// removed from the store and ErrSubscriptionGone returned. Any other
// failure is transient — no retry is scheduled this tick; the next tick
// re-attempts naturally unless the day's marker is already set.
func (a *Adapter) Deliver(ctx context.Context, rec store.Record, title, body string) (Result, error) {
	msg, err := json.Marshal(payload{Title: title, Body: body})
	if err != nil {
		return Result{}, fmt.Errorf("marshal payload: %w", err)
	}

	resp, err := a.send(ctx, msg, &rec.Subscription, &webpush.Options{
		Subscriber:      a.subject,
		VAPIDPublicKey:  a.keys.PublicKey,
		VAPIDPrivateKey: a.keys.PrivateKey,
		TTL:             int(defaultTTL.Seconds()),
	})
	if err != nil {
		return Result{}, fmt.Errorf("webpush send: %w", err)
	}
	defer resp.Body.Close()

	result := Result{StatusCode: resp.StatusCode}

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		a.logger.Info("Removing expired subscription", "status", resp.StatusCode)
		if err := a.st.Remove(ctx, rec.Endpoint()); err != nil {
			a.logger.Error("Failed to remove expired subscription", "error", err)
		}
		return result, fmt.Errorf("%w: status %d", ErrSubscriptionGone, resp.StatusCode)

	case resp.StatusCode >= 400:
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return result, fmt.Errorf("push gateway returned %d: %s", resp.StatusCode, detail)
	}

	return result, nil
}
