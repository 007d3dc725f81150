package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ajekkk/sholatku-push/internal/prayer"
)

// SyncType is the message type the foreground client pushes to its
// background fallback whenever prayer data refreshes.
const SyncType = "SYNC_PRAYER_TIMES"

// fallbackSubscriber identifies the local device in the fallback's markers.
const fallbackSubscriber = "local"

// SyncMessage is the foreground → fallback channel message.
type SyncMessage struct {
	Type    string      `json:"type"`
	Payload SyncPayload `json:"payload"`
}

// SyncPayload carries the latest schedule and notification preferences.
type SyncPayload struct {
	PrayerTimes          prayer.Schedule `json:"prayerTimes"`
	NotificationsEnabled bool            `json:"notificationsEnabled"`
	ImsakNotifEnabled    bool            `json:"imsakNotifEnabled"`
}

// Notifier shows a local notification. The fallback uses it in place of a
// push transport.
type Notifier func(title, body string)

// Fallback mirrors the server policy on the client side for redundancy when
// the push service is unreachable. It retains only the most recent synced
// payload and evaluates the same policy engine on its own timer; only the
// marker backend differs (a local persisted key-value store).
type Fallback struct {
	mu       sync.Mutex
	latest   *SyncPayload
	markers  MarkerStore
	notifier Notifier
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// NewFallback creates a fallback evaluator. interval is 15s in the client.
func NewFallback(markers MarkerStore, notifier Notifier, interval time.Duration, logger *slog.Logger) *Fallback {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fallback{
		markers:  markers,
		notifier: notifier,
		interval: interval,
		logger:   logger,
		now:      time.Now,
	}
}

// Sync replaces the retained payload. Messages of any other type are ignored.
func (f *Fallback) Sync(msg SyncMessage) {
	if msg.Type != SyncType {
		return
	}
	f.mu.Lock()
	p := msg.Payload
	f.latest = &p
	f.mu.Unlock()
}

// Start evaluates the retained payload once per interval until ctx is
// cancelled. Blocks; intended to be called with `go`.
func (f *Fallback) Start(ctx context.Context) {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			f.Check()
		case <-ctx.Done():
			return
		}
	}
}

// Check runs one policy evaluation against the retained payload.
func (f *Fallback) Check() {
	f.mu.Lock()
	p := f.latest
	f.mu.Unlock()
	if p == nil {
		return
	}

	now := f.now()
	f.markers.Prune(prayer.DateKey(now))

	events := Evaluate(p.PrayerTimes, p.NotificationsEnabled, p.ImsakNotifEnabled, now, fallbackSubscriber, f.markers)
	for _, e := range events {
		f.notifier(e.Title, e.Body)
	}
}
