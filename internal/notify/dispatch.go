package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ajekkk/sholatku-push/internal/prayer"
	"github.com/ajekkk/sholatku-push/internal/store"
)

// Sender delivers one notification to a subscriber. Terminal delivery
// failures (expired endpoints) are the sender's problem; the loop only
// logs whatever comes back.
type Sender interface {
	Send(ctx context.Context, rec store.Record, title, body string) error
}

// Loop periodically evaluates every subscriber against the policy engine
// and dispatches due notifications.
type Loop struct {
	store    store.Store
	cache    *prayer.Cache
	markers  MarkerStore
	sender   Sender
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time

	// Guards against unbounded overlap: a tick that starts while the
	// previous one still runs is skipped, not queued.
	ticking sync.Mutex
}

// NewLoop creates a dispatch loop. interval is the tick period (30s in
// production).
func NewLoop(st store.Store, cache *prayer.Cache, markers MarkerStore, sender Sender, interval time.Duration, logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		store:    st,
		cache:    cache,
		markers:  markers,
		sender:   sender,
		interval: interval,
		logger:   logger,
		now:      time.Now,
	}
}

// Start runs the loop until ctx is cancelled: one immediate tick, then one
// per interval. Blocks; intended to be called with `go`.
func (l *Loop) Start(ctx context.Context) {
	l.logger.Info("Notification loop started", "interval", l.interval)

	l.runTick(ctx)

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.runTick(ctx)
		case <-ctx.Done():
			l.logger.Info("Notification loop stopped")
			return
		}
	}
}

func (l *Loop) runTick(ctx context.Context) {
	if !l.ticking.TryLock() {
		l.logger.Warn("Previous tick still running, skipping")
		return
	}
	defer l.ticking.Unlock()
	l.Tick(ctx)
}

// Tick processes every subscriber once. A single subscriber's failure —
// schedule fetch or delivery — never aborts the rest.
func (l *Loop) Tick(ctx context.Context) (delivered int) {
	now := l.now()
	today := prayer.DateKey(now)

	l.markers.Prune(today)

	subs, err := l.store.ListAll(ctx)
	if err != nil {
		l.logger.Error("List subscribers failed", "error", err)
		return 0
	}

	keep := make(map[string]bool, len(subs))
	for _, rec := range subs {
		keep[rec.Endpoint()] = true
	}
	l.cache.Prune(now, keep)

	for _, rec := range subs {
		schedule, err := l.cache.TodaysSchedule(ctx, rec.Endpoint(), rec.Lat, rec.Lng, now)
		if err != nil {
			l.logger.Warn("Schedule fetch failed, skipping subscriber",
				"endpoint", truncateEndpoint(rec.Endpoint()), "error", err)
			continue
		}

		events := Evaluate(schedule, rec.NotificationsEnabled, rec.ImsakNotifEnabled, now, rec.Endpoint(), l.markers)
		for _, e := range events {
			if err := l.sender.Send(ctx, rec, e.Title, e.Body); err != nil {
				l.logger.Warn("Delivery failed",
					"event", e.Key, "endpoint", truncateEndpoint(rec.Endpoint()), "error", err)
				continue
			}
			delivered++
			l.logger.Info("Notification sent",
				"event", e.Key, "endpoint", truncateEndpoint(rec.Endpoint()))
		}
	}
	return delivered
}

// truncateEndpoint keeps logs readable; push endpoints run past 200 chars.
func truncateEndpoint(endpoint string) string {
	if len(endpoint) <= 60 {
		return endpoint
	}
	return endpoint[:60] + "..."
}
