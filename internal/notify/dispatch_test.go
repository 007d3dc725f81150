package notify

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajekkk/sholatku-push/internal/prayer"
	"github.com/ajekkk/sholatku-push/internal/store"
)

// fakeFetcher serves a fixed schedule, failing for selected coordinates.
type fakeFetcher struct {
	mu       sync.Mutex
	schedule prayer.Schedule
	failLat  map[float64]bool
	calls    int
}

func (f *fakeFetcher) Timings(ctx context.Context, lat, lng float64, date time.Time) (prayer.Schedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failLat[lat] {
		return prayer.Schedule{}, fmt.Errorf("%w: boom", prayer.ErrScheduleFetch)
	}
	return f.schedule, nil
}

// recordingSender collects deliveries and can fail per endpoint.
type recordingSender struct {
	mu      sync.Mutex
	sent    []string // endpoint|title
	failFor map[string]error
}

func (s *recordingSender) Send(ctx context.Context, rec store.Record, title, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.failFor[rec.Endpoint()]; ok {
		return err
	}
	s.sent = append(s.sent, rec.Endpoint()+"|"+title)
	return nil
}

func dispatchRecord(t *testing.T, st store.Store, endpoint string, lat float64) store.Record {
	t.Helper()
	rec := store.Record{
		Subscription: webpush.Subscription{
			Endpoint: endpoint,
			Keys:     webpush.Keys{P256dh: "k", Auth: "a"},
		},
		Lat:                  lat,
		Lng:                  106.8,
		NotificationsEnabled: true,
		ImsakNotifEnabled:    true,
		CreatedAt:            time.Now().UTC(),
	}
	require.NoError(t, st.Upsert(context.Background(), rec))
	return rec
}

func newTestLoop(t *testing.T, fetcher prayer.Fetcher, sender Sender, now time.Time) (*Loop, store.Store) {
	t.Helper()
	st, err := store.OpenFile(filepath.Join(t.TempDir(), "subs.json"))
	require.NoError(t, err)

	loop := NewLoop(st, prayer.NewCache(fetcher), NewMemoryMarkers(), sender, 30*time.Second, nil)
	loop.now = func() time.Time { return now }
	return loop, st
}

func TestTickIsolatesFetchFailures(t *testing.T) {
	fetcher := &fakeFetcher{
		schedule: prayer.Schedule{Maghrib: "18:05"},
		failLat:  map[float64]bool{-6.0: true},
	}
	sender := &recordingSender{}
	loop, st := newTestLoop(t, fetcher, sender, at("18:05"))

	dispatchRecord(t, st, "https://push.example/a", -6.0) // fetch fails
	dispatchRecord(t, st, "https://push.example/b", -7.0)

	delivered := loop.Tick(context.Background())
	assert.Equal(t, 1, delivered)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "https://push.example/b|🕌 Waktu Maghrib", sender.sent[0])
}

func TestTickIsolatesDeliveryFailures(t *testing.T) {
	fetcher := &fakeFetcher{schedule: prayer.Schedule{Maghrib: "18:05"}}
	sender := &recordingSender{
		failFor: map[string]error{"https://push.example/a": fmt.Errorf("gateway 500")},
	}
	loop, st := newTestLoop(t, fetcher, sender, at("18:05"))

	dispatchRecord(t, st, "https://push.example/a", -6.0)
	dispatchRecord(t, st, "https://push.example/b", -7.0)

	delivered := loop.Tick(context.Background())
	assert.Equal(t, 1, delivered)
	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0], "https://push.example/b")
}

func TestTickFetchesSchedulesOncePerDay(t *testing.T) {
	fetcher := &fakeFetcher{schedule: prayer.Schedule{Maghrib: "18:05"}}
	sender := &recordingSender{}
	loop, st := newTestLoop(t, fetcher, sender, at("12:00"))

	dispatchRecord(t, st, "https://push.example/a", -6.0)

	loop.Tick(context.Background())
	loop.Tick(context.Background())
	loop.Tick(context.Background())
	assert.Equal(t, 1, fetcher.calls)
}

func TestTickDeliversAtMostOncePerEvent(t *testing.T) {
	fetcher := &fakeFetcher{schedule: prayer.Schedule{Maghrib: "18:05"}}
	sender := &recordingSender{}
	loop, st := newTestLoop(t, fetcher, sender, at("18:05"))

	dispatchRecord(t, st, "https://push.example/a", -6.0)

	// Two ticks inside the same minute: the marker gates the second.
	loop.Tick(context.Background())
	loop.Tick(context.Background())
	assert.Len(t, sender.sent, 1)
}

func TestTransientDeliveryFailureSuppressesRetrySameDay(t *testing.T) {
	// The marker is set together with emission, before the delivery
	// outcome is known: a transient failure is not re-attempted that day.
	fetcher := &fakeFetcher{schedule: prayer.Schedule{Maghrib: "18:05"}}
	sender := &recordingSender{
		failFor: map[string]error{"https://push.example/a": fmt.Errorf("gateway 500")},
	}
	loop, st := newTestLoop(t, fetcher, sender, at("18:05"))
	dispatchRecord(t, st, "https://push.example/a", -6.0)

	loop.Tick(context.Background())
	assert.Empty(t, sender.sent)

	// Gateway recovers within the same minute. Still suppressed.
	sender.failFor = nil
	loop.Tick(context.Background())
	assert.Empty(t, sender.sent)
}

func TestMarkerPruneBoundsMemory(t *testing.T) {
	markers := NewMemoryMarkers()
	markers.MarkSent("sub-1", "Maghrib", "2026-03-09")
	markers.MarkSent("sub-1", "Isya", "2026-03-09")
	markers.MarkSent("sub-2", "Maghrib", "2026-03-10")

	markers.Prune("2026-03-10")
	assert.Equal(t, 1, markers.Len())
	assert.True(t, markers.WasSent("sub-2", "Maghrib", "2026-03-10"))
	assert.False(t, markers.WasSent("sub-1", "Maghrib", "2026-03-10"))
}
