package notify

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajekkk/sholatku-push/internal/prayer"
)

func TestFallbackRetainsOnlyLatestPayload(t *testing.T) {
	var notified []string
	f := NewFallback(NewMemoryMarkers(), func(title, body string) {
		notified = append(notified, title)
	}, 15*time.Second, nil)
	f.now = func() time.Time { return at("18:05") }

	f.Sync(SyncMessage{Type: SyncType, Payload: SyncPayload{
		PrayerTimes:          prayer.Schedule{Maghrib: "19:00"},
		NotificationsEnabled: true,
	}})
	f.Sync(SyncMessage{Type: SyncType, Payload: SyncPayload{
		PrayerTimes:          prayer.Schedule{Maghrib: "18:05"},
		NotificationsEnabled: true,
	}})

	f.Check()
	require.Len(t, notified, 1)
	assert.Equal(t, "🕌 Waktu Maghrib", notified[0])
}

func TestFallbackIgnoresOtherMessageTypes(t *testing.T) {
	var notified []string
	f := NewFallback(NewMemoryMarkers(), func(title, body string) {
		notified = append(notified, title)
	}, 15*time.Second, nil)
	f.now = func() time.Time { return at("18:05") }

	f.Sync(SyncMessage{Type: "SOMETHING_ELSE", Payload: SyncPayload{
		PrayerTimes:          prayer.Schedule{Maghrib: "18:05"},
		NotificationsEnabled: true,
	}})

	f.Check()
	assert.Empty(t, notified)
}

func TestFileMarkersPersistAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "markers.json")

	m := OpenFileMarkers(path)
	m.MarkSent("local", "Maghrib", "2026-03-10")

	// A restart must not re-fire the same event.
	m2 := OpenFileMarkers(path)
	assert.True(t, m2.WasSent("local", "Maghrib", "2026-03-10"))
	assert.False(t, m2.WasSent("local", "Isya", "2026-03-10"))

	m2.Prune("2026-03-11")
	m3 := OpenFileMarkers(path)
	assert.False(t, m3.WasSent("local", "Maghrib", "2026-03-10"))
}

func TestFallbackUsesSamePolicyAsServer(t *testing.T) {
	// Same schedule, same clock: the fallback and a server-side evaluation
	// produce the same event, each gated by its own marker backend.
	schedule := prayer.Schedule{Imsak: "04:30"}
	now := at("03:30")

	serverEvents := Evaluate(schedule, false, true, now, "sub-1", NewMemoryMarkers())

	var fallbackTitles []string
	f := NewFallback(OpenFileMarkers(filepath.Join(t.TempDir(), "m.json")),
		func(title, body string) { fallbackTitles = append(fallbackTitles, title) },
		15*time.Second, nil)
	f.now = func() time.Time { return now }
	f.Sync(SyncMessage{Type: SyncType, Payload: SyncPayload{
		PrayerTimes:       schedule,
		ImsakNotifEnabled: true,
	}})
	f.Check()

	require.Len(t, serverEvents, 1)
	require.Len(t, fallbackTitles, 1)
	assert.Equal(t, serverEvents[0].Title, fallbackTitles[0])
}
