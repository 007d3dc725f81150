package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajekkk/sholatku-push/internal/prayer"
)

var testSchedule = prayer.Schedule{
	Imsak:   "04:30",
	Subuh:   "04:40",
	Terbit:  "05:55",
	Dzuhur:  "12:01",
	Ashar:   "15:14",
	Maghrib: "18:05",
	Isya:    "19:14",
}

func at(hhmm string) time.Time {
	t, err := time.Parse("2006-01-02 15:04", "2026-03-10 "+hhmm)
	if err != nil {
		panic(err)
	}
	return t
}

func TestSahurFiresOneHourBeforeImsak(t *testing.T) {
	markers := NewMemoryMarkers()

	events := Evaluate(testSchedule, false, true, at("03:30"), "sub-1", markers)
	require.Len(t, events, 1)
	assert.Equal(t, KeySahur, events[0].Key)
	assert.Equal(t, "🍚 AYOO SAHUUUUUURRRRRRRR!!!", events[0].Title)
	assert.Contains(t, events[0].Body, "04:30")

	// Same minute, second evaluation: marker suppresses it.
	events = Evaluate(testSchedule, false, true, at("03:30"), "sub-1", markers)
	assert.Empty(t, events)
}

func TestSahurHourWrapsAroundMidnight(t *testing.T) {
	s := testSchedule
	s.Imsak = "00:15"
	markers := NewMemoryMarkers()

	events := Evaluate(s, false, true, at("23:15"), "sub-1", markers)
	require.Len(t, events, 1)
	assert.Equal(t, KeySahur, events[0].Key)
}

func TestImsakFiresOnce(t *testing.T) {
	markers := NewMemoryMarkers()

	events := Evaluate(testSchedule, false, true, at("04:30"), "sub-1", markers)
	require.Len(t, events, 1)
	assert.Equal(t, KeyImsak, events[0].Key)
	assert.Equal(t, "⏰ Waktu Imsak", events[0].Title)

	events = Evaluate(testSchedule, false, true, at("04:30"), "sub-1", markers)
	assert.Empty(t, events)
}

func TestPrayerEventFiresOnlyInItsMinute(t *testing.T) {
	markers := NewMemoryMarkers()

	events := Evaluate(testSchedule, true, false, at("18:05"), "sub-1", markers)
	require.Len(t, events, 1)
	assert.Equal(t, "Maghrib", events[0].Key)
	assert.Equal(t, "🕌 Waktu Maghrib", events[0].Title)
	assert.Contains(t, events[0].Body, "Maghrib (18:05)")

	// Minute window passed: nothing, and the marker stays consumed.
	markers2 := NewMemoryMarkers()
	events = Evaluate(testSchedule, true, false, at("18:06"), "sub-1", markers2)
	assert.Empty(t, events)
}

func TestImsakAndTerbitNeverAlertAsPrayers(t *testing.T) {
	markers := NewMemoryMarkers()

	// Prayer notifications on, imsak notifications off: the Imsak minute
	// emits nothing.
	events := Evaluate(testSchedule, true, false, at("04:30"), "sub-1", markers)
	assert.Empty(t, events)

	// Terbit minute emits nothing either.
	events = Evaluate(testSchedule, true, true, at("05:55"), "sub-1", markers)
	assert.Empty(t, events)
}

func TestDisabledFlagsSuppressEverything(t *testing.T) {
	markers := NewMemoryMarkers()

	for _, clock := range []string{"03:30", "04:30", "04:40", "12:01", "18:05"} {
		events := Evaluate(testSchedule, false, false, at(clock), "sub-1", markers)
		assert.Empty(t, events, "no events expected at %s", clock)
	}
	assert.Equal(t, 0, markers.Len())
}

func TestMarkerConsumedOnDateChange(t *testing.T) {
	markers := NewMemoryMarkers()

	events := Evaluate(testSchedule, true, false, at("18:05"), "sub-1", markers)
	require.Len(t, events, 1)

	// Same clock minute on the next day: the stale marker no longer gates.
	nextDay := at("18:05").AddDate(0, 0, 1)
	events = Evaluate(testSchedule, true, false, nextDay, "sub-1", markers)
	require.Len(t, events, 1)
	assert.Equal(t, "Maghrib", events[0].Key)
}

func TestMarkersAreScopedPerSubscriber(t *testing.T) {
	markers := NewMemoryMarkers()

	events := Evaluate(testSchedule, true, false, at("18:05"), "sub-1", markers)
	require.Len(t, events, 1)

	events = Evaluate(testSchedule, true, false, at("18:05"), "sub-2", markers)
	require.Len(t, events, 1)
}

func TestAtMostOneEventPerPrayerPerDate(t *testing.T) {
	markers := NewMemoryMarkers()
	seen := map[string]int{}

	// Sweep a whole day minute by minute, twice per minute.
	for min := 0; min < 24*60; min++ {
		now := at("00:00").Add(time.Duration(min) * time.Minute)
		for i := 0; i < 2; i++ {
			for _, e := range Evaluate(testSchedule, true, true, now, "sub-1", markers) {
				seen[e.Key]++
			}
		}
	}

	for key, n := range seen {
		assert.Equal(t, 1, n, "event %s fired %d times", key, n)
	}
	assert.Len(t, seen, 7) // sahur, imsak, five prayers
}
