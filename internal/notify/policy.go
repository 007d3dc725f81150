// Package notify decides when prayer notifications are due and drives their
// delivery.
//
// The policy engine is one set of matching rules shared by every caller —
// the server dispatch loop and the client-mirror fallback — parameterized
// only by the marker-storage backend, so the rules are never derived twice.
package notify

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ajekkk/sholatku-push/internal/prayer"
)

// Event keys. Prayer events use the prayer name itself.
const (
	KeySahur = "sahur"
	KeyImsak = "imsak"
)

// Event is one due notification.
type Event struct {
	Key   string `json:"key"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Evaluate applies the matching rules for one subscriber at one instant and
// returns the events due this minute. Each emitted event is marked sent in
// the same step, so an event is never reported twice for the same date.
//
// Matching is whole-minute: an event fires only during the minute its time
// names, and the marker gates repeat evaluations within that minute.
func Evaluate(s prayer.Schedule, prayerEnabled, imsakEnabled bool, now time.Time, subscriber string, markers MarkerStore) []Event {
	var due []Event
	today := prayer.DateKey(now)

	emit := func(key, title, body string) {
		if markers.WasSent(subscriber, key, today) {
			return
		}
		markers.MarkSent(subscriber, key, today)
		due = append(due, Event{Key: key, Title: title, Body: body})
	}

	// Sahur reminder: one hour before Imsak, hour wrapping 0 → 23.
	if imsakEnabled && s.Imsak != "" {
		if h, m, ok := parseClock(s.Imsak); ok {
			sahur := fmt.Sprintf("%02d:%02d", (h+23)%24, m)
			if minuteMatch(sahur, now) {
				emit(KeySahur,
					"🍚 AYOO SAHUUUUUURRRRRRRR!!!",
					fmt.Sprintf("1 jam lagi Imsak (%s). Bangun dan segera sahur! 💪", s.Imsak))
			}
		}

		if minuteMatch(s.Imsak, now) {
			emit(KeyImsak,
				"⏰ Waktu Imsak",
				fmt.Sprintf("Sudah masuk waktu Imsak (%s). Segera hentikan makan & minum!", s.Imsak))
		}
	}

	// The five daily prayers. Imsak and Terbit are excluded: Imsak has its
	// own rule above, Terbit is display-only.
	if prayerEnabled {
		for _, name := range prayer.AlertNames {
			t := s.Time(name)
			if t != "" && minuteMatch(t, now) {
				emit(name,
					fmt.Sprintf("🕌 Waktu %s", name),
					fmt.Sprintf("Sudah masuk waktu %s (%s). Ayo sholat!", name, t))
			}
		}
	}

	return due
}

// minuteMatch reports whether now falls in the minute named by an "HH:MM"
// clock value. Seconds are ignored.
func minuteMatch(clock string, now time.Time) bool {
	h, m, ok := parseClock(clock)
	return ok && now.Hour() == h && now.Minute() == m
}

func parseClock(clock string) (h, m int, ok bool) {
	parts := strings.SplitN(clock, ":", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, false
	}
	m, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, false
	}
	return h, m, true
}
