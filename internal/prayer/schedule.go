// Package prayer fetches daily prayer schedules from the Aladhan timings
// API and caches them per subscriber, per calendar date.
package prayer

import "errors"

// ErrScheduleFetch wraps any failure to obtain a day's schedule. Transient:
// callers skip the subscriber for the cycle and retry on the next tick.
var ErrScheduleFetch = errors.New("schedule fetch failed")

// Schedule holds one day's timings as "HH:MM" local clock values, keyed by
// the Indonesian names the client displays.
type Schedule struct {
	Imsak   string `json:"Imsak"`
	Subuh   string `json:"Subuh"`
	Terbit  string `json:"Terbit"`
	Dzuhur  string `json:"Dzuhur"`
	Ashar   string `json:"Ashar"`
	Maghrib string `json:"Maghrib"`
	Isya    string `json:"Isya"`
}

// AlertNames are the five prayers that trigger notifications. Imsak has its
// own rule and Terbit is display-only, never alerted.
var AlertNames = []string{"Subuh", "Dzuhur", "Ashar", "Maghrib", "Isya"}

// Time returns the timing for a named prayer, or "" for unknown names.
func (s Schedule) Time(name string) string {
	switch name {
	case "Imsak":
		return s.Imsak
	case "Subuh":
		return s.Subuh
	case "Terbit":
		return s.Terbit
	case "Dzuhur":
		return s.Dzuhur
	case "Ashar":
		return s.Ashar
	case "Maghrib":
		return s.Maghrib
	case "Isya":
		return s.Isya
	}
	return ""
}
