package prayer

import (
	"context"
	"sync"
	"time"
)

// DateKey is the calendar-day key used for cache entries and sent markers.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

type entry struct {
	schedule Schedule
	date     string
}

// Cache is a thread-safe per-subscriber, per-day schedule cache. An entry
// is fetched at most once per endpoint per calendar date and becomes stale
// the moment the wall-clock date changes.
type Cache struct {
	mu      sync.Mutex
	fetcher Fetcher
	entries map[string]entry
}

// NewCache creates a schedule cache backed by the given fetcher.
func NewCache(fetcher Fetcher) *Cache {
	return &Cache{
		fetcher: fetcher,
		entries: make(map[string]entry),
	}
}

// TodaysSchedule returns the cached schedule for today, fetching it if the
// endpoint has no entry for today's date.
func (c *Cache) TodaysSchedule(ctx context.Context, endpoint string, lat, lng float64, now time.Time) (Schedule, error) {
	today := DateKey(now)

	c.mu.Lock()
	if e, ok := c.entries[endpoint]; ok && e.date == today {
		c.mu.Unlock()
		return e.schedule, nil
	}
	c.mu.Unlock()

	// Fetch outside the lock; a duplicate fetch under contention is
	// harmless and the winner simply overwrites.
	schedule, err := c.fetcher.Timings(ctx, lat, lng, now)
	if err != nil {
		return Schedule{}, err
	}

	c.mu.Lock()
	c.entries[endpoint] = entry{schedule: schedule, date: today}
	c.mu.Unlock()
	return schedule, nil
}

// Prune drops entries from prior dates and entries for endpoints not in
// keep. Called once per dispatch tick to bound memory.
func (c *Cache) Prune(now time.Time, keep map[string]bool) {
	today := DateKey(now)
	c.mu.Lock()
	defer c.mu.Unlock()
	for endpoint, e := range c.entries {
		if e.date != today || (keep != nil && !keep[endpoint]) {
			delete(c.entries, endpoint)
		}
	}
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
