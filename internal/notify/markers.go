package notify

import (
	"encoding/json"
	"os"
	"sync"
)

// MarkerStore records which events were already delivered, keyed by
// (subscriber, event) with the calendar date as value. A marker from any
// other date counts as unset.
type MarkerStore interface {
	WasSent(subscriber, eventKey, date string) bool
	MarkSent(subscriber, eventKey, date string)
	// Prune drops markers whose date differs from the given one.
	Prune(date string)
}

// --------------------------------------------------------------------------
// In-memory backend (server process)
// --------------------------------------------------------------------------

// MemoryMarkers is the server-side marker backend: a mutex-guarded map
// cleared of stale dates on every dispatch tick.
type MemoryMarkers struct {
	mu   sync.Mutex
	sent map[string]string // subscriber|event → date
}

// NewMemoryMarkers creates an empty in-memory marker store.
func NewMemoryMarkers() *MemoryMarkers {
	return &MemoryMarkers{sent: make(map[string]string)}
}

func (m *MemoryMarkers) WasSent(subscriber, eventKey, date string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sent[markerKey(subscriber, eventKey)] == date
}

func (m *MemoryMarkers) MarkSent(subscriber, eventKey, date string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent[markerKey(subscriber, eventKey)] = date
}

func (m *MemoryMarkers) Prune(date string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, d := range m.sent {
		if d != date {
			delete(m.sent, k)
		}
	}
}

// Len returns the number of live markers.
func (m *MemoryMarkers) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

// --------------------------------------------------------------------------
// File-backed backend (client-mirror fallback, pushctl)
// --------------------------------------------------------------------------

// FileMarkers is a persisted key-value marker backend, the counterpart of
// the web client's localStorage markers. Best-effort: a failed write only
// risks a duplicate notification after restart.
type FileMarkers struct {
	mu   sync.Mutex
	path string
	sent map[string]string
}

// OpenFileMarkers loads markers from path; a missing file yields an empty set.
func OpenFileMarkers(path string) *FileMarkers {
	f := &FileMarkers{path: path, sent: make(map[string]string)}
	if data, err := os.ReadFile(path); err == nil {
		_ = json.Unmarshal(data, &f.sent)
	}
	return f
}

func (f *FileMarkers) WasSent(subscriber, eventKey, date string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent[markerKey(subscriber, eventKey)] == date
}

func (f *FileMarkers) MarkSent(subscriber, eventKey, date string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent[markerKey(subscriber, eventKey)] = date
	f.persistLocked()
}

func (f *FileMarkers) Prune(date string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	changed := false
	for k, d := range f.sent {
		if d != date {
			delete(f.sent, k)
			changed = true
		}
	}
	if changed {
		f.persistLocked()
	}
}

func (f *FileMarkers) persistLocked() {
	data, err := json.Marshal(f.sent)
	if err != nil {
		return
	}
	_ = os.WriteFile(f.path, data, 0o644)
}

func markerKey(subscriber, eventKey string) string {
	return subscriber + "|" + eventKey
}
