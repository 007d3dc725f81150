package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore keeps the whole collection in memory and rewrites a single JSON
// document on every mutation. Writes go through a temp file + rename so a
// crash mid-write cannot corrupt the document.
type FileStore struct {
	mu      sync.RWMutex
	path    string
	records []Record
}

// OpenFile loads the subscription document at path, filtering out any record
// that lacks a valid endpoint. A missing file yields an empty store.
func OpenFile(path string) (*FileStore, error) {
	s := &FileStore{path: path}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read subscriptions: %w", err)
	}

	var raw []Record
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse subscriptions: %w", err)
	}
	for _, r := range raw {
		if r.Valid() {
			s.records = append(s.records, r)
		}
	}
	return s, nil
}

// Upsert inserts or replaces by endpoint and persists the collection.
func (s *FileStore) Upsert(ctx context.Context, rec Record) error {
	if !rec.Valid() {
		return ErrInvalidSubscription
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	replaced := false
	for i := range s.records {
		if s.records[i].Endpoint() == rec.Endpoint() {
			s.records[i] = rec
			replaced = true
			break
		}
	}
	if !replaced {
		s.records = append(s.records, rec)
	}
	return s.persistLocked()
}

// Remove deletes by endpoint. Idempotent: removing an absent endpoint still
// succeeds (the collection is rewritten either way).
func (s *FileStore) Remove(ctx context.Context, endpoint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.records[:0]
	for _, r := range s.records {
		if r.Endpoint() != endpoint {
			kept = append(kept, r)
		}
	}
	s.records = kept
	return s.persistLocked()
}

// ListAll returns a snapshot of all current records in insertion order.
func (s *FileStore) ListAll(ctx context.Context) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out, nil
}

// Count returns the number of stored subscriptions.
func (s *FileStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

// Close is a no-op; every mutation already persists synchronously.
func (s *FileStore) Close() error { return nil }

// persistLocked rewrites the document. Caller holds s.mu.
func (s *FileStore) persistLocked() error {
	data, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal subscriptions: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".subscriptions-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write subscriptions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace subscriptions: %w", err)
	}
	return nil
}
