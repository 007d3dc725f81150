// Package store persists web push subscriptions keyed by endpoint.
//
// Two backends implement the same interface: a single-file JSON document
// (the default, matching the layout the web client was shipped against)
// and Postgres for deployments that already run one.
package store

import (
	"context"
	"errors"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"
)

// ErrInvalidSubscription is returned by Upsert when the record has no usable
// push endpoint. Rejected immediately; never retried.
var ErrInvalidSubscription = errors.New("invalid subscription: missing endpoint")

// Record is one subscriber: the browser push subscription plus the location
// and notification preferences it was registered with.
//
// Only these fields are persisted. Derived state (cached prayer schedules,
// sent markers) lives elsewhere and must never leak into storage.
type Record struct {
	Subscription         webpush.Subscription `json:"subscription"`
	Lat                  float64              `json:"lat"`
	Lng                  float64              `json:"lng"`
	NotificationsEnabled bool                 `json:"notificationsEnabled"`
	ImsakNotifEnabled    bool                 `json:"imsakNotifEnabled"`
	CreatedAt            time.Time            `json:"createdAt"`
}

// Endpoint returns the push endpoint, the record's primary key.
func (r *Record) Endpoint() string {
	return r.Subscription.Endpoint
}

// Valid reports whether the record carries a usable push endpoint.
func (r *Record) Valid() bool {
	return r.Subscription.Endpoint != ""
}

// Store is the durable endpoint → Record mapping.
//
// Mutations persist the full collection before returning. ListAll returns a
// consistent snapshot: concurrent mutations may or may not be observed, but
// a half-written record never is.
type Store interface {
	Upsert(ctx context.Context, rec Record) error
	Remove(ctx context.Context, endpoint string) error
	ListAll(ctx context.Context) ([]Record, error)
	Count(ctx context.Context) (int, error)
	Close() error
}
