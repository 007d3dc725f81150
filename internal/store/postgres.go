package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps subscriptions in a push_subscriptions table. Selected
// at startup when DATABASE_URL is set; row-level upserts replace the file
// store's whole-document rewrite.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects, verifies connectivity, and ensures the schema.
func OpenPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &PostgresStore{pool: pool}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS push_subscriptions (
			endpoint              TEXT PRIMARY KEY,
			subscription          JSONB NOT NULL,
			lat                   DOUBLE PRECISION NOT NULL,
			lng                   DOUBLE PRECISION NOT NULL,
			notifications_enabled BOOLEAN NOT NULL,
			imsak_notif_enabled   BOOLEAN NOT NULL,
			created_at            TIMESTAMPTZ NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Upsert inserts or replaces by endpoint.
func (s *PostgresStore) Upsert(ctx context.Context, rec Record) error {
	if !rec.Valid() {
		return ErrInvalidSubscription
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO push_subscriptions (
			endpoint, subscription, lat, lng,
			notifications_enabled, imsak_notif_enabled, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (endpoint) DO UPDATE SET
			subscription          = EXCLUDED.subscription,
			lat                   = EXCLUDED.lat,
			lng                   = EXCLUDED.lng,
			notifications_enabled = EXCLUDED.notifications_enabled,
			imsak_notif_enabled   = EXCLUDED.imsak_notif_enabled,
			created_at            = EXCLUDED.created_at`,
		rec.Endpoint(), rec.Subscription, rec.Lat, rec.Lng,
		rec.NotificationsEnabled, rec.ImsakNotifEnabled, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert subscription: %w", err)
	}
	return nil
}

// Remove deletes by endpoint. No error if absent.
func (s *PostgresStore) Remove(ctx context.Context, endpoint string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM push_subscriptions WHERE endpoint = $1`, endpoint)
	if err != nil {
		return fmt.Errorf("remove subscription: %w", err)
	}
	return nil
}

// ListAll returns all current records in creation order.
func (s *PostgresStore) ListAll(ctx context.Context) ([]Record, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT subscription, lat, lng,
		       notifications_enabled, imsak_notif_enabled, created_at
		FROM push_subscriptions
		ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(
			&r.Subscription, &r.Lat, &r.Lng,
			&r.NotificationsEnabled, &r.ImsakNotifEnabled, &r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Count returns the number of stored subscriptions.
func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM push_subscriptions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count subscriptions: %w", err)
	}
	return n, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
