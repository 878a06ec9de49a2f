package db

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

type Options struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnectAttempts uint
	ConnectInterval time.Duration
}

// Connect opens the database, waits until it answers pings and applies migrations.
// The database container often starts after the service, so pings are retried
// ConnectAttempts times, ConnectInterval apart.
func Connect(ctx context.Context, opts Options, log *zap.Logger) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(opts.MaxOpenConns)
	db.SetMaxIdleConns(opts.MaxIdleConns)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := waitForConnection(ctx, db, opts, log); err != nil {
		db.Close()
		return nil, err
	}

	if err := Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func waitForConnection(ctx context.Context, db *sqlx.DB, opts Options, log *zap.Logger) error {
	attempts := opts.ConnectAttempts
	if attempts == 0 {
		attempts = 1
	}

	attempt := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return struct{}{}, db.PingContext(pingCtx)
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(opts.ConnectInterval)),
		backoff.WithMaxTries(attempts),
		backoff.WithNotify(func(err error, next time.Duration) {
			log.Warn("database not reachable, retrying",
				zap.Int("attempt", attempt),
				zap.Uint("max_attempts", attempts),
				zap.Duration("retry_in", next),
				zap.Error(err),
			)
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to ping database after %d attempts: %w", attempt, err)
	}

	log.Info("connected to database", zap.Int("attempts", attempt))
	return nil
}

// Migrate creates the schema if it does not exist yet.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for _, q := range migrations {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		email TEXT NOT NULL,
		name VARCHAR(255) NOT NULL,
		password TEXT NOT NULL,
		is_staff BOOLEAN NOT NULL DEFAULT FALSE,
		is_superuser BOOLEAN NOT NULL DEFAULT FALSE,
		last_login TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS users_email_lower_key ON users (LOWER(email))`,
	`CREATE TABLE IF NOT EXISTS tokens (
		key VARCHAR(64) PRIMARY KEY,
		user_id BIGINT NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	`CREATE TABLE IF NOT EXISTS friend_requests (
		id BIGSERIAL PRIMARY KEY,
		sender_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		receiver_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		status SMALLINT NOT NULL DEFAULT 1 CHECK (status IN (1, 2, 3)),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS friend_requests_pending_pair_key
		ON friend_requests (sender_id, receiver_id) WHERE status = 1`,
	`CREATE INDEX IF NOT EXISTS friend_requests_sender_created_idx
		ON friend_requests (sender_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS friend_requests_receiver_status_idx
		ON friend_requests (receiver_id, status)`,
	`CREATE TABLE IF NOT EXISTS friendships (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		friend_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (user_id, friend_id)
		)`,
	`CREATE INDEX IF NOT EXISTS friendships_friend_idx ON friendships (friend_id)`,
}
