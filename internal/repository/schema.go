package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS aqi_data (
		id        BIGSERIAL PRIMARY KEY,
		latitude  DOUBLE PRECISION NOT NULL,
		longitude DOUBLE PRECISION NOT NULL,
		aqi       DOUBLE PRECISION NOT NULL,
		timestamp TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS markers (
		id         BIGSERIAL PRIMARY KEY,
		name       TEXT NOT NULL,
		lat        DOUBLE PRECISION NOT NULL,
		lng        DOUBLE PRECISION NOT NULL,
		size       TEXT NOT NULL DEFAULT 'M',
		threat     TEXT NOT NULL DEFAULT 'Med',
		date_added DATE NOT NULL DEFAULT CURRENT_DATE,
		photo_url  TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id                UUID PRIMARY KEY,
		name              TEXT NOT NULL,
		points            INTEGER NOT NULL DEFAULT 0,
		streak            INTEGER NOT NULL DEFAULT 0,
		last_contribution DATE,
		created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS user_vouchers (
		id          BIGSERIAL PRIMARY KEY,
		user_id     UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		voucher     TEXT NOT NULL,
		redeemed_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_aqi_data_timestamp ON aqi_data (timestamp DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_user_vouchers_user_id ON user_vouchers (user_id)`,
}

// EnsureSchema creates the tables the service reads and writes if they are missing
func EnsureSchema(ctx context.Context, db *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
