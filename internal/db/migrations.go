package db

import "context"

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		user_id        TEXT PRIMARY KEY,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		total_rides    BIGINT NOT NULL DEFAULT 0,
		total_distance BIGINT NOT NULL DEFAULT 0,
		total_duration BIGINT NOT NULL DEFAULT 0,
		total_calories BIGINT NOT NULL DEFAULT 0,
		last_ride_at   TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS rides (
		id             TEXT PRIMARY KEY,
		user_id        TEXT NOT NULL REFERENCES users(user_id),
		start_time     TIMESTAMPTZ NOT NULL,
		end_time       TIMESTAMPTZ NOT NULL,
		duration       BIGINT NOT NULL DEFAULT 0,
		distance       BIGINT NOT NULL DEFAULT 0,
		calories       BIGINT NOT NULL DEFAULT 0,
		avg_speed      DOUBLE PRECISION NOT NULL DEFAULT 0,
		max_speed      DOUBLE PRECISION NOT NULL DEFAULT 0,
		route          JSONB NOT NULL DEFAULT '[]',
		start_location JSONB,
		end_location   JSONB,
		weather        JSONB NOT NULL DEFAULT '{}',
		created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_rides_user_created ON rides (user_id, created_at DESC)`,
}

// Migrate applies the schema idempotently. Safe to run on every startup.
func Migrate(ctx context.Context, q Querier) error {
	for _, stmt := range schema {
		if _, err := q.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
