package database

import (
	"context"
	"fmt"
)

type migration struct {
	name string
	sql  string
}

// Every statement is idempotent, so the list is replayed on each start.
var migrations = []migration{
	{"create users", `CREATE TABLE IF NOT EXISTS users (
		id BIGINT PRIMARY KEY,
		username TEXT,
		first_name TEXT,
		last_name TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`},
	{"create local_state", `CREATE TABLE IF NOT EXISTS local_state (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`},
	{"index local_state.updated_at", `CREATE INDEX IF NOT EXISTS idx_local_state_updated_at ON local_state(updated_at)`},
}

// RunMigrations brings the schema for users and local state up to date.
func RunMigrations(ctx context.Context, db Querier) error {
	for _, m := range migrations {
		if _, err := db.Exec(ctx, m.sql); err != nil {
			return fmt.Errorf("migration %q failed: %w", m.name, err)
		}
	}
	return nil
}
