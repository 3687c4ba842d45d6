package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"gitlab.com/yelinaung/finance-bot/internal/database"
)

// Postgres is a Store backed by the local_state table.
type Postgres struct {
	db database.Querier
}

// NewPostgres creates a Store over a pool or transaction.
func NewPostgres(db database.Querier) *Postgres {
	return &Postgres{db: db}
}

// Get loads the value stored under key.
func (p *Postgres) Get(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := p.db.QueryRow(ctx, `SELECT value FROM local_state WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %q: %w", key, err)
	}
	return []byte(value), nil
}

// Set upserts the value stored under key.
func (p *Postgres) Set(ctx context.Context, key string, value []byte) error {
	sql := `
		INSERT INTO local_state (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = NOW()
	`
	if _, err := p.db.Exec(ctx, sql, key, string(value)); err != nil {
		return fmt.Errorf("failed to set %q: %w", key, err)
	}
	return nil
}
