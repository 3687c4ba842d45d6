// Package repository persists the Telegram users the bot has seen, which
// the daily reminder uses to resolve whitelisted usernames to chat ids.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"gitlab.com/yelinaung/finance-bot/internal/database"
	"gitlab.com/yelinaung/finance-bot/internal/models"
)

// ErrUserNotFound is returned when no user has the requested id.
var ErrUserNotFound = errors.New("user not found")

// Column order matches the fields of models.User.
const selectUsers = `
	SELECT id, COALESCE(username, ''), COALESCE(first_name, ''), COALESCE(last_name, ''), created_at, updated_at
	FROM users`

// UserRepository stores users in the users table.
type UserRepository struct {
	db database.Querier
}

// NewUserRepository returns a repository over a pool or transaction.
func NewUserRepository(db database.Querier) *UserRepository {
	return &UserRepository{db: db}
}

// UpsertUser records the user's current names, keeping created_at.
func (r *UserRepository) UpsertUser(ctx context.Context, user *models.User) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO users (id, username, first_name, last_name)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			username = EXCLUDED.username,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			updated_at = NOW()
	`, user.ID, user.Username, user.FirstName, user.LastName)
	if err != nil {
		return fmt.Errorf("failed to upsert user %d: %w", user.ID, err)
	}
	return nil
}

// GetUserByID returns the user with the given Telegram id.
func (r *UserRepository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	rows, err := r.db.Query(ctx, selectUsers+` WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}
	user, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByPos[models.User])
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil, ErrUserNotFound
	case err != nil:
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}
	return &user, nil
}

// GetReminderRecipients returns the known users on the whitelist, matched
// by id or case-insensitively by username, ordered by id.
func (r *UserRepository) GetReminderRecipients(ctx context.Context, ids []int64, usernames []string) ([]models.User, error) {
	if len(ids) == 0 && len(usernames) == 0 {
		return nil, nil
	}

	names := make([]string, len(usernames))
	for i, u := range usernames {
		names[i] = strings.ToLower(strings.TrimPrefix(u, "@"))
	}

	rows, err := r.db.Query(ctx, selectUsers+`
		WHERE id = ANY($1) OR LOWER(username) = ANY($2)
		ORDER BY id`, ids, names)
	if err != nil {
		return nil, fmt.Errorf("failed to query reminder recipients: %w", err)
	}
	users, err := pgx.CollectRows(rows, pgx.RowToStructByPos[models.User])
	if err != nil {
		return nil, fmt.Errorf("failed to scan reminder recipients: %w", err)
	}
	return users, nil
}
