package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/cory-johannsen/mythic/internal/game/companion"
	"github.com/cory-johannsen/mythic/internal/game/user"
)

// CreateUser inserts a user.
//
// Postcondition: returns user.ErrUsernameTaken if the username exists.
func (t *tx) CreateUser(ctx context.Context, username string, now time.Time) (user.User, error) {
	var u user.User
	err := t.db.QueryRow(ctx,
		`INSERT INTO users (username, created_at)
		 VALUES ($1, $2)
		 RETURNING id, username, created_at`,
		username, now,
	).Scan(&u.ID, &u.Username, &u.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return user.User{}, user.ErrUsernameTaken
		}
		return user.User{}, fmt.Errorf("inserting user: %w", err)
	}
	return u, nil
}

// GetUser retrieves a user by ID.
func (t *tx) GetUser(ctx context.Context, id int64) (user.User, error) {
	var u user.User
	err := t.db.QueryRow(ctx,
		`SELECT id, username, created_at FROM users WHERE id = $1`,
		id,
	).Scan(&u.ID, &u.Username, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, notFound("user", id)
		}
		return user.User{}, fmt.Errorf("querying user: %w", err)
	}
	return u, nil
}

func notFound(kind string, id int64) error {
	return fmt.Errorf("%s %d: %w", kind, id, companion.ErrNotFound)
}

// sqlState returns the SQLSTATE of a PostgreSQL error, or "".
func sqlState(err error) string {
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState()
	}
	return ""
}

// isDuplicateKeyError reports a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	return sqlState(err) == "23505"
}

// isForeignKeyError reports a foreign key violation.
func isForeignKeyError(err error) bool {
	return sqlState(err) == "23503"
}
