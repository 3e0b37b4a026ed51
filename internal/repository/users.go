// Package repository provides persistence implementations for the
// companion server using a PostgreSQL database.
package repository

import (
	"context"
	"database/sql"
)

// PostgresUserRepository implements user bookkeeping against PostgreSQL.
type PostgresUserRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresUserRepository creates a new PostgresUserRepository with the
// given database connection.
func NewPostgresUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{DB: db}
}

// TouchUser creates the user row on first contact and refreshes its
// last-seen timestamp on every subsequent one.
func (r *PostgresUserRepository) TouchUser(ctx context.Context, login string) error {
	_, err := r.DB.ExecContext(
		ctx,
		`INSERT INTO users (login, last_seen) VALUES ($1, NOW())
		 ON CONFLICT (login) DO UPDATE SET last_seen = NOW()`,
		login,
	)
	return err
}

// UserExists checks whether a user with the specified login exists.
func (r *PostgresUserRepository) UserExists(ctx context.Context, login string) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(
		ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE login = $1)`,
		login,
	).Scan(&exists)
	return exists, err
}
