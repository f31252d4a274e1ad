// Package store persists linked accounts and their audit trail in Postgres.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jacobmr/teslatracker/core"
	"github.com/jacobmr/teslatracker/ports"
	_ "github.com/lib/pq"
)

// PostgresStore is a Postgres implementation of the AccountStore interface
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new Postgres account store
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// compile-time interface check
var _ ports.AccountStore = (*PostgresStore)(nil)

// Open opens a Postgres connection. sql.Open does not dial, so callers
// should Ping before serving traffic.
func Open(databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// Exists reports whether an account with the given identity exists
func (s *PostgresStore) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check account existence: %w", err)
	}
	return exists, nil
}

// Get loads an account by identity
func (s *PostgresStore) Get(ctx context.Context, id string) (*core.Account, error) {
	var acct core.Account
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, full_name, tesla_refresh_token, tesla_token_expires_at, created_at, updated_at
		FROM users
		WHERE id = $1`, id).
		Scan(&acct.ID, &acct.Email, &acct.FullName, &acct.RefreshToken,
			&acct.TokenExpiresAt, &acct.CreatedAt, &acct.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	return &acct, nil
}

// Upsert inserts a new account together with its signup audit event in one
// transaction, or updates only the credential fields of an existing account.
// Identity, display name and creation timestamp are never overwritten.
func (s *PostgresStore) Upsert(ctx context.Context, acct core.Account) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, acct.ID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check account existence: %w", err)
	}

	if exists {
		if _, err := tx.ExecContext(ctx, `
			UPDATE users
			SET tesla_refresh_token = $1, tesla_token_expires_at = $2, updated_at = $3
			WHERE id = $4`,
			acct.RefreshToken, acct.TokenExpiresAt, acct.UpdatedAt, acct.ID); err != nil {
			return false, fmt.Errorf("failed to update account: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return false, fmt.Errorf("failed to commit: %w", err)
		}
		return false, nil
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO users (id, email, full_name, tesla_refresh_token, tesla_token_expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		acct.ID, acct.Email, acct.FullName, acct.RefreshToken,
		acct.TokenExpiresAt, acct.CreatedAt, acct.UpdatedAt); err != nil {
		return false, fmt.Errorf("failed to insert account: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO audit_logs (id, user_id, action, details, timestamp)
		VALUES ($1, $2, $3, $4, $5)`,
		uuid.New().String(), acct.ID, core.ActionUserSignup, "Tesla OAuth signup", acct.CreatedAt); err != nil {
		return false, fmt.Errorf("failed to insert audit event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit: %w", err)
	}
	return true, nil
}

// UpdateCredential replaces the stored refresh credential and expiry
func (s *PostgresStore) UpdateCredential(ctx context.Context, id, refreshToken string, expiresAt, updatedAt int64) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET tesla_refresh_token = $1, tesla_token_expires_at = $2, updated_at = $3
		WHERE id = $4`,
		refreshToken, expiresAt, updatedAt, id)
	if err != nil {
		return fmt.Errorf("failed to update credential: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		return core.ErrAccountNotFound
	}
	return nil
}
