package ports

import (
	"context"

	"github.com/jacobmr/teslatracker/core"
)

// AccountStore persists linked accounts and their audit trail
type AccountStore interface {
	// Exists reports whether an account with the given identity exists.
	Exists(ctx context.Context, id string) (bool, error)

	// Get loads an account by identity. Returns core.ErrAccountNotFound
	// when absent.
	Get(ctx context.Context, id string) (*core.Account, error)

	// Upsert inserts the account together with a signup audit event, or,
	// when the identity already exists, updates only the refresh credential,
	// its expiry and the update timestamp. Returns whether a new account
	// was created.
	Upsert(ctx context.Context, acct core.Account) (bool, error)

	// UpdateCredential replaces the stored refresh credential and expiry
	// of an existing account.
	UpdateCredential(ctx context.Context, id, refreshToken string, expiresAt, updatedAt int64) error
}
