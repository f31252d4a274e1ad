package ports

import "context"

// NonceStore binds an authorization request to its callback and guards
// against CSRF and replay. A nonce is valid for at most one Consume.
type NonceStore interface {
	// Issue generates a random nonce and records it with the store TTL.
	Issue(ctx context.Context) (string, error)

	// Consume reports whether the nonce was present and atomically removes
	// it so two racing callbacks can never both observe it.
	Consume(ctx context.Context, nonce string) (bool, error)
}
