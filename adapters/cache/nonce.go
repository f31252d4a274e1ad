// Package cache provides the short-lived state nonce store used to bind an
// authorization request to its callback.
package cache

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// DefaultPrefix namespaces nonce keys in shared stores.
const DefaultPrefix = "oauth_state:"

func newNonce() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	return hex.EncodeToString(b), nil
}
