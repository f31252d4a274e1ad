package ports

import "github.com/jacobmr/teslatracker/core"

// Tokenizer converts between domain sessions and signed tokens
type Tokenizer interface {
	// SessionToToken mints a signed, self-contained session token.
	SessionToToken(session *core.Session) (string, error)

	// TokenToSession verifies a session token and returns the session it
	// asserts. Bad signature, malformed structure and past expiry all fail.
	TokenToSession(token string) (*core.Session, error)
}
