package core

import (
	"errors"
	"fmt"
)

var (
	ErrProviderDenied  = errors.New("provider returned an error")
	ErrMissingParams   = errors.New("missing required parameters")
	ErrInvalidState    = errors.New("invalid state parameter")
	ErrExchangeFailed  = errors.New("token exchange failed")
	ErrRefreshFailed   = errors.New("token refresh failed")
	ErrInvalidToken    = errors.New("invalid session token")
	ErrTokenExpired    = errors.New("session token has expired")
	ErrAccountNotFound = errors.New("account not found")
)

// ExchangeError reports a non-success response from the provider token
// endpoint. Body is kept for server-side diagnostics only and must never
// reach a user-facing response.
type ExchangeError struct {
	StatusCode int
	Body       string
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("token endpoint returned status %d", e.StatusCode)
}

// ResolutionError reports a failed profile lookup.
type ResolutionError struct {
	StatusCode int
	Body       string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("profile endpoint returned status %d", e.StatusCode)
}
