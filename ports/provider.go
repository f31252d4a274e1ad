package ports

import (
	"context"

	"github.com/jacobmr/teslatracker/core"
)

// Exchanger performs the token grants against the provider's token endpoint
type Exchanger interface {
	// AuthorizeURL builds the provider authorization URL carrying the state
	// nonce.
	AuthorizeURL(state string) string

	// ExchangeCode trades an authorization code for a token bundle.
	// Never retried; each call is user-interactive and one-shot.
	ExchangeCode(ctx context.Context, code string) (*core.TokenBundle, error)

	// ExchangeRefresh trades a refresh credential for a fresh token bundle.
	ExchangeRefresh(ctx context.Context, refreshToken string) (*core.TokenBundle, error)
}

// IdentityResolver maps an access token to a stable external identity
type IdentityResolver interface {
	Profile(ctx context.Context, accessToken string) (*core.Profile, error)
}

// VehicleLister fetches the vehicles visible to an access token
type VehicleLister interface {
	Vehicles(ctx context.Context, accessToken string) ([]core.Vehicle, error)
}
