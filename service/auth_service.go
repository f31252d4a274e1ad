package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jacobmr/teslatracker/core"
	"github.com/jacobmr/teslatracker/ports"
)

// Config holds the orchestrator timing knobs
type Config struct {
	SessionTTL  time.Duration // lifetime of issued session tokens
	RefreshSkew time.Duration // how close to expiry a Tesla token must be before it is refreshed
}

// AuthService coordinates the OAuth linking flow across its collaborators
type AuthService struct {
	nonces    ports.NonceStore
	exchanger ports.Exchanger
	resolver  ports.IdentityResolver
	accounts  ports.AccountStore
	tokenizer ports.Tokenizer
	eventPub  ports.EventPublisher

	sessionTTL  time.Duration
	refreshSkew time.Duration
	now         func() time.Time
}

// NewAuthService creates a new authentication service
func NewAuthService(
	nonces ports.NonceStore,
	exchanger ports.Exchanger,
	resolver ports.IdentityResolver,
	accounts ports.AccountStore,
	tokenizer ports.Tokenizer,
	eventPub ports.EventPublisher,
	config Config,
) *AuthService {
	if config.SessionTTL <= 0 {
		config.SessionTTL = 24 * time.Hour
	}
	if config.RefreshSkew <= 0 {
		config.RefreshSkew = 5 * time.Minute
	}
	return &AuthService{
		nonces:      nonces,
		exchanger:   exchanger,
		resolver:    resolver,
		accounts:    accounts,
		tokenizer:   tokenizer,
		eventPub:    eventPub,
		sessionTTL:  config.SessionTTL,
		refreshSkew: config.RefreshSkew,
		now:         time.Now,
	}
}

// Begin starts the OAuth flow: it issues a state nonce and returns the
// provider authorization URL to redirect the user to. A failing nonce store
// aborts the flow; skipping CSRF validation is not an option.
func (s *AuthService) Begin(ctx context.Context) (string, error) {
	nonce, err := s.nonces.Issue(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to issue state nonce: %w", err)
	}

	return s.exchanger.AuthorizeURL(nonce), nil
}

// Complete handles the provider callback and returns a signed session token.
// Every failure is reported as a tagged error so the transport can map it to
// a user-facing redirect; diagnostic detail stays in the server log.
func (s *AuthService) Complete(ctx context.Context, code, state, providerErr string) (string, error) {
	// A provider-reported error is terminal before any nonce is consumed.
	if providerErr != "" {
		slog.Error("provider denied authorization", "error", providerErr)
		return "", core.ErrProviderDenied
	}

	if code == "" || state == "" {
		return "", core.ErrMissingParams
	}

	ok, err := s.nonces.Consume(ctx, state)
	if err != nil {
		return "", fmt.Errorf("failed to validate state nonce: %w", err)
	}
	if !ok {
		return "", core.ErrInvalidState
	}

	bundle, err := s.exchanger.ExchangeCode(ctx, code)
	if err != nil {
		slog.Error("code exchange failed", "error", err)
		return "", core.ErrExchangeFailed
	}

	// Anchor the absolute expiry to the time the exchange response is
	// handled, and reuse the same instant for the account timestamps.
	now := s.now().UTC()
	expiresAt := bundle.ExpiresAt(now)

	profile, err := s.resolver.Profile(ctx, bundle.AccessToken)
	if err != nil {
		slog.Error("identity resolution failed", "error", err)
		return "", fmt.Errorf("failed to resolve identity: %w", err)
	}

	// Case-insensitive identity matching: the lowercased email is the
	// account key, so case variance cannot create duplicate accounts.
	identity := strings.ToLower(profile.Email)

	created, err := s.accounts.Upsert(ctx, core.Account{
		ID:             identity,
		Email:          profile.Email,
		FullName:       profile.FullName,
		RefreshToken:   bundle.RefreshToken,
		TokenExpiresAt: expiresAt,
		CreatedAt:      now.Unix(),
		UpdatedAt:      now.Unix(),
	})
	if err != nil {
		slog.Error("account upsert failed", "identity", identity, "error", err)
		return "", fmt.Errorf("failed to upsert account: %w", err)
	}

	if created {
		slog.Info("new account linked", "identity", identity)
		// The signup event is best effort: the account and its audit entry
		// are already committed, so a delivery failure must not fail login.
		if err := s.eventPub.PublishSignup(ctx, identity, profile.Email, now.Unix()); err != nil {
			slog.Warn("failed to publish signup event", "identity", identity, "error", err)
		}
	} else {
		slog.Info("existing account logged in", "identity", identity)
	}

	session := &core.Session{
		Identity:  identity,
		Email:     profile.Email,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.sessionTTL),
	}

	token, err := s.tokenizer.SessionToToken(session)
	if err != nil {
		slog.Error("session issuance failed", "identity", identity, "error", err)
		return "", fmt.Errorf("failed to issue session token: %w", err)
	}

	return token, nil
}

// RefreshResult reports the outcome of a Refresh call
type RefreshResult struct {
	Refreshed bool  // false when the stored credential was still fresh
	ExpiresAt int64 // absolute expiry of the Tesla access token
}

// Refresh revalidates a session and refreshes the stored Tesla credential
// when it is close to expiry. A credential that is still fresh short-circuits
// without touching the provider.
func (s *AuthService) Refresh(ctx context.Context, sessionToken string) (*RefreshResult, error) {
	session, err := s.tokenizer.TokenToSession(sessionToken)
	if err != nil {
		// Collapse every verification failure into one error so callers
		// cannot tell a bad signature from an expired token.
		slog.Debug("session verification failed", "error", err)
		return nil, core.ErrInvalidToken
	}

	acct, err := s.accounts.Get(ctx, session.Identity)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if acct.TokenExpiresAt > now.Unix()+int64(s.refreshSkew.Seconds()) {
		return &RefreshResult{Refreshed: false, ExpiresAt: acct.TokenExpiresAt}, nil
	}

	bundle, err := s.exchanger.ExchangeRefresh(ctx, acct.RefreshToken)
	if err != nil {
		slog.Error("token refresh failed", "identity", acct.ID, "error", err)
		return nil, core.ErrRefreshFailed
	}

	// Convert the relative lifetime using the time of the response.
	respNow := s.now().UTC()
	expiresAt := bundle.ExpiresAt(respNow)

	if err := s.accounts.UpdateCredential(ctx, acct.ID, bundle.RefreshToken, expiresAt, respNow.Unix()); err != nil {
		return nil, fmt.Errorf("failed to persist refreshed credential: %w", err)
	}

	return &RefreshResult{Refreshed: true, ExpiresAt: expiresAt}, nil
}

// ValidateSession verifies a session token and returns the session it asserts
func (s *AuthService) ValidateSession(ctx context.Context, sessionToken string) (*core.Session, error) {
	session, err := s.tokenizer.TokenToSession(sessionToken)
	if err != nil {
		return nil, core.ErrInvalidToken
	}
	return session, nil
}

// Account loads the linked account for an identity
func (s *AuthService) Account(ctx context.Context, identity string) (*core.Account, error) {
	return s.accounts.Get(ctx, identity)
}
