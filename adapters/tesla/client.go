// Package tesla implements the provider-facing client: authorization URL
// construction, the two token grants and the owner API lookups.
package tesla

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jacobmr/teslatracker/core"
	"github.com/jacobmr/teslatracker/ports"
)

// compile-time interface checks
var (
	_ ports.Exchanger        = (*Client)(nil)
	_ ports.IdentityResolver = (*Client)(nil)
	_ ports.VehicleLister    = (*Client)(nil)
)

const (
	defaultAuthURL  = "https://auth.tesla.com/oauth2/v3/authorize"
	defaultTokenURL = "https://auth.tesla.com/oauth2/v3/token"
	defaultAPIURL   = "https://owner-api.teslamotors.com"

	grantAuthorizationCode = "authorization_code"
	grantRefreshToken      = "refresh_token"
)

// DefaultScopes are the scopes requested on every authorization.
var DefaultScopes = []string{"openid", "email", "offline_access", "vehicle_read"}

// Config holds the provider credentials and endpoints. The URLs are
// overridable for tests.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string

	AuthURL  string
	TokenURL string
	APIURL   string

	Scopes     []string
	HTTPClient *http.Client
}

// Client talks to the Tesla OAuth and owner API endpoints
type Client struct {
	config Config
	http   *http.Client
}

// NewClient creates a new Tesla client
func NewClient(config Config) *Client {
	if config.AuthURL == "" {
		config.AuthURL = defaultAuthURL
	}
	if config.TokenURL == "" {
		config.TokenURL = defaultTokenURL
	}
	if config.APIURL == "" {
		config.APIURL = defaultAPIURL
	}
	if len(config.Scopes) == 0 {
		config.Scopes = DefaultScopes
	}
	httpClient := config.HTTPClient
	if httpClient == nil {
		// A slow provider must not hold a request open indefinitely.
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{config: config, http: httpClient}
}

// AuthorizeURL builds the authorization URL carrying the state nonce
func (c *Client) AuthorizeURL(state string) string {
	params := url.Values{
		"client_id":     {c.config.ClientID},
		"redirect_uri":  {c.config.RedirectURI},
		"response_type": {"code"},
		"scope":         {strings.Join(c.config.Scopes, " ")},
		"state":         {state},
	}
	return c.config.AuthURL + "?" + params.Encode()
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// ExchangeCode trades an authorization code for a token bundle
func (c *Client) ExchangeCode(ctx context.Context, code string) (*core.TokenBundle, error) {
	return c.token(ctx, map[string]string{
		"grant_type":    grantAuthorizationCode,
		"client_id":     c.config.ClientID,
		"client_secret": c.config.ClientSecret,
		"code":          code,
		"redirect_uri":  c.config.RedirectURI,
	})
}

// ExchangeRefresh trades a refresh credential for a fresh token bundle
func (c *Client) ExchangeRefresh(ctx context.Context, refreshToken string) (*core.TokenBundle, error) {
	return c.token(ctx, map[string]string{
		"grant_type":    grantRefreshToken,
		"client_id":     c.config.ClientID,
		"client_secret": c.config.ClientSecret,
		"refresh_token": refreshToken,
	})
}

// token posts a grant request to the token endpoint. The token endpoint
// accepts a JSON body rather than the form encoding used by most providers.
func (c *Client) token(ctx context.Context, grant map[string]string) (*core.TokenBundle, error) {
	payload, err := json.Marshal(grant)
	if err != nil {
		return nil, fmt.Errorf("failed to encode token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.TokenURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &core.ExchangeError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, fmt.Errorf("failed to parse token response: %w", err)
	}
	if tr.AccessToken == "" {
		return nil, fmt.Errorf("empty access token in response")
	}

	return &core.TokenBundle{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		ExpiresIn:    tr.ExpiresIn,
	}, nil
}

type profileResponse struct {
	Response struct {
		Email    string `json:"email"`
		FullName string `json:"full_name"`
	} `json:"response"`
}

// Profile resolves the identity behind an access token
func (c *Client) Profile(ctx context.Context, accessToken string) (*core.Profile, error) {
	body, err := c.get(ctx, "/api/1/users/me", accessToken)
	if err != nil {
		return nil, err
	}

	var pr profileResponse
	if err := json.Unmarshal(body, &pr); err != nil {
		return nil, fmt.Errorf("failed to parse profile response: %w", err)
	}
	if pr.Response.Email == "" {
		return nil, fmt.Errorf("empty email in profile response")
	}

	fullName := pr.Response.FullName
	if fullName == "" {
		fullName = pr.Response.Email
	}

	return &core.Profile{Email: pr.Response.Email, FullName: fullName}, nil
}

type vehiclesResponse struct {
	Response []core.Vehicle `json:"response"`
}

// Vehicles lists the vehicles visible to an access token
func (c *Client) Vehicles(ctx context.Context, accessToken string) ([]core.Vehicle, error) {
	body, err := c.get(ctx, "/api/1/vehicles", accessToken)
	if err != nil {
		return nil, err
	}

	var vr vehiclesResponse
	if err := json.Unmarshal(body, &vr); err != nil {
		return nil, fmt.Errorf("failed to parse vehicles response: %w", err)
	}

	return vr.Response, nil
}

func (c *Client) get(ctx context.Context, path, accessToken string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.APIURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &core.ResolutionError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	return body, nil
}
