package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacobmr/teslatracker/adapters/cache"
	"github.com/jacobmr/teslatracker/adapters/tesla"
	"github.com/jacobmr/teslatracker/adapters/tokenizer"
	"github.com/jacobmr/teslatracker/core"
	"github.com/jacobmr/teslatracker/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const (
	successURL = "https://app.example.com/success"
	errorURL   = "https://app.example.com/error"
)

// fakeProvider doubles as the OAuth token endpoint and the owner API.
type fakeProvider struct {
	failExchange bool
	failRefresh  bool
}

func (p *fakeProvider) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		var grant map[string]string
		if err := json.NewDecoder(r.Body).Decode(&grant); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		refreshing := grant["grant_type"] == "refresh_token"
		if (refreshing && p.failRefresh) || (!refreshing && p.failExchange) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Write([]byte(`{"access_token":"access-1","refresh_token":"refresh-1","expires_in":3600}`))
	})
	mux.HandleFunc("/api/1/users/me", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response":{"email":"User@Example.com","full_name":"Test User"}}`))
	})
	mux.HandleFunc("/api/1/vehicles", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response":[{"id":1,"display_name":"Rocket","state":"online"}]}`))
	})
	return mux
}

type memAccounts struct {
	accounts map[string]*core.Account
}

func (m *memAccounts) Exists(ctx context.Context, id string) (bool, error) {
	_, ok := m.accounts[id]
	return ok, nil
}

func (m *memAccounts) Get(ctx context.Context, id string) (*core.Account, error) {
	acct, ok := m.accounts[id]
	if !ok {
		return nil, core.ErrAccountNotFound
	}
	copied := *acct
	return &copied, nil
}

func (m *memAccounts) Upsert(ctx context.Context, acct core.Account) (bool, error) {
	if existing, ok := m.accounts[acct.ID]; ok {
		existing.RefreshToken = acct.RefreshToken
		existing.TokenExpiresAt = acct.TokenExpiresAt
		existing.UpdatedAt = acct.UpdatedAt
		return false, nil
	}
	copied := acct
	m.accounts[acct.ID] = &copied
	return true, nil
}

func (m *memAccounts) UpdateCredential(ctx context.Context, id, refreshToken string, expiresAt, updatedAt int64) error {
	acct, ok := m.accounts[id]
	if !ok {
		return core.ErrAccountNotFound
	}
	acct.RefreshToken = refreshToken
	acct.TokenExpiresAt = expiresAt
	acct.UpdatedAt = updatedAt
	return nil
}

type nopPublisher struct{}

func (nopPublisher) PublishSignup(ctx context.Context, userID, email string, signedUpAt int64) error {
	return nil
}

type testStack struct {
	router   *gin.Engine
	provider *fakeProvider
	accounts *memAccounts
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()

	provider := &fakeProvider{}
	srv := httptest.NewServer(provider.handler())
	t.Cleanup(srv.Close)

	client := tesla.NewClient(tesla.Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURI:  "https://app.example.com/redirect",
		AuthURL:      srv.URL + "/oauth/authorize",
		TokenURL:     srv.URL + "/oauth/token",
		APIURL:       srv.URL,
	})

	accounts := &memAccounts{accounts: make(map[string]*core.Account)}
	authService := service.NewAuthService(
		cache.NewMemoryStore(time.Hour),
		client,
		client,
		accounts,
		tokenizer.NewJWTTokenizer([]byte("test-secret")),
		nopPublisher{},
		service.Config{},
	)
	vehicleService := service.NewVehicleService(accounts, client, client)

	frontend := FrontendConfig{SuccessURL: successURL, ErrorURL: errorURL}
	router := SetupRouter(authService, vehicleService, frontend, prometheus.NewRegistry())

	return &testStack{router: router, provider: provider, accounts: accounts}
}

func (s *testStack) do(method, target, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if bearer != "" {
		req.Header.Set("Authorization", bearer)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

// begin walks GET /auth and returns the state the redirect carries.
func (s *testStack) begin(t *testing.T) string {
	t.Helper()
	rec := s.do(http.MethodGet, "/auth", "")
	require.Equal(t, http.StatusFound, rec.Code)

	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	state := loc.Query().Get("state")
	require.NotEmpty(t, state)
	return state
}

// login walks the full flow and returns the issued session token.
func (s *testStack) login(t *testing.T) string {
	t.Helper()
	state := s.begin(t)
	rec := s.do(http.MethodGet, "/auth/callback?code=auth-code&state="+state, "")
	require.Equal(t, http.StatusFound, rec.Code)

	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	token := loc.Query().Get("token")
	require.NotEmpty(t, token)
	return token
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	require.Equal(t, http.StatusFound, rec.Code)
	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(rec.Header().Get("Location"), errorURL), "expected error redirect, got %s", rec.Header().Get("Location"))
	return loc.Query().Get("error")
}

func jsonBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestBeginEndpoint(t *testing.T) {
	s := newTestStack(t)

	rec := s.do(http.MethodGet, "/auth", "")

	require.Equal(t, http.StatusFound, rec.Code)
	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Contains(t, loc.Path, "/oauth/authorize")
	assert.Equal(t, "client-id", loc.Query().Get("client_id"))
	assert.NotEmpty(t, loc.Query().Get("state"))
}

func TestCallbackEndpoint(t *testing.T) {
	t.Run("success redirects to the frontend with a token", func(t *testing.T) {
		s := newTestStack(t)
		state := s.begin(t)

		rec := s.do(http.MethodGet, "/auth/callback?code=auth-code&state="+state, "")

		require.Equal(t, http.StatusFound, rec.Code)
		loc := rec.Header().Get("Location")
		assert.True(t, strings.HasPrefix(loc, successURL+"?token="), "got %s", loc)

		acct, ok := s.accounts.accounts["user@example.com"]
		require.True(t, ok, "account keyed by lowercased email")
		assert.Equal(t, "User@Example.com", acct.Email)
	})

	t.Run("provider error", func(t *testing.T) {
		s := newTestStack(t)

		rec := s.do(http.MethodGet, "/auth/callback?error=access_denied", "")

		assert.Equal(t, "Authentication failed. Please try again.", errorMessage(t, rec))
	})

	t.Run("missing parameters", func(t *testing.T) {
		s := newTestStack(t)
		state := s.begin(t)

		rec := s.do(http.MethodGet, "/auth/callback?state="+state, "")

		assert.Equal(t, "Missing required parameters", errorMessage(t, rec))
	})

	t.Run("invalid state", func(t *testing.T) {
		s := newTestStack(t)

		rec := s.do(http.MethodGet, "/auth/callback?code=auth-code&state=bogus", "")

		assert.Equal(t, "Invalid state parameter", errorMessage(t, rec))
	})

	t.Run("reused state", func(t *testing.T) {
		s := newTestStack(t)
		state := s.begin(t)
		s.do(http.MethodGet, "/auth/callback?code=auth-code&state="+state, "")

		rec := s.do(http.MethodGet, "/auth/callback?code=auth-code&state="+state, "")

		assert.Equal(t, "Invalid state parameter", errorMessage(t, rec))
	})

	t.Run("exchange failure", func(t *testing.T) {
		s := newTestStack(t)
		s.provider.failExchange = true
		state := s.begin(t)

		rec := s.do(http.MethodGet, "/auth/callback?code=stale&state="+state, "")

		assert.Equal(t, "Failed to authenticate with Tesla", errorMessage(t, rec))
	})
}

func TestRefreshEndpoint(t *testing.T) {
	t.Run("missing header", func(t *testing.T) {
		s := newTestStack(t)

		rec := s.do(http.MethodPost, "/auth/refresh", "")

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Unauthorized", jsonBody(t, rec)["error"])
	})

	t.Run("invalid token", func(t *testing.T) {
		s := newTestStack(t)

		rec := s.do(http.MethodPost, "/auth/refresh", "Bearer garbage")

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Authentication failed", jsonBody(t, rec)["error"])
	})

	t.Run("account gone", func(t *testing.T) {
		s := newTestStack(t)
		token := s.login(t)
		delete(s.accounts.accounts, "user@example.com")

		rec := s.do(http.MethodPost, "/auth/refresh", "Bearer "+token)

		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "User not found", jsonBody(t, rec)["error"])
	})

	t.Run("credential still fresh", func(t *testing.T) {
		s := newTestStack(t)
		token := s.login(t)

		rec := s.do(http.MethodPost, "/auth/refresh", "Bearer "+token)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Token still valid", jsonBody(t, rec)["message"])
	})

	t.Run("stale credential is refreshed", func(t *testing.T) {
		s := newTestStack(t)
		token := s.login(t)
		s.accounts.accounts["user@example.com"].TokenExpiresAt = time.Now().Unix()

		rec := s.do(http.MethodPost, "/auth/refresh", "Bearer "+token)

		require.Equal(t, http.StatusOK, rec.Code)
		body := jsonBody(t, rec)
		assert.Equal(t, "Token refreshed successfully", body["message"])
		assert.Greater(t, body["expires_at"].(float64), float64(time.Now().Unix()))
	})

	t.Run("provider refusal", func(t *testing.T) {
		s := newTestStack(t)
		token := s.login(t)
		s.accounts.accounts["user@example.com"].TokenExpiresAt = time.Now().Unix()
		s.provider.failRefresh = true

		rec := s.do(http.MethodPost, "/auth/refresh", "Bearer "+token)

		require.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "Failed to refresh token", jsonBody(t, rec)["error"])
	})
}

func TestProtectedRoutes(t *testing.T) {
	t.Run("missing header and bad token answer alike in status", func(t *testing.T) {
		s := newTestStack(t)

		missing := s.do(http.MethodGet, "/api/me", "")
		bad := s.do(http.MethodGet, "/api/me", "Bearer garbage")

		assert.Equal(t, http.StatusUnauthorized, missing.Code)
		assert.Equal(t, http.StatusUnauthorized, bad.Code)
	})

	t.Run("me returns the linked account", func(t *testing.T) {
		s := newTestStack(t)
		token := s.login(t)

		rec := s.do(http.MethodGet, "/api/me", "Bearer "+token)

		require.Equal(t, http.StatusOK, rec.Code)
		body := jsonBody(t, rec)
		assert.Equal(t, "User@Example.com", body["email"])
		assert.Equal(t, "Test User", body["full_name"])
	})

	t.Run("vehicles lists the account's vehicles", func(t *testing.T) {
		s := newTestStack(t)
		token := s.login(t)

		rec := s.do(http.MethodGet, "/api/vehicles", "Bearer "+token)

		require.Equal(t, http.StatusOK, rec.Code)
		body := jsonBody(t, rec)
		vehicles := body["vehicles"].([]any)
		require.Len(t, vehicles, 1)
		assert.Equal(t, "Rocket", vehicles[0].(map[string]any)["display_name"])
	})
}

func TestHealthz(t *testing.T) {
	s := newTestStack(t)

	rec := s.do(http.MethodGet, "/healthz", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", jsonBody(t, rec)["status"])
}
