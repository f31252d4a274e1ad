package tokenizer

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacobmr/teslatracker/core"
)

var testSecret = []byte("test-secret")

func testSession(expiresAt time.Time) *core.Session {
	issued := expiresAt.Add(-24 * time.Hour)
	return &core.Session{
		Identity:  "user@example.com",
		Email:     "User@Example.com",
		IssuedAt:  issued,
		ExpiresAt: expiresAt,
	}
}

func TestRoundTrip(t *testing.T) {
	tk := NewJWTTokenizer(testSecret)
	session := testSession(time.Now().Add(time.Hour).Truncate(time.Second))

	token, err := tk.SessionToToken(session)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, err := tk.TokenToSession(token)
	require.NoError(t, err)
	assert.Equal(t, session.Identity, got.Identity)
	assert.Equal(t, session.Email, got.Email)
	assert.True(t, session.IssuedAt.Equal(got.IssuedAt))
	assert.True(t, session.ExpiresAt.Equal(got.ExpiresAt))
}

func TestTokenToSession(t *testing.T) {
	tk := NewJWTTokenizer(testSecret)

	t.Run("expired token", func(t *testing.T) {
		token, err := tk.SessionToToken(testSession(time.Now().Add(-time.Minute)))
		require.NoError(t, err)

		_, err = tk.TokenToSession(token)
		require.ErrorIs(t, err, core.ErrTokenExpired)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewJWTTokenizer([]byte("other-secret"))
		token, err := other.SessionToToken(testSession(time.Now().Add(time.Hour)))
		require.NoError(t, err)

		_, err = tk.TokenToSession(token)
		require.ErrorIs(t, err, core.ErrInvalidToken)
	})

	t.Run("tampered token", func(t *testing.T) {
		token, err := tk.SessionToToken(testSession(time.Now().Add(time.Hour)))
		require.NoError(t, err)

		_, err = tk.TokenToSession(token + "x")
		require.ErrorIs(t, err, core.ErrInvalidToken)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := tk.TokenToSession("not-a-jwt")
		require.ErrorIs(t, err, core.ErrInvalidToken)
	})

	t.Run("unsigned token is rejected", func(t *testing.T) {
		claims := SessionClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "user@example.com",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
				IssuedAt:  jwt.NewNumericDate(time.Now()),
				Audience:  jwt.ClaimStrings{AudienceSession},
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = tk.TokenToSession(token)
		require.ErrorIs(t, err, core.ErrInvalidToken)
	})

	t.Run("wrong audience is rejected", func(t *testing.T) {
		claims := SessionClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "user@example.com",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
				IssuedAt:  jwt.NewNumericDate(time.Now()),
				Audience:  jwt.ClaimStrings{"other"},
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
		require.NoError(t, err)

		_, err = tk.TokenToSession(token)
		require.ErrorIs(t, err, core.ErrInvalidToken)
	})

	t.Run("missing expiry is rejected", func(t *testing.T) {
		claims := SessionClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:  "user@example.com",
				IssuedAt: jwt.NewNumericDate(time.Now()),
				Audience: jwt.ClaimStrings{AudienceSession},
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
		require.NoError(t, err)

		_, err = tk.TokenToSession(token)
		require.ErrorIs(t, err, core.ErrInvalidToken)
	})
}
