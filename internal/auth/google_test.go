package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nnote/nnote/internal/apperr"
)

const testClientID = "client-123.apps.googleusercontent.com"

type googleFixture struct {
	key      *rsa.PrivateKey
	server   *httptest.Server
	fetches  atomic.Int32
	verifier *GoogleVerifier
}

func newGoogleFixture(t *testing.T) *googleFixture {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	f := &googleFixture{key: key}
	f.server = newKeyServer(t, &f.fetches, map[string]string{
		"kid": "key-1",
		"kty": "RSA",
		"alg": "RS256",
		"use": "sig",
		"n":   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
		"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
	})

	f.verifier, err = NewGoogleVerifier(testClientID, newTestKeys(t, f.server.URL))
	require.NoError(t, err)

	return f
}

// newKeyServer serves a JWKS document holding keys and counts fetches.
func newKeyServer(t *testing.T, fetches *atomic.Int32, keys ...map[string]string) *httptest.Server {
	t.Helper()

	if keys == nil {
		keys = []map[string]string{}
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"keys": keys})
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestKeys(t *testing.T, url string) keyfunc.Keyfunc {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	keys, err := NewGoogleKeys(ctx, url)
	require.NoError(t, err)
	return keys
}

func (f *googleFixture) sign(t *testing.T, kid string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kid
	signed, err := token.SignedString(f.key)
	require.NoError(t, err)
	return signed
}

func validGoogleClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"iss":            "https://accounts.google.com",
		"aud":            testClientID,
		"sub":            "google-sub-42",
		"email":          "alice@example.com",
		"email_verified": true,
		"name":           "Alice",
		"picture":        "https://lh3.googleusercontent.com/a/alice",
		"iat":            time.Now().Unix(),
		"exp":            time.Now().Add(time.Hour).Unix(),
	}
}

func TestGoogleVerifier_Valid(t *testing.T) {
	f := newGoogleFixture(t)

	identity, err := f.verifier.Verify(context.Background(), f.sign(t, "key-1", validGoogleClaims()))
	require.NoError(t, err)

	assert.Equal(t, "google-sub-42", identity.ExternalID)
	assert.Equal(t, "alice@example.com", identity.Email)
	assert.Equal(t, "Alice", identity.Name)
	require.NotNil(t, identity.AvatarURL)
	assert.Equal(t, "https://lh3.googleusercontent.com/a/alice", *identity.AvatarURL)
}

func TestGoogleVerifier_BareIssuerAndNoPicture(t *testing.T) {
	f := newGoogleFixture(t)

	claims := validGoogleClaims()
	claims["iss"] = "accounts.google.com"
	delete(claims, "picture")

	identity, err := f.verifier.Verify(context.Background(), f.sign(t, "key-1", claims))
	require.NoError(t, err)
	assert.Nil(t, identity.AvatarURL)
}

func TestGoogleVerifier_InvalidCredential(t *testing.T) {
	f := newGoogleFixture(t)

	otherKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	forged := jwt.NewWithClaims(jwt.SigningMethodRS256, validGoogleClaims())
	forged.Header["kid"] = "key-1"
	forgedToken, err := forged.SignedString(otherKey)
	require.NoError(t, err)

	hmacToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, validGoogleClaims()).SignedString([]byte("secret"))
	require.NoError(t, err)

	testCases := []struct {
		name  string
		token func() string
	}{
		{"empty", func() string { return "" }},
		{"malformed", func() string { return "garbage" }},
		{"wrong audience", func() string {
			c := validGoogleClaims()
			c["aud"] = "someone-else"
			return f.sign(t, "key-1", c)
		}},
		{"wrong issuer", func() string {
			c := validGoogleClaims()
			c["iss"] = "https://evil.example.com"
			return f.sign(t, "key-1", c)
		}},
		{"expired", func() string {
			c := validGoogleClaims()
			c["exp"] = time.Now().Add(-time.Hour).Unix()
			return f.sign(t, "key-1", c)
		}},
		{"unknown kid", func() string { return f.sign(t, "key-9", validGoogleClaims()) }},
		{"forged signature", func() string { return forgedToken }},
		{"hmac algorithm", func() string { return hmacToken }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.verifier.Verify(context.Background(), tc.token())
			require.Error(t, err)
			assert.ErrorIs(t, err, apperr.ErrInvalidCredential)
		})
	}
}

func TestGoogleVerifier_IncompletePayload(t *testing.T) {
	f := newGoogleFixture(t)

	for _, field := range []string{"email", "name", "sub"} {
		t.Run("missing "+field, func(t *testing.T) {
			claims := validGoogleClaims()
			delete(claims, field)

			_, err := f.verifier.Verify(context.Background(), f.sign(t, "key-1", claims))
			require.Error(t, err)
			assert.ErrorIs(t, err, apperr.ErrIncompletePayload)
			assert.NotErrorIs(t, err, apperr.ErrInvalidCredential)
		})
	}

	t.Run("unverified email", func(t *testing.T) {
		claims := validGoogleClaims()
		claims["email_verified"] = false

		_, err := f.verifier.Verify(context.Background(), f.sign(t, "key-1", claims))
		assert.ErrorIs(t, err, apperr.ErrIncompletePayload)
	})
}

func TestGoogleVerifier_KeySetUnavailable(t *testing.T) {
	f := newGoogleFixture(t)
	token := f.sign(t, "key-1", validGoogleClaims())

	var fetches atomic.Int32
	empty := newKeyServer(t, &fetches)

	verifier, err := NewGoogleVerifier(testClientID, newTestKeys(t, empty.URL))
	require.NoError(t, err)

	_, err = verifier.Verify(context.Background(), token)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrInternal)
	assert.True(t, errors.Is(err, ErrKeySetUnavailable))
}

func TestGoogleVerifier_CachesKeys(t *testing.T) {
	f := newGoogleFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := f.verifier.Verify(ctx, f.sign(t, "key-1", validGoogleClaims()))
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), f.fetches.Load())
}

func TestNewGoogleVerifier_RequiresClientIDAndKeys(t *testing.T) {
	t.Parallel()

	_, err := NewGoogleVerifier("", nil)
	assert.Error(t, err)

	_, err = NewGoogleVerifier(testClientID, nil)
	assert.Error(t, err)
}
