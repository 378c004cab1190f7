package auth

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"github.com/nnote/nnote/internal/apperr"
	"github.com/nnote/nnote/internal/model"
)

var googleIssuers = []string{"accounts.google.com", "https://accounts.google.com"}

// googleClaims is the subset of a Google ID token this service reads.
type googleClaims struct {
	Email         string `json:"email"`
	EmailVerified *bool  `json:"email_verified,omitempty"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
	jwt.RegisteredClaims
}

// GoogleVerifier validates Google ID tokens for one OAuth client.
type GoogleVerifier struct {
	audience string
	keys     keyfunc.Keyfunc
	now      func() time.Time
}

// NewGoogleVerifier creates a verifier that accepts tokens issued to clientID
// and signed by one of keys (see NewGoogleKeys).
func NewGoogleVerifier(clientID string, keys keyfunc.Keyfunc) (*GoogleVerifier, error) {
	if clientID == "" {
		return nil, errors.New("google client id is required")
	}
	if keys == nil {
		return nil, errors.New("google signing keys are required")
	}
	return &GoogleVerifier{
		audience: clientID,
		keys:     keys,
		now:      time.Now,
	}, nil
}

// Verify checks the token's signature, audience, issuer and expiry, then
// extracts the identity. A trusted token lacking subject, email or name
// fails with IncompletePayload rather than InvalidCredential.
func (v *GoogleVerifier) Verify(ctx context.Context, raw string) (*model.Identity, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, apperr.New(apperr.ErrInvalidCredential, "Invalid Google token")
	}

	claims := &googleClaims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(t *jwt.Token) (any, error) {
			return lookupKey(ctx, v.keys, t)
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithAudience(v.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		if errors.Is(err, ErrKeySetUnavailable) {
			return nil, apperr.Wrap(apperr.ErrInternal, "Google keys unavailable", err)
		}
		return nil, apperr.Wrap(apperr.ErrInvalidCredential, "Invalid Google token", err)
	}

	if !slices.Contains(googleIssuers, claims.Issuer) {
		return nil, apperr.Wrap(apperr.ErrInvalidCredential, "Invalid Google token",
			fmt.Errorf("unexpected issuer %q", claims.Issuer))
	}

	if claims.Subject == "" || claims.Email == "" || claims.Name == "" {
		return nil, apperr.New(apperr.ErrIncompletePayload, "Invalid Google token payload")
	}
	if claims.EmailVerified != nil && !*claims.EmailVerified {
		return nil, apperr.New(apperr.ErrIncompletePayload, "Google email is not verified")
	}

	identity := &model.Identity{
		ExternalID: claims.Subject,
		Email:      claims.Email,
		Name:       claims.Name,
	}
	if claims.Picture != "" {
		picture := claims.Picture
		identity.AvatarURL = &picture
	}

	return identity, nil
}
