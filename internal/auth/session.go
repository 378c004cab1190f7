package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nnote/nnote/internal/apperr"
	"github.com/nnote/nnote/internal/model"
)

// DefaultSessionTTL is how long an issued session token stays valid.
const DefaultSessionTTL = 7 * 24 * time.Hour

// Session token errors. Both are Unauthenticated; they stay distinct values
// so callers can prompt a re-login on expiry and reject tampering outright.
var (
	ErrTokenExpired = apperr.New(apperr.ErrUnauthenticated, "Token expired")
	ErrTokenInvalid = apperr.New(apperr.ErrUnauthenticated, "Invalid token")
)

// ErrEmptySecret is returned when the token service is built without a key.
var ErrEmptySecret = errors.New("session signing secret is empty")

// SessionClaims is the payload of a session token.
type SessionClaims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies HS256 session tokens.
// Tokens are stateless: expiry is the only invalidation path.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService creates a TokenService. A zero ttl means DefaultSessionTTL.
func NewTokenService(secret []byte, ttl time.Duration) (*TokenService, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &TokenService{
		secret: secret,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// Issue signs a token binding the user's id and email.
func (s *TokenService) Issue(user *model.User) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, SessionClaims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, expiry and claim shape.
// It returns ErrTokenExpired for a well-signed token past its expiry and
// ErrTokenInvalid for everything else.
func (s *TokenService) Verify(raw string) (*model.AuthContext, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(raw, claims,
		func(t *jwt.Token) (any, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	if !token.Valid || claims.UserID == "" || claims.Email == "" {
		return nil, ErrTokenInvalid
	}

	return &model.AuthContext{
		UserID: claims.UserID,
		Email:  claims.Email,
	}, nil
}
