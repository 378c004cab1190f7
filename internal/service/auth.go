package service

import (
	"context"
	"errors"
	"strings"

	"github.com/nnote/nnote/internal/apperr"
	"github.com/nnote/nnote/internal/auth"
	"github.com/nnote/nnote/internal/metrics"
	"github.com/nnote/nnote/internal/model"
	"github.com/nnote/nnote/internal/repository"
)

// DefaultMockAvatarURL is assigned to users created through mock login.
const DefaultMockAvatarURL = "https://images.unsplash.com/photo-1472099645785-5658abf4ff4e?w=40&h=40&fit=crop&crop=face"

// Login methods, as reported to metrics.
const (
	LoginMethodGoogle     = "google"
	LoginMethodGoogleCode = "google_code"
	LoginMethodMock       = "mock"
)

// AuthServiceConfig wires an AuthService. Exactly one of Verifier and
// AllowMock must be set; Exchanger is optional and needs Verifier.
type AuthServiceConfig struct {
	Users     UserStore
	Tokens    TokenIssuer
	Verifier  IDTokenVerifier
	Exchanger CodeExchanger
	AllowMock bool
	Metrics   metrics.Recorder
}

// LoginResult is a freshly issued session.
type LoginResult struct {
	Token string
	User  *model.User
}

// AuthService exchanges credentials for session tokens.
type AuthService struct {
	users     UserStore
	resolver  *IdentityResolver
	tokens    TokenIssuer
	verifier  IDTokenVerifier
	exchanger CodeExchanger
	allowMock bool
	metrics   metrics.Recorder
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg AuthServiceConfig) (*AuthService, error) {
	if cfg.Users == nil || cfg.Tokens == nil {
		return nil, errors.New("auth service requires a user store and a token issuer")
	}
	if (cfg.Verifier != nil) == cfg.AllowMock {
		return nil, errors.New("auth service requires exactly one of google verification or mock login")
	}
	if cfg.Exchanger != nil && cfg.Verifier == nil {
		return nil, errors.New("code exchange requires google verification")
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewNoop()
	}

	return &AuthService{
		users:     cfg.Users,
		resolver:  NewIdentityResolver(cfg.Users),
		tokens:    cfg.Tokens,
		verifier:  cfg.Verifier,
		exchanger: cfg.Exchanger,
		allowMock: cfg.AllowMock,
		metrics:   cfg.Metrics,
	}, nil
}

// Login verifies the assertion, resolves the user and issues a session token.
func (s *AuthService) Login(ctx context.Context, assertion auth.Assertion) (*LoginResult, error) {
	method, identity, err := s.identify(ctx, assertion)
	if err != nil {
		s.metrics.IncLogin(method, metrics.StatusFailure)
		return nil, err
	}

	user, err := s.resolver.Resolve(ctx, identity)
	if err != nil {
		s.metrics.IncLogin(method, metrics.StatusFailure)
		return nil, err
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		s.metrics.IncLogin(method, metrics.StatusFailure)
		return nil, apperr.Wrap(apperr.ErrInternal, "Failed to issue session", err)
	}

	s.metrics.IncLogin(method, metrics.StatusSuccess)
	return &LoginResult{Token: token, User: user}, nil
}

// identify turns an assertion into an identity using only the path that
// matches its type.
func (s *AuthService) identify(ctx context.Context, assertion auth.Assertion) (string, *model.Identity, error) {
	switch a := assertion.(type) {
	case auth.GoogleIDToken:
		if s.verifier == nil {
			return LoginMethodGoogle, nil, apperr.New(apperr.ErrForbidden, "Google login is disabled")
		}
		identity, err := s.verifier.Verify(ctx, a.Credential)
		return LoginMethodGoogle, identity, err

	case auth.GoogleAuthCode:
		if s.exchanger == nil {
			return LoginMethodGoogleCode, nil, apperr.New(apperr.ErrForbidden, "Authorization code login is disabled")
		}
		raw, err := s.exchanger.Exchange(ctx, a.Code)
		if err != nil {
			return LoginMethodGoogleCode, nil, err
		}
		identity, err := s.verifier.Verify(ctx, raw)
		return LoginMethodGoogleCode, identity, err

	case auth.MockAssertion:
		if !s.allowMock {
			return LoginMethodMock, nil, apperr.New(apperr.ErrForbidden, "Mock login is disabled")
		}
		email := strings.TrimSpace(a.Email)
		name := strings.TrimSpace(a.Name)
		if email == "" || name == "" {
			return LoginMethodMock, nil, apperr.New(apperr.ErrValidation, "Email and name are required")
		}
		avatar := DefaultMockAvatarURL
		return LoginMethodMock, &model.Identity{Email: email, Name: name, AvatarURL: &avatar}, nil

	default:
		return "unknown", nil, apperr.New(apperr.ErrValidation, "Unsupported credential")
	}
}

// Me returns the profile of the authenticated user.
func (s *AuthService) Me(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperr.New(apperr.ErrNotFound, "User not found")
		}
		return nil, apperr.Wrap(apperr.ErrInternal, "Failed to load user", err)
	}
	return user, nil
}
