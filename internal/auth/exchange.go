package auth

import (
	"context"
	"errors"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/nnote/nnote/internal/apperr"
)

// GoogleOAuthConfig builds the OAuth client config for the code flow.
func GoogleOAuthConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Endpoint:     google.Endpoint,
		Scopes:       []string{"openid", "email", "profile"},
	}
}

// CodeExchanger trades an authorization code for the ID token Google
// returns alongside the access token.
type CodeExchanger struct {
	config *oauth2.Config
}

// NewCodeExchanger creates a CodeExchanger.
func NewCodeExchanger(config *oauth2.Config) *CodeExchanger {
	return &CodeExchanger{config: config}
}

// Exchange returns the raw ID token for code. The token still has to go
// through GoogleVerifier.
func (e *CodeExchanger) Exchange(ctx context.Context, code string) (string, error) {
	if code == "" {
		return "", apperr.New(apperr.ErrValidation, "Authorization code is required")
	}

	tok, err := e.config.Exchange(ctx, code)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return "", apperr.Wrap(apperr.ErrInvalidCredential, "Invalid authorization code", err)
		}
		return "", apperr.Wrap(apperr.ErrInternal, "Code exchange failed", err)
	}

	idToken, ok := tok.Extra("id_token").(string)
	if !ok || idToken == "" {
		return "", apperr.New(apperr.ErrIncompletePayload, "Token response has no id_token")
	}

	return idToken, nil
}
