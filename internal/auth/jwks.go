package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// ErrKeySetUnavailable reports that no signing keys could be loaded from
// the identity provider.
var ErrKeySetUnavailable = errors.New("signing key set unavailable")

// NewGoogleKeys loads the JWKS served at url. Keys refresh in the background
// until ctx ends; an unknown key id triggers a rate-limited refetch.
func NewGoogleKeys(ctx context.Context, url string) (keyfunc.Keyfunc, error) {
	keys, err := keyfunc.NewDefaultCtx(ctx, []string{url})
	if err != nil {
		return nil, fmt.Errorf("load signing keys: %w", err)
	}
	return keys, nil
}

// lookupKey resolves the verification key for t. An empty key set means the
// provider was unreachable, which is not the caller's fault.
func lookupKey(ctx context.Context, keys keyfunc.Keyfunc, t *jwt.Token) (any, error) {
	key, err := keys.KeyfuncCtx(ctx)(t)
	if err == nil {
		return key, nil
	}

	if all, readErr := keys.Storage().KeyReadAll(ctx); readErr != nil || len(all) == 0 {
		return nil, fmt.Errorf("%w: %v", ErrKeySetUnavailable, err)
	}
	return nil, err
}
