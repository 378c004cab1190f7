package middleware

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/nnote/nnote/internal/auth"
	"github.com/nnote/nnote/internal/model"
)

// Auth error codes returned in the response body.
const (
	CodeUnauthorized = "UNAUTHORIZED"
	CodeTokenExpired = "TOKEN_EXPIRED"
	CodeTokenInvalid = "TOKEN_INVALID"
)

// SessionVerifier validates a raw session token.
type SessionVerifier interface {
	Verify(raw string) (*model.AuthContext, error)
}

// AuthConfig holds dependencies for the auth middlewares.
type AuthConfig struct {
	Logger *slog.Logger
	Tokens SessionVerifier
}

// Authenticate returns middleware that requires a valid bearer session token.
// On success the verified identity is attached to the request context.
func Authenticate(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := extractBearerToken(r)
			if raw == "" {
				logAuthFailure(cfg.Logger, r, "missing_token")
				writeAuthError(w, CodeUnauthorized, "Access token required")
				return
			}

			authCtx, err := cfg.Tokens.Verify(raw)
			if err != nil {
				if errors.Is(err, auth.ErrTokenExpired) {
					logAuthFailure(cfg.Logger, r, "token_expired")
					writeAuthError(w, CodeTokenExpired, "Token expired")
					return
				}
				logAuthFailure(cfg.Logger, r, "token_invalid")
				writeAuthError(w, CodeTokenInvalid, "Invalid token")
				return
			}

			ctx := auth.ContextWithAuth(r.Context(), authCtx)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth returns middleware that attaches the caller's identity when a
// valid bearer token is present. Missing or bad tokens never reject the request.
func OptionalAuth(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := extractBearerToken(r)
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}

			authCtx, err := cfg.Tokens.Verify(raw)
			if err != nil {
				cfg.Logger.Debug("optional auth ignored token",
					slog.String("error", err.Error()),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				next.ServeHTTP(w, r)
				return
			}

			ctx := auth.ContextWithAuth(r.Context(), authCtx)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractBearerToken returns the token from "Authorization: Bearer <token>".
func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func logAuthFailure(logger *slog.Logger, r *http.Request, reason string) {
	logger.Warn("authentication failed",
		slog.String("reason", reason),
		slog.String("ip", getClientIP(r)),
		slog.String("endpoint", r.Method+" "+r.URL.Path),
		slog.String("request_id", GetRequestID(r.Context())),
	)
}

// writeError writes the JSON error body shared by all middlewares.
func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": message,
		"code":  code,
	})
}

func writeAuthError(w http.ResponseWriter, code, message string) {
	writeError(w, http.StatusUnauthorized, code, message)
}
