// Package handler provides HTTP request handlers.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/nnote/nnote/internal/apperr"
	"github.com/nnote/nnote/internal/auth"
	"github.com/nnote/nnote/internal/handler/dto"
	"github.com/nnote/nnote/internal/middleware"
)

// Error codes for responses that do not come from a service error kind.
const (
	codeInvalidJSON     = "INVALID_JSON"
	codePayloadTooLarge = "PAYLOAD_TOO_LARGE"
	codeNotFound        = "NOT_FOUND"
	codeMethodNotAllow  = "METHOD_NOT_ALLOWED"
)

// errorStatus maps each error kind to its HTTP status and response code.
var errorStatus = []struct {
	kind   error
	status int
	code   string
}{
	{apperr.ErrValidation, http.StatusBadRequest, "VALIDATION_ERROR"},
	{apperr.ErrUnauthenticated, http.StatusUnauthorized, "UNAUTHORIZED"},
	{apperr.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
	{apperr.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
	{apperr.ErrConflict, http.StatusConflict, "CONFLICT"},
	{apperr.ErrInvalidCredential, http.StatusUnauthorized, "INVALID_CREDENTIAL"},
	{apperr.ErrIncompletePayload, http.StatusBadRequest, "INCOMPLETE_PAYLOAD"},
	{apperr.ErrUploadFailed, http.StatusBadGateway, "UPLOAD_FAILED"},
	{apperr.ErrInternal, http.StatusInternalServerError, "INTERNAL_ERROR"},
}

// statusFor returns the HTTP status and code for err.
func statusFor(err error) (int, string) {
	kind := apperr.KindOf(err)
	for _, e := range errorStatus {
		if e.kind != kind {
			continue
		}
		if kind == apperr.ErrUnauthenticated {
			switch {
			case errors.Is(err, auth.ErrTokenExpired):
				return e.status, "TOKEN_EXPIRED"
			case errors.Is(err, auth.ErrTokenInvalid):
				return e.status, "TOKEN_INVALID"
			}
		}
		return e.status, e.code
	}
	return http.StatusInternalServerError, "INTERNAL_ERROR"
}

// handleServiceError maps service errors to HTTP responses.
// Server-side failures are logged with their cause; the caller only sees
// the generic message.
func handleServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error("internal_error",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetRequestID(r.Context()),
		)
	}
	writeError(w, status, code, apperr.MessageOf(err))
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// decodeJSON decodes the request body into v and writes the error response
// itself when it fails.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, codePayloadTooLarge, "Request body too large")
	case errors.Is(err, io.EOF):
		writeError(w, http.StatusBadRequest, codeInvalidJSON, "Request body is required")
	default:
		writeError(w, http.StatusBadRequest, codeInvalidJSON, "Invalid request body")
	}
	return false
}

// NotFound handles 404 responses.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, codeNotFound, "Route not found")
}

// MethodNotAllowed handles 405 responses.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllow, "Method not allowed")
}
