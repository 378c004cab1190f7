package handler

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/nnote/nnote/internal/apperr"
	"github.com/nnote/nnote/internal/auth"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", apperr.New(apperr.ErrValidation, "Title and content are required"), http.StatusBadRequest, "VALIDATION_ERROR"},
		{"forbidden", apperr.New(apperr.ErrForbidden, "Access denied"), http.StatusForbidden, "FORBIDDEN"},
		{"not found", apperr.New(apperr.ErrNotFound, "Note not found"), http.StatusNotFound, "NOT_FOUND"},
		{"conflict", apperr.New(apperr.ErrConflict, "Slug taken"), http.StatusConflict, "CONFLICT"},
		{"invalid credential", apperr.New(apperr.ErrInvalidCredential, "Invalid Google token"), http.StatusUnauthorized, "INVALID_CREDENTIAL"},
		{"incomplete payload", apperr.New(apperr.ErrIncompletePayload, "Invalid Google token payload"), http.StatusBadRequest, "INCOMPLETE_PAYLOAD"},
		{"upload failed", apperr.New(apperr.ErrUploadFailed, "Failed to upload image"), http.StatusBadGateway, "UPLOAD_FAILED"},
		{"token expired", auth.ErrTokenExpired, http.StatusUnauthorized, "TOKEN_EXPIRED"},
		{"token invalid wrapped", fmt.Errorf("%w: bad signature", auth.ErrTokenInvalid), http.StatusUnauthorized, "TOKEN_INVALID"},
		{"bare unauthenticated", apperr.ErrUnauthenticated, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"unknown", errors.New("pgx: conn closed"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code := statusFor(tt.err)
			if status != tt.wantStatus || code != tt.wantCode {
				t.Errorf("statusFor() = %d %s, want %d %s", status, code, tt.wantStatus, tt.wantCode)
			}
		})
	}
}
