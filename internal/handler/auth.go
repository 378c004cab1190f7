package handler

import (
	"log/slog"
	"net/http"

	"github.com/nnote/nnote/internal/auth"
	"github.com/nnote/nnote/internal/handler/dto"
	"github.com/nnote/nnote/internal/service"
)

// AuthHandler handles login and current-user requests.
type AuthHandler struct {
	svc    *service.AuthService
	logger *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		svc:    svc,
		logger: logger,
	}
}

// GoogleLogin handles POST /api/auth/google.
func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	var req dto.GoogleLoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Credential == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Google credential is required")
		return
	}

	h.login(w, r, auth.GoogleIDToken{Credential: req.Credential}, service.LoginMethodGoogle)
}

// GoogleCodeLogin handles POST /api/auth/google/code.
func (h *AuthHandler) GoogleCodeLogin(w http.ResponseWriter, r *http.Request) {
	var req dto.GoogleCodeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Code == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Authorization code is required")
		return
	}

	h.login(w, r, auth.GoogleAuthCode{Code: req.Code}, service.LoginMethodGoogleCode)
}

// MockLogin handles POST /api/auth/google/mock.
// It is only routed when the server runs in mock auth mode.
func (h *AuthHandler) MockLogin(w http.ResponseWriter, r *http.Request) {
	var req dto.MockLoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	h.login(w, r, auth.MockAssertion{Email: req.Email, Name: req.Name}, service.LoginMethodMock)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request, assertion auth.Assertion, method string) {
	result, err := h.svc.Login(r.Context(), assertion)
	if err != nil {
		h.logger.Warn("login_failed",
			"method", method,
			"error", err,
		)
		handleServiceError(w, r, h.logger, err)
		return
	}

	h.logger.Info("login_succeeded",
		"method", method,
		"user_id", result.User.ID,
	)

	writeJSON(w, http.StatusOK, dto.ToLoginResponse(result.Token, result.User))
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.MustAuthFromContext(r.Context())

	user, err := h.svc.Me(r.Context(), authCtx.UserID)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToMeResponse(user))
}
