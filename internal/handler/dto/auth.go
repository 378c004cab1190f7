package dto

import (
	"time"

	"github.com/nnote/nnote/internal/model"
)

// GoogleLoginRequest is the body of POST /api/auth/google.
type GoogleLoginRequest struct {
	Credential string `json:"credential"`
}

// GoogleCodeRequest is the body of POST /api/auth/google/code.
type GoogleCodeRequest struct {
	Code string `json:"code"`
}

// MockLoginRequest is the body of POST /api/auth/google/mock.
type MockLoginRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// UserResponse is a user as returned at login.
type UserResponse struct {
	ID     string  `json:"id"`
	Email  string  `json:"email"`
	Name   string  `json:"name"`
	Avatar *string `json:"avatar"`
}

// LoginResponse is returned by every login endpoint.
type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// ProfileResponse is a user as returned by GET /api/auth/me.
type ProfileResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Avatar    *string   `json:"avatar"`
	CreatedAt time.Time `json:"createdAt"`
}

// MeResponse wraps the current user's profile.
type MeResponse struct {
	User ProfileResponse `json:"user"`
}

// ToUserResponse converts a domain user for the login payload.
func ToUserResponse(user *model.User) UserResponse {
	return UserResponse{
		ID:     user.ID,
		Email:  user.Email,
		Name:   user.Name,
		Avatar: user.AvatarURL,
	}
}

// ToLoginResponse builds the login payload.
func ToLoginResponse(token string, user *model.User) LoginResponse {
	return LoginResponse{Token: token, User: ToUserResponse(user)}
}

// ToMeResponse builds the current-user payload.
func ToMeResponse(user *model.User) MeResponse {
	return MeResponse{User: ProfileResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Avatar:    user.AvatarURL,
		CreatedAt: user.CreatedAt,
	}}
}
