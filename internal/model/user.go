// Package model defines domain entities for the application.
package model

import "time"

// User is the internal identity record. Email is the join key for logins;
// GoogleID is set once the account is linked to a Google identity.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
	GoogleID  *string   `json:"google_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// IsLinked returns true if the user already has an external identity.
func (u *User) IsLinked() bool {
	return u.GoogleID != nil && *u.GoogleID != ""
}

// Identity is a verified (or mocked) external identity presented at login.
type Identity struct {
	ExternalID string
	Email      string
	Name       string
	AvatarURL  *string
}

// AuthContext holds the verified session identity of a request.
// This is injected into the request context by auth middleware.
type AuthContext struct {
	UserID string
	Email  string
}
