package auth

import "github.com/marketly/marketly-backend/internal/users"

// RegisterRequest is the sign-up payload.
type RegisterRequest struct {
	Name     string  `json:"name" validate:"required,max=120"`
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=6,max=128"`
	Phone    *string `json:"phone,omitempty" validate:"omitempty,max=32"`
}

// LoginRequest captures the user credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest exchanges a refresh token for a new access token. The
// access token may be expired.
type RefreshRequest struct {
	AccessToken  string `json:"-"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// AuthResponse is returned by register, login and refresh.
type AuthResponse struct {
	Token        string         `json:"token"`
	RefreshToken string         `json:"refresh_token,omitempty"`
	User         *users.UserDTO `json:"user"`
}
