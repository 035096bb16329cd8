package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// RegisterRequest holds the self-service registration payload. The role is
// restricted to student/faculty; admin accounts are created through user
// management only.
type RegisterRequest struct {
	FullName       string   `json:"full_name" validate:"required"`
	Email          string   `json:"email" validate:"required,email"`
	Password       string   `json:"password" validate:"required,min=6"`
	Role           UserRole `json:"role" validate:"omitempty,oneof=STUDENT FACULTY"`
	Department     string   `json:"department" validate:"required"`
	RegisterNumber string   `json:"register_number"`
}

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// GoogleLoginRequest carries the ID token minted by the external provider.
type GoogleLoginRequest struct {
	IDToken string `json:"id_token" validate:"required"`
}

// GoogleRegisterRequest completes a profile for a verified external identity.
type GoogleRegisterRequest struct {
	IDToken        string   `json:"id_token" validate:"required"`
	Role           UserRole `json:"role" validate:"omitempty,oneof=STUDENT FACULTY"`
	Department     string   `json:"department" validate:"required"`
	RegisterNumber string   `json:"register_number"`
}

// ChangePasswordRequest payload for updating password.
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

// ForgotPasswordRequest payload for initiating the reset flow.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest completes the reset flow with the raw token.
type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

// AuthResponse returns the issued token and user info after a successful
// login or registration.
type AuthResponse struct {
	Token     string    `json:"token,omitempty"`
	ExpiresIn int64     `json:"expires_in,omitempty"`
	IssuedAt  time.Time `json:"issued_at"`
	User      UserInfo  `json:"user"`

	// PendingApproval marks an account created outside the institution
	// domain; no token is issued until an admin approves it.
	PendingApproval bool `json:"pending_approval,omitempty"`

	// RegistrationRequired is set on Google logins for unknown emails;
	// the verified identity is echoed back so the client can complete
	// the profile via the google-register endpoint.
	RegistrationRequired bool   `json:"registration_required,omitempty"`
	VerifiedEmail        string `json:"verified_email,omitempty"`
	VerifiedName         string `json:"verified_name,omitempty"`
}

// UserInfo describes the authenticated user in responses.
type UserInfo struct {
	ID             string   `json:"id"`
	Email          string   `json:"email"`
	FullName       string   `json:"full_name"`
	Role           UserRole `json:"role"`
	Department     string   `json:"department"`
	RegisterNumber string   `json:"register_number,omitempty"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	jwt.RegisteredClaims
}
