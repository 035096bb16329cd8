package dto

import "github.com/noah-isme/rec-ctp-api/internal/models"

// CreateUserRequest payload for admin user creation. Unlike self-service
// registration, any role including ADMIN may be assigned here.
type CreateUserRequest struct {
	FullName       string          `json:"full_name" validate:"required"`
	Email          string          `json:"email" validate:"required,email"`
	Password       string          `json:"password" validate:"required,min=6"`
	Role           models.UserRole `json:"role" validate:"required,oneof=ADMIN FACULTY STUDENT"`
	Department     string          `json:"department" validate:"required"`
	RegisterNumber string          `json:"register_number"`
	Approved       bool            `json:"approved"`
}

// UpdateUserRequest payload for admin user updates. A non-empty password
// re-hashes the stored credential.
type UpdateUserRequest struct {
	FullName       string          `json:"full_name" validate:"required"`
	Email          string          `json:"email" validate:"required,email"`
	Role           models.UserRole `json:"role" validate:"required,oneof=ADMIN FACULTY STUDENT"`
	Department     string          `json:"department" validate:"required"`
	RegisterNumber string          `json:"register_number"`
	Password       string          `json:"password" validate:"omitempty,min=6"`
}

// ApproveUserRequest toggles the approval gate on an account.
type ApproveUserRequest struct {
	Approved bool `json:"approved"`
}

// StatsResponse aggregates portal counters for the admin dashboard.
type StatsResponse struct {
	Counts             StatsCounts          `json:"counts"`
	RecentApplications []models.Application `json:"recent_applications"`
}

// StatsCounts holds the per-entity totals.
type StatsCounts struct {
	Students     int `json:"students"`
	Faculty      int `json:"faculty"`
	Applications int `json:"applications"`
	ODRequests   int `json:"od_requests"`
}
