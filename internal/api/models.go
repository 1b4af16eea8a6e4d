package api

import (
	"time"

	"github.com/google/uuid"
)

// Common request/response structures

// LoginRequest defines the payload for the login endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=1"`
}

// AuthResponse defines the successful response for authentication endpoints.
type AuthResponse struct {
	// AccessToken is the JWT token used for API authorization
	AccessToken string `json:"access_token"`

	// RefreshToken is the JWT token used to obtain new access tokens
	RefreshToken string `json:"refresh_token"`

	// TokenType is always "bearer"
	TokenType string `json:"token_type"`

	// ExpiresAt is the ISO 8601 timestamp when the access token expires
	ExpiresAt string `json:"expires_at"`
}

// RefreshTokenRequest defines the payload for the token refresh endpoint.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// CreateTaskRequest defines the payload for task creation.
type CreateTaskRequest struct {
	Title           string      `json:"title"             validate:"required,max=200"`
	Description     string      `json:"description"       validate:"required"`
	DueDate         *time.Time  `json:"due_date"`
	Reward          *string     `json:"reward"`
	AssignmentType  string      `json:"assignment_type"   validate:"omitempty,oneof=any one some"`
	AssignedTo      *uuid.UUID  `json:"assigned_to"`
	AssignedUserIDs []uuid.UUID `json:"assigned_user_ids"`
}

// UpdateTaskRequest defines the payload for partial task updates. Absent
// fields are left untouched; ClearDueDate removes an existing due date.
type UpdateTaskRequest struct {
	Title           *string      `json:"title"             validate:"omitempty,max=200"`
	Description     *string      `json:"description"`
	DueDate         *time.Time   `json:"due_date"`
	ClearDueDate    bool         `json:"clear_due_date"`
	Reward          *string      `json:"reward"`
	AssignmentType  *string      `json:"assignment_type"   validate:"omitempty,oneof=any one some"`
	AssignedTo      *uuid.UUID   `json:"assigned_to"`
	AssignedUserIDs *[]uuid.UUID `json:"assigned_user_ids"`
}

// CreateUserRequest defines the payload for the admin user creation
// endpoint.
type CreateUserRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	IsAdmin  bool   `json:"is_admin"`
}

// UpdateUserRequest defines the payload for partial user updates.
type UpdateUserRequest struct {
	Email       *string `json:"email"     validate:"omitempty,email"`
	Password    *string `json:"password"  validate:"omitempty,min=8,max=72"`
	IsActive    *bool   `json:"is_active"`
	IsAdmin     *bool   `json:"is_admin"`
	AvatarURL   *string `json:"avatar_url"`
	ClearAvatar bool    `json:"clear_avatar"`
}

// UpdateMeRequest defines the payload for self-service profile updates.
// Privilege and activation flags are deliberately absent; those are
// admin-only.
type UpdateMeRequest struct {
	Email       *string `json:"email"      validate:"omitempty,email"`
	Password    *string `json:"password"   validate:"omitempty,min=8,max=72"`
	AvatarURL   *string `json:"avatar_url"`
	ClearAvatar bool    `json:"clear_avatar"`
}

// MaintenanceResponse acknowledges a manually triggered sweep.
type MaintenanceResponse struct {
	Status string `json:"status"`
}
