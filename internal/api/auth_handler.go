package api

import (
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/taskdeck/taskdeck-api/internal/api/shared"
	"github.com/taskdeck/taskdeck-api/internal/config"
	"github.com/taskdeck/taskdeck-api/internal/service"
	"github.com/taskdeck/taskdeck-api/internal/service/auth"
	"github.com/taskdeck/taskdeck-api/internal/store"
)

// AuthHandler handles authentication-related API requests.
type AuthHandler struct {
	userService        service.UserService
	jwtService         auth.JWTService
	superadminEmail    string
	superadminPassword string
	validator          *validator.Validate
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
// The superadmin credentials come from configuration; a login matching
// them is authenticated without a users row.
func NewAuthHandler(
	userService service.UserService,
	jwtService auth.JWTService,
	authConfig config.AuthConfig,
) *AuthHandler {
	return &AuthHandler{
		userService:        userService,
		jwtService:         jwtService,
		superadminEmail:    authConfig.SuperadminEmail,
		superadminPassword: authConfig.SuperadminPassword,
		validator:          validator.New(),
	}
}

// Login handles the /auth/login endpoint.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest

	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	// The superadmin is matched before the users table so it works on an
	// empty database.
	if h.isSuperadmin(req.Email, req.Password) {
		h.respondWithTokens(w, r, auth.Principal{
			UserID:  uuid.Nil,
			Subject: auth.SuperadminSubject,
			Role:    auth.RoleSuperadmin,
		}, http.StatusOK)
		return
	}

	user, err := h.userService.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	role := auth.RoleUser
	if user.IsAdmin {
		role = auth.RoleAdmin
	}
	h.respondWithTokens(w, r, auth.Principal{
		UserID:  user.ID,
		Subject: user.Email,
		Role:    role,
	}, http.StatusOK)
}

// RefreshToken handles the /auth/refresh endpoint. It validates the
// refresh token and issues a new token pair.
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req RefreshTokenRequest

	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	claims, err := h.jwtService.ValidateRefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	principal := claims.Principal

	// Re-check account status so a deactivated user cannot keep minting
	// access tokens from an old refresh token.
	if principal.Role != auth.RoleSuperadmin {
		user, err := h.userService.GetUser(r.Context(), principal.UserID)
		if err != nil {
			if errors.Is(err, store.ErrUserNotFound) {
				HandleAPIError(w, r, auth.ErrInvalidToken, "")
				return
			}
			HandleAPIError(w, r, err, "")
			return
		}
		if !user.IsActive {
			HandleAPIError(w, r, auth.ErrInactiveUser, "")
			return
		}
		principal.Role = auth.RoleUser
		if user.IsAdmin {
			principal.Role = auth.RoleAdmin
		}
		principal.Subject = user.Email
	}

	h.respondWithTokens(w, r, principal, http.StatusOK)
}

// isSuperadmin compares credentials against the configured superadmin in
// constant time.
func (h *AuthHandler) isSuperadmin(email, password string) bool {
	if h.superadminEmail == "" || h.superadminPassword == "" {
		return false
	}
	emailMatch := subtle.ConstantTimeCompare(
		[]byte(strings.ToLower(strings.TrimSpace(email))),
		[]byte(strings.ToLower(h.superadminEmail)),
	)
	passwordMatch := subtle.ConstantTimeCompare([]byte(password), []byte(h.superadminPassword))
	return emailMatch == 1 && passwordMatch == 1
}

func (h *AuthHandler) respondWithTokens(
	w http.ResponseWriter,
	r *http.Request,
	principal auth.Principal,
	status int,
) {
	accessToken, err := h.jwtService.GenerateToken(r.Context(), principal)
	if err != nil {
		slog.Error("failed to generate access token",
			"error", err, "subject", principal.Subject)
		shared.RespondWithError(
			w, r, http.StatusInternalServerError, "Failed to generate authentication token")
		return
	}

	refreshToken, err := h.jwtService.GenerateRefreshToken(r.Context(), principal)
	if err != nil {
		slog.Error("failed to generate refresh token",
			"error", err, "subject", principal.Subject)
		shared.RespondWithError(
			w, r, http.StatusInternalServerError, "Failed to generate authentication token")
		return
	}

	expiresAt := time.Now().UTC().Add(h.jwtService.AccessTokenLifetime())
	shared.RespondWithJSON(w, r, status, AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		ExpiresAt:    expiresAt.Format(time.RFC3339),
	})
}
