package auth

import (
	"context"
	"time"
)

// JWTService defines operations for managing JWT authentication tokens.
type JWTService interface {
	// GenerateToken creates a signed access token for the principal.
	GenerateToken(ctx context.Context, principal Principal) (string, error)

	// ValidateToken validates an access token string and extracts the
	// principal's claims. Fails with ErrExpiredToken, ErrInvalidToken, or
	// ErrWrongTokenType.
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)

	// GenerateRefreshToken creates a signed refresh token for the
	// principal. Refresh tokens have a longer lifetime and are exchanged
	// for new access tokens.
	GenerateRefreshToken(ctx context.Context, principal Principal) (string, error)

	// ValidateRefreshToken validates a refresh token string and extracts
	// the principal's claims.
	ValidateRefreshToken(ctx context.Context, tokenString string) (*Claims, error)

	// AccessTokenLifetime returns the configured access token lifetime,
	// used to report expiry to clients.
	AccessTokenLifetime() time.Duration
}

// Claims is the validated content of a token.
type Claims struct {
	Principal Principal
	// TokenType is "access" or "refresh".
	TokenType string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
