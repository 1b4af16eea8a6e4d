package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// User-specific validation errors.
var (
	ErrUserIDEmpty         = fmt.Errorf("%w: user ID cannot be empty", ErrValidation)
	ErrEmailEmpty          = fmt.Errorf("%w: email cannot be empty", ErrValidation)
	ErrEmailInvalid        = fmt.Errorf("%w: invalid email format", ErrValidation)
	ErrHashedPasswordEmpty = fmt.Errorf("%w: hashed password cannot be empty", ErrValidation)
)

// User is a registered account. The superadmin principal is defined in
// configuration and has no User row.
type User struct {
	ID             uuid.UUID  `json:"id"`
	Email          string     `json:"email"`
	HashedPassword string     `json:"-"` // never exposed in JSON
	IsActive       bool       `json:"is_active"`
	IsAdmin        bool       `json:"is_admin"`
	AvatarURL      *string    `json:"avatar_url,omitempty"`
	LastLogin      *time.Time `json:"last_login,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// NormalizeEmail canonicalizes an email address for storage and lookup.
// Every path that writes or matches an email must go through this so
// case variants of the same address cannot coexist or fail to match.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NewUser creates an active user with the given email and an already
// hashed password. Password hashing is the caller's responsibility (see
// auth.PasswordHasher).
func NewUser(email, hashedPassword string) (*User, error) {
	now := time.Now().UTC()
	user := &User{
		ID:             uuid.New(),
		Email:          NormalizeEmail(email),
		HashedPassword: hashedPassword,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}
	return user, nil
}

// Validate checks the user's fields.
func (u *User) Validate() error {
	if u.ID == uuid.Nil {
		return ErrUserIDEmpty
	}
	if u.Email == "" {
		return ErrEmailEmpty
	}
	if !validEmail(u.Email) {
		return fmt.Errorf("%w: %q", ErrEmailInvalid, u.Email)
	}
	if u.HashedPassword == "" {
		return ErrHashedPasswordEmpty
	}
	return nil
}

// validEmail performs a minimal structural check: a local part, one "@",
// and a domain containing an interior dot. Full RFC 5322 validation is
// left to the API layer's validator tags.
func validEmail(email string) bool {
	at := strings.IndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return false
	}
	domain := email[at+1:]
	dot := strings.IndexByte(domain, '.')
	return dot > 0 && dot < len(domain)-1
}
