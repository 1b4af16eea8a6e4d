package auth

import "github.com/google/uuid"

// Role is the privilege tier carried in a token's role claim.
type Role string

// Privilege tiers, lowest to highest.
const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperadmin Role = "superadmin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleSuperadmin:
		return true
	}
	return false
}

// SuperadminSubject is the fixed token subject for the config-defined
// superadmin principal, which has no users row.
const SuperadminSubject = "superadmin"

// Principal is the acting identity behind a request: a concrete user, or
// the superadmin defined in configuration.
type Principal struct {
	// UserID is the user's row ID; uuid.Nil for the superadmin.
	UserID uuid.UUID
	// Subject is the user's email, or SuperadminSubject.
	Subject string
	Role    Role
}

// Unrestricted reports whether the principal bypasses task visibility
// filtering. Admin and superadmin tokens see everything.
func (p Principal) Unrestricted() bool {
	return p.Role == RoleAdmin || p.Role == RoleSuperadmin
}

// IsAdmin reports whether the principal may use admin-only endpoints.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin || p.Role == RoleSuperadmin
}
