package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/taskdeck/taskdeck-api/internal/domain"
)

// UserStore defines the interface for user persistence.
type UserStore interface {
	// Create saves a new user. Returns ErrEmailExists if the email is
	// already taken.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by ID. Returns ErrUserNotFound if the user
	// does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// GetByEmail retrieves a user by email. Returns ErrUserNotFound if the
	// user does not exist.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// List returns users ordered by creation time.
	List(ctx context.Context, skip, limit int) ([]*domain.User, error)

	// Update modifies an existing user. Returns ErrUserNotFound if the
	// user does not exist and ErrEmailExists when changing to a taken
	// email.
	Update(ctx context.Context, user *domain.User) error

	// Delete removes a user permanently. Returns ErrUserNotFound if the
	// user does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a UserStore bound to the given transaction.
	WithTx(tx *sql.Tx) UserStore
}
