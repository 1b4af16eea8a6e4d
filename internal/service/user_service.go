package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/taskdeck/taskdeck-api/internal/domain"
	"github.com/taskdeck/taskdeck-api/internal/platform/logger"
	"github.com/taskdeck/taskdeck-api/internal/service/auth"
	"github.com/taskdeck/taskdeck-api/internal/store"
)

// UpdateUserParams describes a partial update to a user. Nil fields are
// left untouched.
type UpdateUserParams struct {
	Email       *string
	Password    *string
	IsActive    *bool
	IsAdmin     *bool
	AvatarURL   *string
	ClearAvatar bool
}

// UserService provides account management and credential verification.
type UserService interface {
	// CreateUser registers a new account with a hashed password.
	CreateUser(ctx context.Context, email, password string, isAdmin bool) (*domain.User, error)

	// GetUser retrieves a user by ID.
	GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// ListUsers returns users ordered by creation time.
	ListUsers(ctx context.Context, skip, limit int) ([]*domain.User, error)

	// UpdateUser applies a partial update to a user.
	UpdateUser(ctx context.Context, id uuid.UUID, params UpdateUserParams) (*domain.User, error)

	// DeleteUser removes a user permanently.
	DeleteUser(ctx context.Context, id uuid.UUID) error

	// Authenticate verifies a user's credentials and records the login
	// time. Fails with auth.ErrInvalidCredentials on unknown email or
	// wrong password and auth.ErrInactiveUser for deactivated accounts.
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)
}

// userServiceImpl implements the UserService interface.
type userServiceImpl struct {
	users    store.UserStore
	hasher   auth.PasswordHasher
	verifier auth.PasswordVerifier
	logger   *slog.Logger
	timeFunc func() time.Time
}

// NewUserService creates a new UserService.
// It returns an error if any of the required dependencies are nil.
func NewUserService(
	users store.UserStore,
	hasher auth.PasswordHasher,
	verifier auth.PasswordVerifier,
	logger *slog.Logger,
) (UserService, error) {
	if users == nil {
		return nil, fmt.Errorf("user store cannot be nil")
	}
	if hasher == nil {
		return nil, fmt.Errorf("password hasher cannot be nil")
	}
	if verifier == nil {
		return nil, fmt.Errorf("password verifier cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &userServiceImpl{
		users:    users,
		hasher:   hasher,
		verifier: verifier,
		logger:   logger.With(slog.String("component", "user_service")),
		timeFunc: time.Now,
	}, nil
}

// CreateUser implements UserService.CreateUser.
func (s *userServiceImpl) CreateUser(
	ctx context.Context,
	email, password string,
	isAdmin bool,
) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if len(password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", domain.ErrValidation)
	}

	hashed, err := s.hasher.Hash(password)
	if err != nil {
		log.Error("failed to hash password", slog.String("error", err.Error()))
		return nil, NewUserServiceError("create_user", "failed to hash password", err)
	}

	user, err := domain.NewUser(email, hashed)
	if err != nil {
		return nil, err
	}
	user.IsAdmin = isAdmin

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			return nil, err
		}
		log.Error("failed to create user",
			slog.String("error", err.Error()),
			slog.String("email", user.Email))
		return nil, NewUserServiceError("create_user", "failed to save user", err)
	}

	log.Info("user created",
		slog.String("user_id", user.ID.String()),
		slog.Bool("is_admin", user.IsAdmin))
	return user, nil
}

// GetUser implements UserService.GetUser.
func (s *userServiceImpl) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

// ListUsers implements UserService.ListUsers.
func (s *userServiceImpl) ListUsers(
	ctx context.Context,
	skip, limit int,
) ([]*domain.User, error) {
	users, err := s.users.List(ctx, skip, limit)
	if err != nil {
		return nil, NewUserServiceError("list_users", "failed to list users", err)
	}
	return users, nil
}

// UpdateUser implements UserService.UpdateUser.
func (s *userServiceImpl) UpdateUser(
	ctx context.Context,
	id uuid.UUID,
	params UpdateUserParams,
) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if params.Email != nil {
		user.Email = domain.NormalizeEmail(*params.Email)
	}
	if params.Password != nil {
		if len(*params.Password) < 8 {
			return nil, fmt.Errorf(
				"%w: password must be at least 8 characters",
				domain.ErrValidation,
			)
		}
		hashed, err := s.hasher.Hash(*params.Password)
		if err != nil {
			return nil, NewUserServiceError("update_user", "failed to hash password", err)
		}
		user.HashedPassword = hashed
	}
	if params.IsActive != nil {
		user.IsActive = *params.IsActive
	}
	if params.IsAdmin != nil {
		user.IsAdmin = *params.IsAdmin
	}
	if params.ClearAvatar {
		user.AvatarURL = nil
	} else if params.AvatarURL != nil {
		user.AvatarURL = params.AvatarURL
	}
	user.UpdatedAt = s.timeFunc().UTC()

	if err := user.Validate(); err != nil {
		return nil, err
	}

	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, store.ErrEmailExists) || store.IsNotFoundError(err) {
			return nil, err
		}
		log.Error("failed to update user",
			slog.String("error", err.Error()),
			slog.String("user_id", id.String()))
		return nil, NewUserServiceError("update_user", "failed to save user", err)
	}
	return user, nil
}

// DeleteUser implements UserService.DeleteUser.
func (s *userServiceImpl) DeleteUser(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := s.users.Delete(ctx, id); err != nil {
		if store.IsNotFoundError(err) {
			return err
		}
		log.Error("failed to delete user",
			slog.String("error", err.Error()),
			slog.String("user_id", id.String()))
		return NewUserServiceError("delete_user", "failed to delete user", err)
	}

	log.Info("user deleted", slog.String("user_id", id.String()))
	return nil
}

// Authenticate implements UserService.Authenticate.
func (s *userServiceImpl) Authenticate(
	ctx context.Context,
	email, password string,
) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := s.users.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if store.IsNotFoundError(err) {
			// Same error as a wrong password so account existence does not
			// leak through login.
			return nil, auth.ErrInvalidCredentials
		}
		return nil, NewUserServiceError("authenticate", "failed to look up user", err)
	}

	if err := s.verifier.Compare(user.HashedPassword, password); err != nil {
		log.Debug("login failed: password mismatch", slog.String("user_id", user.ID.String()))
		return nil, auth.ErrInvalidCredentials
	}

	if !user.IsActive {
		log.Debug("login rejected: inactive account", slog.String("user_id", user.ID.String()))
		return nil, auth.ErrInactiveUser
	}

	now := s.timeFunc().UTC()
	user.LastLogin = &now
	user.UpdatedAt = now
	if err := s.users.Update(ctx, user); err != nil {
		// Login bookkeeping must not block authentication.
		log.Warn("failed to record login time",
			slog.String("error", err.Error()),
			slog.String("user_id", user.ID.String()))
	}

	log.Info("user authenticated", slog.String("user_id", user.ID.String()))
	return user, nil
}
