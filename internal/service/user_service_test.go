package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdeck/taskdeck-api/internal/mocks"
	"github.com/taskdeck/taskdeck-api/internal/service"
	"github.com/taskdeck/taskdeck-api/internal/service/auth"
	"github.com/taskdeck/taskdeck-api/internal/store"
)

func newUserService(t *testing.T) (service.UserService, *mocks.MemoryUserStore) {
	t.Helper()

	users := mocks.NewMemoryUserStore()
	svc, err := service.NewUserService(
		users,
		auth.NewBcryptHasher(4), // minimum cost keeps tests fast
		auth.NewBcryptVerifier(),
		nil,
	)
	require.NoError(t, err)
	return svc, users
}

func TestAuthenticateEmailCase(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("login email matches regardless of case and whitespace", func(t *testing.T) {
		t.Parallel()
		svc, _ := newUserService(t)

		created, err := svc.CreateUser(ctx, "Helen@Example.com", "password123", false)
		require.NoError(t, err)
		assert.Equal(t, "helen@example.com", created.Email)

		user, err := svc.Authenticate(ctx, "  HELEN@EXAMPLE.COM ", "password123")
		require.NoError(t, err)
		assert.Equal(t, created.ID, user.ID)
	})

	t.Run("wrong password still fails for case-variant email", func(t *testing.T) {
		t.Parallel()
		svc, _ := newUserService(t)

		_, err := svc.CreateUser(ctx, "ivan@example.com", "password123", false)
		require.NoError(t, err)

		_, err = svc.Authenticate(ctx, "IVAN@example.com", "wrong-password")
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})
}

func TestUpdateUserEmailNormalization(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("updated email is stored canonically", func(t *testing.T) {
		t.Parallel()
		svc, _ := newUserService(t)

		user, err := svc.CreateUser(ctx, "judy@example.com", "password123", false)
		require.NoError(t, err)

		newEmail := "  Judy.Smith@Example.COM "
		updated, err := svc.UpdateUser(ctx, user.ID, service.UpdateUserParams{Email: &newEmail})
		require.NoError(t, err)
		assert.Equal(t, "judy.smith@example.com", updated.Email)

		_, err = svc.Authenticate(ctx, "judy.smith@example.com", "password123")
		assert.NoError(t, err)
	})

	t.Run("case-variant duplicate email is rejected", func(t *testing.T) {
		t.Parallel()
		svc, _ := newUserService(t)

		_, err := svc.CreateUser(ctx, "taken@example.com", "password123", false)
		require.NoError(t, err)
		other, err := svc.CreateUser(ctx, "other@example.com", "password123", false)
		require.NoError(t, err)

		duplicate := "TAKEN@Example.com"
		_, err = svc.UpdateUser(ctx, other.ID, service.UpdateUserParams{Email: &duplicate})
		assert.ErrorIs(t, err, store.ErrEmailExists)
	})
}
