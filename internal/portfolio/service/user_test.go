package service

import (
	"context"
	"testing"

	"github.com/dmorocode/portfolio-sistema/internal/portfolio/domain"
	"github.com/dmorocode/portfolio-sistema/internal/portfolio/session"
	"github.com/stretchr/testify/require"
)

func TestUserCreate(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	t.Run("valid user", func(t *testing.T) {
		u, err := env.Users.Create(ctx, "admin", CreateUserParams{
			Username: "  leo  ",
			Email:    "Leo@Example.COM",
			Password: "password1",
		})
		require.NoError(t, err)
		require.Equal(t, "leo", u.Username)
		require.Equal(t, "leo@example.com", u.Email)
		require.Equal(t, domain.RoleUser, u.Role)
	})

	t.Run("duplicate username", func(t *testing.T) {
		_, err := env.Users.Create(ctx, "admin", CreateUserParams{
			Username: "leo",
			Email:    "other@example.com",
			Password: "password1",
		})
		require.ErrorIs(t, err, ErrUserExists)
	})

	t.Run("short password", func(t *testing.T) {
		_, err := env.Users.Create(ctx, "admin", CreateUserParams{
			Username: "mia",
			Email:    "mia@example.com",
			Password: "12345",
		})
		require.ErrorIs(t, err, ErrWeakPassword)
	})

	t.Run("bad email", func(t *testing.T) {
		_, err := env.Users.Create(ctx, "admin", CreateUserParams{
			Username: "mia",
			Email:    "not-an-email",
			Password: "password1",
		})
		require.ErrorIs(t, err, ErrInvalidUser)
	})

	t.Run("bad role", func(t *testing.T) {
		_, err := env.Users.Create(ctx, "admin", CreateUserParams{
			Username: "mia",
			Email:    "mia@example.com",
			Password: "password1",
			Role:     domain.Role("superuser"),
		})
		require.ErrorIs(t, err, ErrInvalidUser)
	})
}

func TestUserDelete(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	adminID := env.createUser(t, "root", "password1", domain.RoleAdmin)
	targetID := env.createUser(t, "nina", "password1", domain.RoleUser)

	actor := session.Entry{UserID: adminID, Username: "root", Role: domain.RoleAdmin}

	t.Run("cannot delete self", func(t *testing.T) {
		require.ErrorIs(t, env.Users.Delete(ctx, actor, adminID), ErrCannotDeleteSelf)
	})

	t.Run("delete other user", func(t *testing.T) {
		require.NoError(t, env.Users.Delete(ctx, actor, targetID))

		_, err := env.Users.GetByID(ctx, targetID)
		require.Error(t, err)
	})
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	userID := env.createUser(t, "oscar", "old-password", domain.RoleUser)

	t.Run("wrong current password", func(t *testing.T) {
		require.ErrorIs(t, env.Users.ChangePassword(ctx, userID, "nope", "new-password"), ErrWrongPassword)
	})

	t.Run("weak new password", func(t *testing.T) {
		require.ErrorIs(t, env.Users.ChangePassword(ctx, userID, "old-password", "tiny"), ErrWeakPassword)
	})

	t.Run("success", func(t *testing.T) {
		require.NoError(t, env.Users.ChangePassword(ctx, userID, "old-password", "new-password"))

		_, err := env.Auth.Login(ctx, "oscar", "new-password")
		require.NoError(t, err)
	})
}
