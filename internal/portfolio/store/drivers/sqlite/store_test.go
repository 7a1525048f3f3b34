package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/dmorocode/portfolio-sistema/internal/portfolio/domain"
	"github.com/dmorocode/portfolio-sistema/internal/portfolio/store"
	"github.com/dmorocode/portfolio-sistema/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testUser(t *testing.T, username string) domain.User {
	t.Helper()

	now := time.Now().UTC().Truncate(time.Second)
	return domain.User{
		ID:           idx.New().String(),
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "argon2:dummy",
		Role:         domain.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestUsersRepo(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)

	alice := testUser(t, "alice")
	alice.Role = domain.RoleAdmin
	require.NoError(t, s.Users().Create(ctx, alice))

	t.Run("get by id", func(t *testing.T) {
		got, err := s.Users().GetByID(ctx, alice.ID)
		require.NoError(t, err)
		require.Equal(t, alice.Username, got.Username)
		require.Equal(t, domain.RoleAdmin, got.Role)
		require.Nil(t, got.ResetTokenHash)
		require.False(t, got.MFAEnabled)
	})

	t.Run("get by username or email", func(t *testing.T) {
		byName, err := s.Users().GetByUsernameOrEmail(ctx, "alice")
		require.NoError(t, err)
		require.Equal(t, alice.ID, byName.ID)

		// email matches case-insensitively
		byEmail, err := s.Users().GetByUsernameOrEmail(ctx, "ALICE@Example.COM")
		require.NoError(t, err)
		require.Equal(t, alice.ID, byEmail.ID)
	})

	t.Run("unknown identifier", func(t *testing.T) {
		_, err := s.Users().GetByUsernameOrEmail(ctx, "nobody")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("get by email only", func(t *testing.T) {
		byEmail, err := s.Users().GetByEmail(ctx, "Alice@Example.COM")
		require.NoError(t, err)
		require.Equal(t, alice.ID, byEmail.ID)

		// a username never matches here
		_, err = s.Users().GetByEmail(ctx, "alice")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("duplicate username", func(t *testing.T) {
		dup := testUser(t, "alice")
		require.ErrorIs(t, s.Users().Create(ctx, dup), store.ErrAlreadyExists)
	})

	t.Run("reset token round trip", func(t *testing.T) {
		expires := time.Now().UTC().Add(time.Hour).Truncate(time.Second)
		require.NoError(t, s.Users().SetResetToken(ctx, alice.ID, "fingerprint", expires))

		got, err := s.Users().GetByResetTokenHash(ctx, "fingerprint")
		require.NoError(t, err)
		require.Equal(t, alice.ID, got.ID)
		require.NotNil(t, got.ResetTokenExpires)

		require.NoError(t, s.Users().UpdatePasswordAndClearReset(ctx, alice.ID, "argon2:new"))

		_, err = s.Users().GetByResetTokenHash(ctx, "fingerprint")
		require.ErrorIs(t, err, store.ErrNotFound)

		got, err = s.Users().GetByID(ctx, alice.ID)
		require.NoError(t, err)
		require.Equal(t, "argon2:new", got.PasswordHash)
		require.Nil(t, got.ResetTokenHash)
		require.Nil(t, got.ResetTokenExpires)
	})

	t.Run("clear expired reset tokens", func(t *testing.T) {
		expired := time.Now().UTC().Add(-time.Minute)
		require.NoError(t, s.Users().SetResetToken(ctx, alice.ID, "stale", expired))
		require.NoError(t, s.Users().ClearExpiredResetTokens(ctx))

		_, err := s.Users().GetByResetTokenHash(ctx, "stale")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("mfa enable and disable", func(t *testing.T) {
		require.NoError(t, s.Users().EnableMFA(ctx, alice.ID, "JBSWY3DPEHPK3PXP"))

		got, err := s.Users().GetByID(ctx, alice.ID)
		require.NoError(t, err)
		require.True(t, got.MFAEnabled)
		require.NotNil(t, got.MFASecret)

		require.NoError(t, s.Users().DisableMFA(ctx, alice.ID))

		got, err = s.Users().GetByID(ctx, alice.ID)
		require.NoError(t, err)
		require.False(t, got.MFAEnabled)
		require.Nil(t, got.MFASecret)
	})

	t.Run("count and list", func(t *testing.T) {
		n, err := s.Users().Count(ctx)
		require.NoError(t, err)
		require.Equal(t, 1, n)

		users, err := s.Users().List(ctx)
		require.NoError(t, err)
		require.Len(t, users, 1)
	})

	t.Run("delete", func(t *testing.T) {
		bob := testUser(t, "bob")
		require.NoError(t, s.Users().Create(ctx, bob))
		require.NoError(t, s.Users().Delete(ctx, bob.ID))
		require.ErrorIs(t, s.Users().Delete(ctx, bob.ID), store.ErrNotFound)
	})
}

func TestProjectsRepo(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)

	owner := testUser(t, "owner")
	require.NoError(t, s.Users().Create(ctx, owner))

	now := time.Now().UTC().Truncate(time.Second)
	cat := domain.Category{ID: idx.New().String(), Name: "Games", CreatedAt: now}
	require.NoError(t, s.Categories().Create(ctx, cat))

	makeProject := func(title, desc string, categoryID *string) domain.Project {
		return domain.Project{
			ID:          idx.New().String(),
			Title:       title,
			Description: desc,
			Filename:    "artifact.zip",
			CategoryID:  categoryID,
			OwnerID:     owner.ID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
	}

	first := makeProject("Space Shooter", "a retro arcade game", &cat.ID)
	second := makeProject("Budget Tool", "track your spending", nil)
	require.NoError(t, s.Projects().Create(ctx, first))
	require.NoError(t, s.Projects().Create(ctx, second))

	t.Run("list all", func(t *testing.T) {
		projects, err := s.Projects().List(ctx, domain.ProjectFilter{})
		require.NoError(t, err)
		require.Len(t, projects, 2)
	})

	t.Run("filter by search", func(t *testing.T) {
		projects, err := s.Projects().List(ctx, domain.ProjectFilter{Search: "arcade"})
		require.NoError(t, err)
		require.Len(t, projects, 1)
		require.Equal(t, first.ID, projects[0].ID)
	})

	t.Run("filter by category", func(t *testing.T) {
		projects, err := s.Projects().List(ctx, domain.ProjectFilter{CategoryID: cat.ID})
		require.NoError(t, err)
		require.Len(t, projects, 1)
		require.Equal(t, first.ID, projects[0].ID)
	})

	t.Run("increment downloads", func(t *testing.T) {
		require.NoError(t, s.Projects().IncrementDownloads(ctx, first.ID))
		require.NoError(t, s.Projects().IncrementDownloads(ctx, first.ID))

		got, err := s.Projects().GetByID(ctx, first.ID)
		require.NoError(t, err)
		require.EqualValues(t, 2, got.Downloads)
	})

	t.Run("update", func(t *testing.T) {
		second.Title = "Budget Tool v2"
		second.CategoryID = &cat.ID
		require.NoError(t, s.Projects().Update(ctx, second))

		got, err := s.Projects().GetByID(ctx, second.ID)
		require.NoError(t, err)
		require.Equal(t, "Budget Tool v2", got.Title)
		require.NotNil(t, got.CategoryID)
	})

	t.Run("category delete sets projects to null", func(t *testing.T) {
		require.NoError(t, s.Categories().Delete(ctx, cat.ID))

		got, err := s.Projects().GetByID(ctx, first.ID)
		require.NoError(t, err)
		require.Nil(t, got.CategoryID)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, s.Projects().Delete(ctx, second.ID))
		_, err := s.Projects().GetByID(ctx, second.ID)
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestBackupCodesRepo(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)

	user := testUser(t, "carol")
	require.NoError(t, s.Users().Create(ctx, user))

	codes := []domain.BackupCode{
		{Code: "A1B2C3D4"},
		{Code: "E5F6A7B8"},
		{Code: "C9D0E1F2"},
	}
	require.NoError(t, s.BackupCodes().Replace(ctx, user.ID, codes))

	t.Run("list preserves order", func(t *testing.T) {
		got, err := s.BackupCodes().ListByUser(ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, got, 3)
		require.Equal(t, "A1B2C3D4", got[0].Code)
		require.Equal(t, "C9D0E1F2", got[2].Code)
	})

	t.Run("mark used is single use", func(t *testing.T) {
		require.NoError(t, s.BackupCodes().MarkUsed(ctx, user.ID, "E5F6A7B8"))
		require.ErrorIs(t, s.BackupCodes().MarkUsed(ctx, user.ID, "E5F6A7B8"), store.ErrNotFound)
	})

	t.Run("unknown code", func(t *testing.T) {
		require.ErrorIs(t, s.BackupCodes().MarkUsed(ctx, user.ID, "FFFFFFFF"), store.ErrNotFound)
	})

	t.Run("replace swaps the full set", func(t *testing.T) {
		require.NoError(t, s.BackupCodes().Replace(ctx, user.ID, []domain.BackupCode{{Code: "00112233"}}))

		got, err := s.BackupCodes().ListByUser(ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, got, 1)
		require.False(t, got[0].Used)
	})

	t.Run("user delete cascades", func(t *testing.T) {
		require.NoError(t, s.Users().Delete(ctx, user.ID))

		got, err := s.BackupCodes().ListByUser(ctx, user.ID)
		require.NoError(t, err)
		require.Empty(t, got)
	})
}

func TestActivityRepo(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)

	base := time.Now().UTC().Truncate(time.Second)
	for i, action := range []domain.Action{domain.ActionLogin, domain.ActionProjectUpload, domain.ActionLogout} {
		entry := domain.ActivityEntry{
			ID:        idx.New().String(),
			Username:  "alice",
			Action:    action,
			Details:   "entry",
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, s.Activity().Append(ctx, entry))
	}

	entries, err := s.Activity().ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, domain.ActionLogout, entries[0].Action)
	require.Equal(t, domain.ActionProjectUpload, entries[1].Action)
}

func TestWithTx(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)

	user := testUser(t, "dave")
	require.NoError(t, s.Users().Create(ctx, user))

	t.Run("rolls back on error", func(t *testing.T) {
		err := s.WithTx(ctx, func(tx store.Tx) error {
			if err := tx.Users().EnableMFA(ctx, user.ID, "SECRET"); err != nil {
				return err
			}
			return context.Canceled
		})
		require.ErrorIs(t, err, context.Canceled)

		got, err := s.Users().GetByID(ctx, user.ID)
		require.NoError(t, err)
		require.False(t, got.MFAEnabled)
	})

	t.Run("commits on success", func(t *testing.T) {
		err := s.WithTx(ctx, func(tx store.Tx) error {
			if err := tx.Users().EnableMFA(ctx, user.ID, "SECRET"); err != nil {
				return err
			}
			return tx.BackupCodes().Replace(ctx, user.ID, []domain.BackupCode{{Code: "AABBCCDD"}})
		})
		require.NoError(t, err)

		got, err := s.Users().GetByID(ctx, user.ID)
		require.NoError(t, err)
		require.True(t, got.MFAEnabled)

		codes, err := s.BackupCodes().ListByUser(ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, codes, 1)
	})
}
