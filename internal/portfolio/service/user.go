package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmorocode/portfolio-sistema/internal/portfolio/domain"
	"github.com/dmorocode/portfolio-sistema/internal/portfolio/session"
	"github.com/dmorocode/portfolio-sistema/internal/portfolio/store"
	"github.com/dmorocode/portfolio-sistema/pkg/cryptox"
	"github.com/dmorocode/portfolio-sistema/pkg/idx"
)

var (
	ErrUserExists       = errors.New("username or email already taken")
	ErrInvalidUser      = errors.New("invalid user data")
	ErrCannotDeleteSelf = errors.New("cannot delete your own account")
)

type UserService struct {
	Store    store.Store
	Activity *ActivityService
}

// CreateUserParams is the admin-facing creation input.
type CreateUserParams struct {
	Username string
	Email    string
	Password string
	Role     domain.Role
}

func (s *UserService) Create(ctx context.Context, actor string, p CreateUserParams) (domain.User, error) {
	p.Username = strings.TrimSpace(p.Username)
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	if p.Role == "" {
		p.Role = domain.RoleUser
	}

	if p.Username == "" || !strings.Contains(p.Email, "@") || !p.Role.Valid() {
		return domain.User{}, ErrInvalidUser
	}
	if len(p.Password) < minPasswordLength {
		return domain.User{}, ErrWeakPassword
	}

	hash, err := cryptox.HashPassword(p.Password)
	if err != nil {
		return domain.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	user := domain.User{
		ID:           idx.New().String(),
		Username:     p.Username,
		Email:        p.Email,
		PasswordHash: hash,
		Role:         p.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.Store.Users().Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrUserExists
		}
		return domain.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	s.Activity.Record(ctx, actor, domain.ActionUserCreate, "created user "+user.Username)
	return user, nil
}

func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	users, err := s.Store.Users().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *UserService) GetByID(ctx context.Context, id string) (domain.User, error) {
	return s.Store.Users().GetByID(ctx, id)
}

// Delete removes a user. Actors cannot remove themselves, which keeps at
// least one working admin account around.
func (s *UserService) Delete(ctx context.Context, actor session.Entry, targetID string) error {
	if actor.UserID == targetID {
		return ErrCannotDeleteSelf
	}

	target, err := s.Store.Users().GetByID(ctx, targetID)
	if err != nil {
		return err
	}

	if err := s.Store.Users().Delete(ctx, targetID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	s.Activity.Record(ctx, actor.Username, domain.ActionUserDelete, "deleted user "+target.Username)
	return nil
}

// ChangePassword swaps a user's own password after a fresh check of the
// current one.
func (s *UserService) ChangePassword(ctx context.Context, userID, current, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return ErrWeakPassword
	}

	user, err := s.Store.Users().GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := cryptox.VerifyPassword(current, user.PasswordHash); err != nil {
		return ErrWrongPassword
	}

	hash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.Store.Users().UpdatePasswordHash(ctx, userID, hash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	s.Activity.Record(ctx, user.Username, domain.ActionPasswordChange, "")
	return nil
}
