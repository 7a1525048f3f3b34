package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dmorocode/portfolio-sistema/internal/portfolio/domain"
	"github.com/dmorocode/portfolio-sistema/internal/portfolio/store"
	"github.com/dmorocode/portfolio-sistema/pkg/cryptox"
	"github.com/dmorocode/portfolio-sistema/pkg/idx"
	"github.com/dmorocode/portfolio-sistema/pkg/slogx"
)

// defaultCategories are seeded on first boot so the project form has
// something to offer before an admin curates the list.
var defaultCategories = []string{
	"Web",
	"Mobile",
	"Desktop",
	"Games",
	"Other",
}

// BootstrapService provisions the initial admin account and the default
// category set on first boot. It is idempotent: reruns on a populated
// database change nothing.
type BootstrapService struct {
	Store store.Store

	AdminUsername string
	AdminEmail    string
	AdminPassword string // generated and logged once when empty
}

func (s *BootstrapService) Run(ctx context.Context) error {
	if err := s.ensureAdmin(ctx); err != nil {
		return err
	}
	return s.ensureCategories(ctx)
}

func (s *BootstrapService) ensureAdmin(ctx context.Context) error {
	l := slogx.FromContext(ctx)

	count, err := s.Store.Users().Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	if count > 0 {
		return nil
	}

	username := strings.TrimSpace(s.AdminUsername)
	if username == "" {
		username = "admin"
	}
	email := strings.ToLower(strings.TrimSpace(s.AdminEmail))
	if email == "" {
		email = "admin@localhost"
	}

	password := s.AdminPassword
	generated := false
	if password == "" {
		password, err = cryptox.GeneratePassword()
		if err != nil {
			return fmt.Errorf("failed to generate admin password: %w", err)
		}
		generated = true
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	now := time.Now().UTC()
	admin := domain.User{
		ID:           idx.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.Store.Users().Create(ctx, admin); err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	if generated {
		// Logged exactly once; change it after first login.
		l.Warn("created initial admin with generated password",
			slog.String("username", username),
			slog.String("password", password),
		)
	} else {
		l.Info("created initial admin user", slog.String("username", username))
	}
	return nil
}

func (s *BootstrapService) ensureCategories(ctx context.Context) error {
	count, err := s.Store.Categories().Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count categories: %w", err)
	}
	if count > 0 {
		return nil
	}

	now := time.Now().UTC()
	for _, name := range defaultCategories {
		category := domain.Category{
			ID:        idx.New().String(),
			Name:      name,
			CreatedAt: now,
		}
		if err := s.Store.Categories().Create(ctx, category); err != nil {
			return fmt.Errorf("failed to seed category %q: %w", name, err)
		}
	}

	slogx.FromContext(ctx).Info("seeded default categories",
		slog.Int("count", len(defaultCategories)),
	)
	return nil
}
