package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmorocode/portfolio-sistema/internal/portfolio/domain"
	"github.com/dmorocode/portfolio-sistema/internal/portfolio/store"
	"github.com/dmorocode/portfolio-sistema/pkg/idx"
)

var (
	ErrInvalidCategory = errors.New("invalid category data")
	ErrCategoryExists  = errors.New("category already exists")
)

type CategoryService struct {
	Store    store.Store
	Activity *ActivityService
}

func (s *CategoryService) Create(ctx context.Context, actor, name string) (domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Category{}, ErrInvalidCategory
	}

	category := domain.Category{
		ID:        idx.New().String(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.Store.Categories().Create(ctx, category); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.Category{}, ErrCategoryExists
		}
		return domain.Category{}, fmt.Errorf("failed to create category: %w", err)
	}

	s.Activity.Record(ctx, actor, domain.ActionCategoryCreate, name)
	return category, nil
}

func (s *CategoryService) List(ctx context.Context) ([]domain.Category, error) {
	categories, err := s.Store.Categories().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// Delete removes a category. Projects referencing it fall back to
// uncategorized (the schema nulls the reference).
func (s *CategoryService) Delete(ctx context.Context, actor, id string) error {
	category, err := s.Store.Categories().GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.Store.Categories().Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}

	s.Activity.Record(ctx, actor, domain.ActionCategoryDelete, category.Name)
	return nil
}
