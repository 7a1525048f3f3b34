package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/dmorocode/portfolio-sistema/internal/portfolio/domain"
	"github.com/dmorocode/portfolio-sistema/internal/portfolio/store"
	"github.com/dmorocode/portfolio-sistema/internal/portfolio/upload"
	"github.com/dmorocode/portfolio-sistema/pkg/idx"
	"github.com/dmorocode/portfolio-sistema/pkg/slogx"
)

var (
	ErrInvalidProject  = errors.New("invalid project data")
	ErrUnknownCategory = errors.New("unknown category")
)

type ProjectService struct {
	Store    store.Store
	Files    upload.FileStore
	Activity *ActivityService
}

// CreateProjectParams carries a new project plus its uploaded files. The
// artifact is mandatory, the cover image optional.
type CreateProjectParams struct {
	Title       string
	Description string
	CategoryID  *string
	OwnerID     string

	ArtifactName string
	Artifact     io.Reader

	CoverName string
	Cover     io.Reader // nil when no cover uploaded
}

func (s *ProjectService) Create(ctx context.Context, actor string, p CreateProjectParams) (domain.Project, error) {
	p.Title = strings.TrimSpace(p.Title)
	if p.Title == "" || p.Artifact == nil {
		return domain.Project{}, ErrInvalidProject
	}

	if err := s.checkCategory(ctx, p.CategoryID); err != nil {
		return domain.Project{}, err
	}

	filename, err := s.Files.Save(upload.KindProject, p.ArtifactName, p.Artifact)
	if err != nil {
		return domain.Project{}, fmt.Errorf("failed to store artifact: %w", err)
	}

	var coverImage *string
	if p.Cover != nil {
		name, err := s.Files.Save(upload.KindCover, p.CoverName, p.Cover)
		if err != nil {
			_ = s.Files.Remove(upload.KindProject, filename)
			return domain.Project{}, fmt.Errorf("failed to store cover image: %w", err)
		}
		coverImage = &name
	}

	now := time.Now().UTC()
	project := domain.Project{
		ID:          idx.New().String(),
		Title:       p.Title,
		Description: strings.TrimSpace(p.Description),
		Filename:    filename,
		CoverImage:  coverImage,
		CategoryID:  p.CategoryID,
		OwnerID:     p.OwnerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.Store.Projects().Create(ctx, project); err != nil {
		_ = s.Files.Remove(upload.KindProject, filename)
		if coverImage != nil {
			_ = s.Files.Remove(upload.KindCover, *coverImage)
		}
		return domain.Project{}, fmt.Errorf("failed to create project: %w", err)
	}

	s.Activity.Record(ctx, actor, domain.ActionProjectUpload, project.Title)
	return project, nil
}

func (s *ProjectService) List(ctx context.Context, f domain.ProjectFilter) ([]domain.Project, error) {
	projects, err := s.Store.Projects().List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

func (s *ProjectService) GetByID(ctx context.Context, id string) (domain.Project, error) {
	return s.Store.Projects().GetByID(ctx, id)
}

// UpdateProjectParams rewrites a project's metadata. A non-nil Cover
// replaces the existing cover image.
type UpdateProjectParams struct {
	Title       string
	Description string
	CategoryID  *string

	CoverName string
	Cover     io.Reader
}

func (s *ProjectService) Update(ctx context.Context, actor, id string, p UpdateProjectParams) (domain.Project, error) {
	project, err := s.Store.Projects().GetByID(ctx, id)
	if err != nil {
		return domain.Project{}, err
	}

	p.Title = strings.TrimSpace(p.Title)
	if p.Title == "" {
		return domain.Project{}, ErrInvalidProject
	}
	if err := s.checkCategory(ctx, p.CategoryID); err != nil {
		return domain.Project{}, err
	}

	oldCover := project.CoverImage
	if p.Cover != nil {
		name, err := s.Files.Save(upload.KindCover, p.CoverName, p.Cover)
		if err != nil {
			return domain.Project{}, fmt.Errorf("failed to store cover image: %w", err)
		}
		project.CoverImage = &name
	}

	project.Title = p.Title
	project.Description = strings.TrimSpace(p.Description)
	project.CategoryID = p.CategoryID

	if err := s.Store.Projects().Update(ctx, project); err != nil {
		if p.Cover != nil && project.CoverImage != nil {
			_ = s.Files.Remove(upload.KindCover, *project.CoverImage)
		}
		return domain.Project{}, fmt.Errorf("failed to update project: %w", err)
	}

	if p.Cover != nil && oldCover != nil {
		_ = s.Files.Remove(upload.KindCover, *oldCover)
	}

	s.Activity.Record(ctx, actor, domain.ActionProjectEdit, project.Title)
	return project, nil
}

func (s *ProjectService) Delete(ctx context.Context, actor, id string) error {
	project, err := s.Store.Projects().GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.Store.Projects().Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	// Files go after the row: a leaked file is recoverable, a dangling
	// row pointing at nothing is not.
	if err := s.Files.Remove(upload.KindProject, project.Filename); err != nil {
		slogx.FromContext(ctx).Warn("failed to remove project artifact",
			slog.String("filename", project.Filename),
			slog.String("error", err.Error()),
		)
	}
	if project.CoverImage != nil {
		if err := s.Files.Remove(upload.KindCover, *project.CoverImage); err != nil {
			slogx.FromContext(ctx).Warn("failed to remove cover image",
				slog.String("filename", *project.CoverImage),
				slog.String("error", err.Error()),
			)
		}
	}

	s.Activity.Record(ctx, actor, domain.ActionProjectDelete, project.Title)
	return nil
}

// OpenArtifact returns the stored artifact for download and bumps the
// download counter. The counter is best-effort.
func (s *ProjectService) OpenArtifact(ctx context.Context, actor, id string) (domain.Project, io.ReadSeekCloser, int64, error) {
	project, err := s.Store.Projects().GetByID(ctx, id)
	if err != nil {
		return domain.Project{}, nil, 0, err
	}

	f, size, err := s.Files.Open(upload.KindProject, project.Filename)
	if err != nil {
		return domain.Project{}, nil, 0, fmt.Errorf("failed to open artifact: %w", err)
	}

	if err := s.Store.Projects().IncrementDownloads(ctx, id); err != nil {
		slogx.FromContext(ctx).Warn("failed to increment downloads",
			slog.String("project_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.Activity.Record(ctx, actor, domain.ActionProjectDownload, project.Title)
	return project, f, size, nil
}

// OpenCover returns the stored cover image for display.
func (s *ProjectService) OpenCover(ctx context.Context, id string) (io.ReadSeekCloser, int64, error) {
	project, err := s.Store.Projects().GetByID(ctx, id)
	if err != nil {
		return nil, 0, err
	}
	if project.CoverImage == nil {
		return nil, 0, upload.ErrNotFound
	}
	return s.Files.Open(upload.KindCover, *project.CoverImage)
}

func (s *ProjectService) checkCategory(ctx context.Context, categoryID *string) error {
	if categoryID == nil {
		return nil
	}
	if _, err := s.Store.Categories().GetByID(ctx, *categoryID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUnknownCategory
		}
		return fmt.Errorf("failed to check category: %w", err)
	}
	return nil
}
