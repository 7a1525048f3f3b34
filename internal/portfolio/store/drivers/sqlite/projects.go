package sqlite

import (
	"context"
	"database/sql"

	"github.com/dmorocode/portfolio-sistema/internal/portfolio/domain"
	"github.com/dmorocode/portfolio-sistema/internal/portfolio/store"
)

type projectsRepo struct {
	q querier
}

const projectColumns = `id, title, description, filename, cover_image,
	category_id, owner_id, downloads, created_at, updated_at`

func scanProject(row interface{ Scan(dest ...any) error }) (domain.Project, error) {
	var (
		p          domain.Project
		coverImage sql.NullString
		categoryID sql.NullString
	)

	err := row.Scan(
		&p.ID, &p.Title, &p.Description, &p.Filename, &coverImage,
		&categoryID, &p.OwnerID, &p.Downloads, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return domain.Project{}, mapNotFound(err)
	}

	p.CoverImage = mapNullString(coverImage)
	p.CategoryID = mapNullString(categoryID)
	return p, nil
}

func (r *projectsRepo) GetByID(ctx context.Context, id string) (domain.Project, error) {
	return scanProject(r.q.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = ?`, id))
}

func (r *projectsRepo) Create(ctx context.Context, p domain.Project) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO projects (id, title, description, filename, cover_image,
			category_id, owner_id, downloads, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Title, p.Description, p.Filename, mapOptionalString(p.CoverImage),
		mapOptionalString(p.CategoryID), p.OwnerID, p.Downloads,
		p.CreatedAt, p.UpdatedAt,
	)
	return mapConstraint(err)
}

func (r *projectsRepo) List(ctx context.Context, f domain.ProjectFilter) ([]domain.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE 1 = 1`
	var args []any

	if f.Search != "" {
		query += ` AND (title LIKE ? OR description LIKE ?)`
		like := "%" + f.Search + "%"
		args = append(args, like, like)
	}
	if f.CategoryID != "" {
		query += ` AND category_id = ?`
		args = append(args, f.CategoryID)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []domain.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (r *projectsRepo) Update(ctx context.Context, p domain.Project) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE projects
		SET title = ?, description = ?, category_id = ?, cover_image = ?,
			updated_at = ?
		WHERE id = ?`,
		p.Title, p.Description, mapOptionalString(p.CategoryID),
		mapOptionalString(p.CoverImage), now(), p.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *projectsRepo) Delete(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *projectsRepo) IncrementDownloads(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE projects SET downloads = downloads + 1 WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}
