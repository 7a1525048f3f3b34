package sqlite

import (
	"context"

	"github.com/dmorocode/portfolio-sistema/internal/portfolio/domain"
)

type activityRepo struct {
	q querier
}

func (r *activityRepo) Append(ctx context.Context, e domain.ActivityEntry) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO activity_log (id, username, action, details, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		e.ID, e.Username, string(e.Action), e.Details, e.CreatedAt)
	return err
}

func (r *activityRepo) ListRecent(ctx context.Context, limit int) ([]domain.ActivityEntry, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, username, action, details, created_at
		FROM activity_log ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.ActivityEntry
	for rows.Next() {
		var (
			e      domain.ActivityEntry
			action string
		)
		if err := rows.Scan(&e.ID, &e.Username, &action, &e.Details, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Action = domain.Action(action)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
