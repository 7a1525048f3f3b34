package sqlite

import (
	"context"

	"github.com/dmorocode/portfolio-sistema/internal/portfolio/domain"
	"github.com/dmorocode/portfolio-sistema/internal/portfolio/store"
)

type backupCodesRepo struct {
	q querier
}

func (r *backupCodesRepo) Replace(ctx context.Context, userID string, codes []domain.BackupCode) error {
	if _, err := r.q.ExecContext(ctx,
		`DELETE FROM backup_codes WHERE user_id = ?`, userID); err != nil {
		return err
	}

	ts := now()
	for i, c := range codes {
		_, err := r.q.ExecContext(ctx, `
			INSERT INTO backup_codes (user_id, code, used, position, created_at)
			VALUES (?, ?, ?, ?, ?)`,
			userID, c.Code, c.Used, i, ts)
		if err != nil {
			return mapConstraint(err)
		}
	}
	return nil
}

func (r *backupCodesRepo) ListByUser(ctx context.Context, userID string) ([]domain.BackupCode, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT code, used FROM backup_codes
		WHERE user_id = ? ORDER BY position ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var codes []domain.BackupCode
	for rows.Next() {
		var c domain.BackupCode
		if err := rows.Scan(&c.Code, &c.Used); err != nil {
			return nil, err
		}
		codes = append(codes, c)
	}
	return codes, rows.Err()
}

func (r *backupCodesRepo) MarkUsed(ctx context.Context, userID string, code string) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE backup_codes SET used = 1
		WHERE user_id = ? AND code = ? AND used = 0`,
		userID, code)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *backupCodesRepo) DeleteAll(ctx context.Context, userID string) error {
	_, err := r.q.ExecContext(ctx,
		`DELETE FROM backup_codes WHERE user_id = ?`, userID)
	return err
}
