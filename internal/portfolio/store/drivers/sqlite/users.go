package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/dmorocode/portfolio-sistema/internal/portfolio/domain"
	"github.com/dmorocode/portfolio-sistema/internal/portfolio/store"
)

type usersRepo struct {
	q querier
}

const userColumns = `id, username, email, password_hash, role,
	reset_token_hash, reset_token_expires, mfa_enabled, mfa_secret,
	created_at, updated_at`

func scanUser(row interface{ Scan(dest ...any) error }) (domain.User, error) {
	var (
		u           domain.User
		role        string
		resetHash   sql.NullString
		resetExpiry sql.NullTime
		mfaSecret   sql.NullString
	)

	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &role,
		&resetHash, &resetExpiry, &u.MFAEnabled, &mfaSecret,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}

	u.Role = domain.Role(role)
	u.ResetTokenHash = mapNullString(resetHash)
	u.ResetTokenExpires = mapNullTime(resetExpiry)
	u.MFASecret = mapNullString(mfaSecret)
	return u, nil
}

func (r *usersRepo) GetByID(ctx context.Context, id string) (domain.User, error) {
	return scanUser(r.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

func (r *usersRepo) GetByUsernameOrEmail(ctx context.Context, identifier string) (domain.User, error) {
	// email is COLLATE NOCASE so the second predicate matches
	// case-insensitively.
	return scanUser(r.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ? OR email = ?`,
		identifier, identifier))
}

func (r *usersRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	return scanUser(r.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email))
}

func (r *usersRepo) GetByResetTokenHash(ctx context.Context, hash string) (domain.User, error) {
	return scanUser(r.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE reset_token_hash = ?`, hash))
}

func (r *usersRepo) Create(ctx context.Context, u domain.User) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO users (id, username, email, password_hash, role,
			mfa_enabled, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Username, u.Email, u.PasswordHash, string(u.Role),
		u.MFAEnabled, u.CreatedAt, u.UpdatedAt,
	)
	return mapConstraint(err)
}

func (r *usersRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

func (r *usersRepo) List(ctx context.Context) ([]domain.User, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *usersRepo) Delete(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, id string, newHash string) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		newHash, now(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *usersRepo) SetResetToken(ctx context.Context, id string, tokenHash string, expires time.Time) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE users
		SET reset_token_hash = ?, reset_token_expires = ?, updated_at = ?
		WHERE id = ?`,
		tokenHash, expires, now(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *usersRepo) UpdatePasswordAndClearReset(ctx context.Context, id string, newHash string) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE users
		SET password_hash = ?, reset_token_hash = NULL,
			reset_token_expires = NULL, updated_at = ?
		WHERE id = ?`,
		newHash, now(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *usersRepo) ClearExpiredResetTokens(ctx context.Context) error {
	_, err := r.q.ExecContext(ctx, `
		UPDATE users
		SET reset_token_hash = NULL, reset_token_expires = NULL
		WHERE reset_token_expires IS NOT NULL AND reset_token_expires < ?`,
		now())
	return err
}

func (r *usersRepo) EnableMFA(ctx context.Context, id string, secret string) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE users SET mfa_enabled = 1, mfa_secret = ?, updated_at = ?
		WHERE id = ?`,
		secret, now(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *usersRepo) DisableMFA(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE users SET mfa_enabled = 0, mfa_secret = NULL, updated_at = ?
		WHERE id = ?`,
		now(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}
