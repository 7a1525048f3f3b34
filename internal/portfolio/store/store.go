package store

import (
	"context"
	"errors"
	"time"

	"github.com/dmorocode/portfolio-sistema/internal/portfolio/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite)
// implement this. It exposes sub-repositories to keep concerns tidy and
// testable.
type Store interface {
	Users() Users
	Projects() Projects
	Categories() Categories
	BackupCodes() BackupCodes
	Activity() Activity

	ApplyMigrations() error

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed. Multi-field
	// state changes (MFA enable/disable, reset-token writes) must go
	// through here so a crash never leaves partial state behind.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store scope.
type Tx interface {
	Users() Users
	Projects() Projects
	Categories() Categories
	BackupCodes() BackupCodes
	Activity() Activity
}

type Users interface {
	// GetByID returns a user by id.
	GetByID(ctx context.Context, id string) (domain.User, error)

	// GetByUsernameOrEmail resolves a login identifier: exact username
	// match or case-insensitive email match.
	GetByUsernameOrEmail(ctx context.Context, identifier string) (domain.User, error)

	// GetByEmail matches on the email address alone, case-insensitively.
	// Password reset uses this so a bare username never resolves.
	GetByEmail(ctx context.Context, email string) (domain.User, error)

	// GetByResetTokenHash returns the user holding the given reset token
	// fingerprint. Expiry is the caller's concern.
	GetByResetTokenHash(ctx context.Context, hash string) (domain.User, error)

	// Create inserts a new user (id is provided by the app via ULID).
	Create(ctx context.Context, u domain.User) error

	// Count returns the total number of users.
	Count(ctx context.Context) (int, error)

	// List returns all users ordered by creation date.
	List(ctx context.Context) ([]domain.User, error)

	// Delete removes a user. Their backup codes go with them (per schema).
	Delete(ctx context.Context, id string) error

	// UpdatePasswordHash sets the password hash and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, id string, newHash string) error

	// SetResetToken writes the reset token fingerprint and its expiry in a
	// single update so the pair is never half-set.
	SetResetToken(ctx context.Context, id string, tokenHash string, expires time.Time) error

	// UpdatePasswordAndClearReset writes the new password hash and clears
	// both reset fields in a single update (single-use consumption).
	UpdatePasswordAndClearReset(ctx context.Context, id string, newHash string) error

	// ClearExpiredResetTokens drops reset fields whose expiry has passed
	// (housekeeping only; validation already checks expiry).
	ClearExpiredResetTokens(ctx context.Context) error

	// EnableMFA stores the TOTP secret and flips mfa_enabled on.
	EnableMFA(ctx context.Context, id string, secret string) error

	// DisableMFA clears mfa_enabled and the secret.
	DisableMFA(ctx context.Context, id string) error
}

type Projects interface {
	GetByID(ctx context.Context, id string) (domain.Project, error)
	Create(ctx context.Context, p domain.Project) error
	List(ctx context.Context, f domain.ProjectFilter) ([]domain.Project, error)

	// Update rewrites title, description, category and cover image.
	Update(ctx context.Context, p domain.Project) error

	Delete(ctx context.Context, id string) error

	// IncrementDownloads bumps the download counter by one.
	IncrementDownloads(ctx context.Context, id string) error
}

type Categories interface {
	GetByID(ctx context.Context, id string) (domain.Category, error)
	Create(ctx context.Context, c domain.Category) error
	List(ctx context.Context) ([]domain.Category, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

type BackupCodes interface {
	// Replace swaps the full backup-code set for a user. Call inside the
	// same transaction that enables MFA.
	Replace(ctx context.Context, userID string, codes []domain.BackupCode) error

	// ListByUser returns the codes in their generated order.
	ListByUser(ctx context.Context, userID string) ([]domain.BackupCode, error)

	// MarkUsed consumes a single unused code (exact match on the stored
	// uppercase form). Returns ErrNotFound if no unused code matches.
	MarkUsed(ctx context.Context, userID string, code string) error

	// DeleteAll removes every code for a user.
	DeleteAll(ctx context.Context, userID string) error
}

type Activity interface {
	// Append writes one audit entry. The log is append-only: there is no
	// update or delete.
	Append(ctx context.Context, e domain.ActivityEntry) error

	// ListRecent returns the newest entries, most recent first.
	ListRecent(ctx context.Context, limit int) ([]domain.ActivityEntry, error)
}
