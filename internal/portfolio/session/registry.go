// Package session implements the server-side session registry: an opaque
// bearer token mapped to the identity it was issued for. Two token classes
// exist: temporary tokens issued after a password check but before the MFA
// challenge completes, and final tokens for authenticated sessions.
//
// Expiry is enforced lazily at Lookup time; Sweep exists only for memory
// hygiene and is never the correctness mechanism.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/dmorocode/portfolio-sistema/internal/portfolio/domain"
)

const (
	// TemporaryTTL bounds the window between password success and MFA
	// completion.
	TemporaryTTL = 5 * time.Minute
	// FinalTTL is the lifetime of an authenticated session.
	FinalTTL = 24 * time.Hour
)

var (
	ErrNotFound   = errors.New("session: not found")
	ErrNotPending = errors.New("session: not pending MFA")
)

// Entry is the data held for one issued token. Username and Role are
// denormalized copies so authorization never touches the user store.
type Entry struct {
	Token      string      `json:"-"`
	UserID     string      `json:"user_id"`
	Username   string      `json:"username"`
	Role       domain.Role `json:"role"`
	PendingMFA bool        `json:"pending_mfa"`
	CreatedAt  time.Time   `json:"created_at"`
}

// Expired reports whether the entry has passed its class TTL at now.
func (e Entry) Expired(now time.Time) bool {
	ttl := FinalTTL
	if e.PendingMFA {
		ttl = TemporaryTTL
	}
	return now.After(e.CreatedAt.Add(ttl))
}

// Registry is the session store abstraction. The in-memory driver is the
// reference implementation; the Redis driver allows sessions to be shared
// across processes without touching the authentication flow.
//
// Tokens carry at least 256 bits of entropy and are never reused across
// logins. All operations on a single token appear atomic to concurrent
// callers; Revoke is idempotent.
type Registry interface {
	// IssueTemporary creates a pendingMFA entry and returns its token.
	IssueTemporary(ctx context.Context, userID, username string, role domain.Role) (string, error)

	// IssueFinal creates an authenticated entry and returns its token.
	IssueFinal(ctx context.Context, userID, username string, role domain.Role) (string, error)

	// Promote removes the temporary entry and issues a final token for the
	// same identity. Returns ErrNotFound if the temp token is absent or
	// expired, ErrNotPending if it is already final.
	Promote(ctx context.Context, tempToken string) (string, error)

	// Lookup returns the live entry for a token. Expired entries are
	// removed and reported as ErrNotFound.
	Lookup(ctx context.Context, token string) (Entry, error)

	// Revoke deletes the entry. No error if the token is unknown.
	Revoke(ctx context.Context, token string) error

	// Sweep drops expired entries. Optional hygiene; Lookup already
	// enforces expiry.
	Sweep(ctx context.Context) error

	// Close releases any underlying resources.
	Close() error
}
