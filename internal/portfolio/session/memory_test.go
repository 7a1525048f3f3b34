package session

import (
	"context"
	"testing"
	"time"

	"github.com/dmorocode/portfolio-sistema/internal/portfolio/domain"
	"github.com/stretchr/testify/require"
)

func TestMemoryIssueAndLookup(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	reg := NewMemory()

	token, err := reg.IssueFinal(ctx, "u1", "alice", domain.RoleUser)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	entry, err := reg.Lookup(ctx, token)
	require.NoError(t, err)
	require.Equal(t, "u1", entry.UserID)
	require.Equal(t, "alice", entry.Username)
	require.Equal(t, domain.RoleUser, entry.Role)
	require.False(t, entry.PendingMFA)
}

func TestMemoryTokensAreUnique(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	reg := NewMemory()

	seen := make(map[string]struct{})
	for range 50 {
		token, err := reg.IssueFinal(ctx, "u1", "alice", domain.RoleUser)
		require.NoError(t, err)
		_, dup := seen[token]
		require.False(t, dup, "token reuse across logins")
		seen[token] = struct{}{}
	}
}

func TestMemoryPromote(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	reg := NewMemory()

	temp, err := reg.IssueTemporary(ctx, "u2", "bob", domain.RoleAdmin)
	require.NoError(t, err)

	entry, err := reg.Lookup(ctx, temp)
	require.NoError(t, err)
	require.True(t, entry.PendingMFA)

	final, err := reg.Promote(ctx, temp)
	require.NoError(t, err)
	require.NotEqual(t, temp, final)

	// Temp token is gone, final carries the same identity.
	_, err = reg.Lookup(ctx, temp)
	require.ErrorIs(t, err, ErrNotFound)

	entry, err = reg.Lookup(ctx, final)
	require.NoError(t, err)
	require.False(t, entry.PendingMFA)
	require.Equal(t, "u2", entry.UserID)
	require.Equal(t, domain.RoleAdmin, entry.Role)
}

func TestMemoryPromoteErrors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	reg := NewMemory()

	_, err := reg.Promote(ctx, "no-such-token")
	require.ErrorIs(t, err, ErrNotFound)

	final, err := reg.IssueFinal(ctx, "u1", "alice", domain.RoleUser)
	require.NoError(t, err)

	_, err = reg.Promote(ctx, final)
	require.ErrorIs(t, err, ErrNotPending)
}

func TestMemoryRevokeIsIdempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	reg := NewMemory()

	token, err := reg.IssueFinal(ctx, "u1", "alice", domain.RoleUser)
	require.NoError(t, err)

	require.NoError(t, reg.Revoke(ctx, token))
	require.NoError(t, reg.Revoke(ctx, token))

	_, err = reg.Lookup(ctx, token)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryLazyExpiry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	now := time.Now()
	reg := NewMemory()
	reg.now = func() time.Time { return now }

	temp, err := reg.IssueTemporary(ctx, "u1", "alice", domain.RoleAdmin)
	require.NoError(t, err)
	final, err := reg.IssueFinal(ctx, "u1", "alice", domain.RoleAdmin)
	require.NoError(t, err)

	// Just before the temporary window closes both are live.
	now = now.Add(TemporaryTTL - time.Second)
	_, err = reg.Lookup(ctx, temp)
	require.NoError(t, err)

	// Past 5 minutes the temporary token is dead; promoting it fails too.
	now = now.Add(2 * time.Second)
	_, err = reg.Lookup(ctx, temp)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = reg.Promote(ctx, temp)
	require.ErrorIs(t, err, ErrNotFound)

	// The final token lives until 24 hours pass.
	_, err = reg.Lookup(ctx, final)
	require.NoError(t, err)

	now = now.Add(FinalTTL)
	_, err = reg.Lookup(ctx, final)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemorySweep(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	now := time.Now()
	reg := NewMemory()
	reg.now = func() time.Time { return now }

	_, err := reg.IssueTemporary(ctx, "u1", "alice", domain.RoleAdmin)
	require.NoError(t, err)
	live, err := reg.IssueFinal(ctx, "u1", "alice", domain.RoleAdmin)
	require.NoError(t, err)
	require.Equal(t, 2, reg.Len())

	now = now.Add(TemporaryTTL + time.Minute)
	require.NoError(t, reg.Sweep(ctx))
	require.Equal(t, 1, reg.Len())

	_, err = reg.Lookup(ctx, live)
	require.NoError(t, err)
}
