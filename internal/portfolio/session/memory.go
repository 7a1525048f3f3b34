package session

import (
	"context"
	"sync"
	"time"

	"github.com/dmorocode/portfolio-sistema/internal/portfolio/domain"
	"github.com/dmorocode/portfolio-sistema/pkg/cryptox"
)

// Memory is the process-local Registry: a mutex-guarded map. All sessions
// are lost on restart, which doubles as a full invalidation.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]Entry

	// now is swappable in tests to exercise expiry.
	now func() time.Time
}

var _ Registry = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]Entry),
		now:     time.Now,
	}
}

func (m *Memory) IssueTemporary(_ context.Context, userID, username string, role domain.Role) (string, error) {
	return m.issue(userID, username, role, true)
}

func (m *Memory) IssueFinal(_ context.Context, userID, username string, role domain.Role) (string, error) {
	return m.issue(userID, username, role, false)
}

func (m *Memory) issue(userID, username string, role domain.Role, pending bool) (string, error) {
	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	m.entries[token] = Entry{
		Token:      token,
		UserID:     userID,
		Username:   username,
		Role:       role,
		PendingMFA: pending,
		CreatedAt:  m.now(),
	}
	m.mu.Unlock()

	return token, nil
}

func (m *Memory) Promote(_ context.Context, tempToken string) (string, error) {
	newToken, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[tempToken]
	if !ok || entry.Expired(m.now()) {
		delete(m.entries, tempToken)
		return "", ErrNotFound
	}
	if !entry.PendingMFA {
		return "", ErrNotPending
	}

	delete(m.entries, tempToken)
	m.entries[newToken] = Entry{
		Token:      newToken,
		UserID:     entry.UserID,
		Username:   entry.Username,
		Role:       entry.Role,
		PendingMFA: false,
		CreatedAt:  m.now(),
	}

	return newToken, nil
}

func (m *Memory) Lookup(_ context.Context, token string) (Entry, error) {
	m.mu.RLock()
	entry, ok := m.entries[token]
	m.mu.RUnlock()

	if !ok {
		return Entry{}, ErrNotFound
	}
	if entry.Expired(m.now()) {
		// Lazy expiry: drop the dead entry on the way out.
		m.mu.Lock()
		delete(m.entries, token)
		m.mu.Unlock()
		return Entry{}, ErrNotFound
	}
	return entry, nil
}

func (m *Memory) Revoke(_ context.Context, token string) error {
	m.mu.Lock()
	delete(m.entries, token)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Sweep(_ context.Context) error {
	now := m.now()

	m.mu.Lock()
	for token, entry := range m.entries {
		if entry.Expired(now) {
			delete(m.entries, token)
		}
	}
	m.mu.Unlock()
	return nil
}

func (m *Memory) Close() error { return nil }

// Len reports the number of live and expired entries currently held.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
