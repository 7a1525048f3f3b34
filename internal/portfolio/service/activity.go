package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmorocode/portfolio-sistema/internal/portfolio/domain"
	"github.com/dmorocode/portfolio-sistema/internal/portfolio/store"
	"github.com/dmorocode/portfolio-sistema/pkg/idx"
	"github.com/dmorocode/portfolio-sistema/pkg/slogx"
)

const defaultActivityLimit = 50

// ActivityService records and lists audit log entries. Recording is
// best-effort: a failed append never fails the operation that caused it.
type ActivityService struct {
	Store store.Store
}

// Record appends an audit entry. Errors are logged and swallowed so the
// primary operation always wins.
func (s *ActivityService) Record(ctx context.Context, username string, action domain.Action, details string) {
	entry := domain.ActivityEntry{
		ID:        idx.New().String(),
		Username:  username,
		Action:    action,
		Details:   details,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.Store.Activity().Append(ctx, entry); err != nil {
		slogx.FromContext(ctx).Warn("failed to record activity",
			slog.String("action", string(action)),
			slog.String("error", err.Error()),
		)
	}
}

// ListRecent returns the newest entries, most recent first. A limit of
// zero or less falls back to the default page size.
func (s *ActivityService) ListRecent(ctx context.Context, limit int) ([]domain.ActivityEntry, error) {
	if limit <= 0 {
		limit = defaultActivityLimit
	}

	entries, err := s.Store.Activity().ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	return entries, nil
}
