package mail

import (
	"context"
	"log/slog"

	"github.com/dmorocode/portfolio-sistema/pkg/slogx"
)

// Log is the development fallback when no SMTP relay is configured. It
// writes the message to the log instead of delivering it, so reset links
// stay reachable during local development.
type Log struct{}

func NewLog() *Log { return &Log{} }

func (l *Log) Send(ctx context.Context, msg Message) error {
	slogx.FromContext(ctx).Info("smtp not configured, logging email instead",
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
		slog.String("body", msg.HTMLBody),
	)
	return nil
}
