// Package mail sends transactional email. The only message the service
// sends today is the password reset link; the Mailer interface keeps the
// transport swappable between a real SMTP relay and the log-only
// development fallback.
package mail

import (
	"context"
	"fmt"
	"html"
)

// Message is a single outbound email.
type Message struct {
	To       string
	Subject  string
	HTMLBody string
}

// Mailer delivers messages. Implementations must be safe for concurrent
// use.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// ResetEmail builds the password reset message. resetURL carries the
// plaintext token; only its fingerprint is ever stored server-side.
func ResetEmail(to, username, resetURL string) Message {
	body := fmt.Sprintf(`<h2>Password Reset</h2>
<p>Hello %s,</p>
<p>A password reset was requested for your account. Click the link below to choose a new password:</p>
<p><a href="%s">%s</a></p>
<p>The link is valid for 1 hour. If you did not request a reset, you can ignore this email.</p>`,
		html.EscapeString(username),
		html.EscapeString(resetURL),
		html.EscapeString(resetURL),
	)

	return Message{
		To:       to,
		Subject:  "Password Reset",
		HTMLBody: body,
	}
}
