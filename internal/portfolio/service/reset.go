package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/dmorocode/portfolio-sistema/internal/portfolio/domain"
	"github.com/dmorocode/portfolio-sistema/internal/portfolio/mail"
	"github.com/dmorocode/portfolio-sistema/internal/portfolio/store"
	"github.com/dmorocode/portfolio-sistema/pkg/cryptox"
	"github.com/dmorocode/portfolio-sistema/pkg/slogx"
)

const (
	// resetTokenTTL bounds how long a reset link stays valid.
	resetTokenTTL = time.Hour

	minPasswordLength = 6
)

var (
	ErrInvalidResetToken   = errors.New("invalid or expired reset token")
	ErrWeakPassword        = fmt.Errorf("password must be at least %d characters", minPasswordLength)
	ErrEmailDeliveryFailed = errors.New("failed to deliver reset email")
)

// ResetService implements the password reset flow: request a link by
// email, validate the token, consume it with a new password. Only token
// fingerprints are stored; the plaintext token exists in the email alone.
type ResetService struct {
	Store    store.Store
	Mailer   mail.Mailer
	Activity *ActivityService
	BaseURL  string // public URL of the frontend, e.g. "https://portfolio.example.com"
}

// RequestReset issues a reset token for the account holding the given
// email. Unknown addresses return nil so the response reveals nothing
// about account existence. A failed send returns ErrEmailDeliveryFailed
// with the token already committed: it stays valid until its natural
// expiry even though the email never arrived.
func (s *ResetService) RequestReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil
	}

	user, err := s.Store.Users().GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to look up user: %w", err)
	}

	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}

	expires := time.Now().UTC().Add(resetTokenTTL)
	hash := cryptox.FingerprintToken(token)
	if err := s.Store.Users().SetResetToken(ctx, user.ID, hash, expires); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	s.Activity.Record(ctx, user.Username, domain.ActionPasswordResetRequest, "")

	msg := mail.ResetEmail(user.Email, user.Username, s.resetURL(token))
	if err := s.Mailer.Send(ctx, msg); err != nil {
		slogx.FromContext(ctx).Error("failed to send reset email",
			slog.String("error", err.Error()),
		)
		return ErrEmailDeliveryFailed
	}

	return nil
}

// ValidateToken reports whether a reset token is live without consuming
// it. Used by the frontend before showing the new-password form.
func (s *ResetService) ValidateToken(ctx context.Context, token string) error {
	_, err := s.liveUserForToken(ctx, token)
	return err
}

// ConsumeToken sets the new password and clears the reset fields in a
// single update, so a token can never be spent twice.
func (s *ResetService) ConsumeToken(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return ErrWeakPassword
	}

	user, err := s.liveUserForToken(ctx, token)
	if err != nil {
		return err
	}

	hash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.Store.Users().UpdatePasswordAndClearReset(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	s.Activity.Record(ctx, user.Username, domain.ActionPasswordResetSuccess, "")
	return nil
}

func (s *ResetService) liveUserForToken(ctx context.Context, token string) (domain.User, error) {
	if token == "" {
		return domain.User{}, ErrInvalidResetToken
	}

	user, err := s.Store.Users().GetByResetTokenHash(ctx, cryptox.FingerprintToken(token))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrInvalidResetToken
		}
		return domain.User{}, fmt.Errorf("failed to look up reset token: %w", err)
	}

	if user.ResetTokenExpires == nil || time.Now().UTC().After(*user.ResetTokenExpires) {
		return domain.User{}, ErrInvalidResetToken
	}
	return user, nil
}

func (s *ResetService) resetURL(token string) string {
	return strings.TrimRight(s.BaseURL, "/") + "/reset-password?token=" + url.QueryEscape(token)
}
