package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmorocode/portfolio-sistema/internal/portfolio/domain"
	"github.com/dmorocode/portfolio-sistema/internal/portfolio/session"
	"github.com/dmorocode/portfolio-sistema/internal/portfolio/store"
	"github.com/dmorocode/portfolio-sistema/pkg/cryptox"
)

// MFAEnforcement selects which accounts are challenged for a second
// factor at login. The reference behavior gates admins only; "all"
// extends the challenge to every account that has MFA enabled.
type MFAEnforcement string

const (
	MFAEnforceAdmin MFAEnforcement = "admin"
	MFAEnforceAll   MFAEnforcement = "all"
)

func (e MFAEnforcement) Valid() bool {
	return e == MFAEnforceAdmin || e == MFAEnforceAll
}

var (
	// ErrInvalidCredentials covers both unknown identifiers and wrong
	// passwords. Callers must not distinguish the two.
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrUnauthenticated = errors.New("not authenticated")
	ErrForbidden       = errors.New("forbidden")
)

// LoginResult is the outcome of a successful password check. Exactly one
// of the two shapes applies: MFARequired with a temporary token, or an
// authenticated session token.
type LoginResult struct {
	MFARequired bool
	Token       string // temporary when MFARequired, final otherwise
	User        domain.User
}

type AuthService struct {
	Store       store.Store
	Sessions    session.Registry
	Activity    *ActivityService
	MFA         *MFAService
	Enforcement MFAEnforcement
}

// Login checks the identifier/password pair. When the account is gated
// for MFA it issues a five minute temporary session and the caller must
// complete the challenge via CompleteMFA; otherwise a full session is
// issued immediately.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (LoginResult, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return LoginResult{}, ErrInvalidCredentials
	}

	user, err := s.Store.Users().GetByUsernameOrEmail(ctx, identifier)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}

	if s.mfaGated(user) {
		token, err := s.Sessions.IssueTemporary(ctx, user.ID, user.Username, user.Role)
		if err != nil {
			return LoginResult{}, fmt.Errorf("failed to issue temporary session: %w", err)
		}
		return LoginResult{MFARequired: true, Token: token, User: user}, nil
	}

	token, err := s.Sessions.IssueFinal(ctx, user.ID, user.Username, user.Role)
	if err != nil {
		return LoginResult{}, fmt.Errorf("failed to issue session: %w", err)
	}

	s.Activity.Record(ctx, user.Username, domain.ActionLogin, "")
	return LoginResult{Token: token, User: user}, nil
}

// CompleteMFA exchanges a temporary session plus a valid second factor
// for a full session. The code is either a six digit TOTP or an eight
// character backup code.
func (s *AuthService) CompleteMFA(ctx context.Context, tempToken, code string) (LoginResult, error) {
	entry, err := s.Sessions.Lookup(ctx, tempToken)
	if err != nil {
		return LoginResult{}, ErrUnauthenticated
	}
	if !entry.PendingMFA {
		return LoginResult{}, ErrUnauthenticated
	}

	user, err := s.Store.Users().GetByID(ctx, entry.UserID)
	if err != nil {
		return LoginResult{}, ErrUnauthenticated
	}

	if err := s.MFA.VerifyLogin(ctx, user, code); err != nil {
		s.Activity.Record(ctx, user.Username, domain.ActionMFALoginFailed, "")
		return LoginResult{}, err
	}

	token, err := s.Sessions.Promote(ctx, tempToken)
	if err != nil {
		return LoginResult{}, ErrUnauthenticated
	}

	s.Activity.Record(ctx, user.Username, domain.ActionMFALoginSuccess, "")
	return LoginResult{Token: token, User: user}, nil
}

// Logout revokes the session. Unknown tokens are a no-op so logout is
// always safe to retry.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	entry, err := s.Sessions.Lookup(ctx, token)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to look up session: %w", err)
	}

	if err := s.Sessions.Revoke(ctx, token); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}

	if !entry.PendingMFA {
		s.Activity.Record(ctx, entry.Username, domain.ActionLogout, "")
	}
	return nil
}

// Authorize resolves a token to an authenticated session. Temporary
// (pendingMFA) sessions never authorize anything.
func (s *AuthService) Authorize(ctx context.Context, token string) (session.Entry, error) {
	if token == "" {
		return session.Entry{}, ErrUnauthenticated
	}

	entry, err := s.Sessions.Lookup(ctx, token)
	if err != nil {
		return session.Entry{}, ErrUnauthenticated
	}
	if entry.PendingMFA {
		return session.Entry{}, ErrUnauthenticated
	}
	return entry, nil
}

// RequireAdmin is Authorize plus a role check.
func (s *AuthService) RequireAdmin(ctx context.Context, token string) (session.Entry, error) {
	entry, err := s.Authorize(ctx, token)
	if err != nil {
		return session.Entry{}, err
	}
	if entry.Role != domain.RoleAdmin {
		return session.Entry{}, ErrForbidden
	}
	return entry, nil
}

func (s *AuthService) mfaGated(user domain.User) bool {
	if !user.MFAEnabled {
		return false
	}
	if s.Enforcement == MFAEnforceAll {
		return true
	}
	return user.Role == domain.RoleAdmin
}
