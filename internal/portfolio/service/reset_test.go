package service

import (
	"context"
	"net/url"
	"regexp"
	"testing"
	"time"

	"github.com/dmorocode/portfolio-sistema/internal/portfolio/domain"
	"github.com/stretchr/testify/require"
)

var resetLinkRe = regexp.MustCompile(`reset-password\?token=([A-Za-z0-9_%-]+)`)

// tokenFromMail pulls the plaintext reset token out of the captured
// email body.
func tokenFromMail(t *testing.T, body string) string {
	t.Helper()

	m := resetLinkRe.FindStringSubmatch(body)
	require.Len(t, m, 2)
	token, err := url.QueryUnescape(m[1])
	require.NoError(t, err)
	return token
}

func TestRequestReset(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	henryID := env.createUser(t, "henry", "password1", domain.RoleUser)

	t.Run("known email sends a link", func(t *testing.T) {
		require.NoError(t, env.Reset.RequestReset(ctx, "henry@example.com"))
		require.Len(t, env.Mailer.sent, 1)
		require.Equal(t, "henry@example.com", env.Mailer.sent[0].To)
		require.NotEmpty(t, tokenFromMail(t, env.Mailer.sent[0].HTMLBody))
	})

	t.Run("unknown email is indistinguishable", func(t *testing.T) {
		require.NoError(t, env.Reset.RequestReset(ctx, "stranger@example.com"))
		require.Len(t, env.Mailer.sent, 1) // nothing new sent
	})

	t.Run("bare username does not trigger a reset", func(t *testing.T) {
		require.NoError(t, env.Reset.RequestReset(ctx, "henry"))
		require.Len(t, env.Mailer.sent, 1) // nothing new sent
	})

	t.Run("delivery failure surfaces and keeps the token", func(t *testing.T) {
		env.Mailer.fail = true
		defer func() { env.Mailer.fail = false }()
		require.ErrorIs(t, env.Reset.RequestReset(ctx, "henry@example.com"), ErrEmailDeliveryFailed)

		// The token was committed before the send attempt.
		user, err := env.Users.GetByID(ctx, henryID)
		require.NoError(t, err)
		require.NotNil(t, user.ResetTokenHash)
	})
}

func TestConsumeReset(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	env.createUser(t, "iris", "old-password", domain.RoleUser)

	require.NoError(t, env.Reset.RequestReset(ctx, "iris@example.com"))
	token := tokenFromMail(t, env.Mailer.sent[0].HTMLBody)

	t.Run("token validates before use", func(t *testing.T) {
		require.NoError(t, env.Reset.ValidateToken(ctx, token))
	})

	t.Run("weak password is rejected without spending the token", func(t *testing.T) {
		require.ErrorIs(t, env.Reset.ConsumeToken(ctx, token, "short"), ErrWeakPassword)
		require.NoError(t, env.Reset.ValidateToken(ctx, token))
	})

	t.Run("consume sets the new password", func(t *testing.T) {
		require.NoError(t, env.Reset.ConsumeToken(ctx, token, "new-password"))

		_, err := env.Auth.Login(ctx, "iris", "new-password")
		require.NoError(t, err)
		_, err = env.Auth.Login(ctx, "iris", "old-password")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("token is single use", func(t *testing.T) {
		require.ErrorIs(t, env.Reset.ValidateToken(ctx, token), ErrInvalidResetToken)
		require.ErrorIs(t, env.Reset.ConsumeToken(ctx, token, "another-password"), ErrInvalidResetToken)
	})

	t.Run("garbage token", func(t *testing.T) {
		require.ErrorIs(t, env.Reset.ValidateToken(ctx, "bogus"), ErrInvalidResetToken)
	})
}

func TestResetTokenExpiry(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	userID := env.createUser(t, "judy", "password1", domain.RoleUser)

	require.NoError(t, env.Reset.RequestReset(ctx, "judy@example.com"))
	token := tokenFromMail(t, env.Mailer.sent[0].HTMLBody)

	// Backdate the expiry instead of waiting an hour.
	user, err := env.Users.GetByID(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, user.ResetTokenHash)
	require.NoError(t, env.Store.Users().SetResetToken(ctx, userID, *user.ResetTokenHash,
		time.Now().UTC().Add(-time.Minute)))

	require.ErrorIs(t, env.Reset.ValidateToken(ctx, token), ErrInvalidResetToken)
	require.ErrorIs(t, env.Reset.ConsumeToken(ctx, token, "new-password"), ErrInvalidResetToken)
}

func TestRequestResetNewTokenReplacesOld(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	env.createUser(t, "kate", "password1", domain.RoleUser)

	require.NoError(t, env.Reset.RequestReset(ctx, "kate@example.com"))
	first := tokenFromMail(t, env.Mailer.sent[0].HTMLBody)

	require.NoError(t, env.Reset.RequestReset(ctx, "kate@example.com"))
	second := tokenFromMail(t, env.Mailer.sent[1].HTMLBody)

	require.NotEqual(t, first, second)
	require.ErrorIs(t, env.Reset.ValidateToken(ctx, first), ErrInvalidResetToken)
	require.NoError(t, env.Reset.ValidateToken(ctx, second))
}
