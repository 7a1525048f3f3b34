package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/dmorocode/portfolio-sistema/internal/portfolio/domain"
	"github.com/dmorocode/portfolio-sistema/internal/portfolio/mail"
	"github.com/dmorocode/portfolio-sistema/internal/portfolio/session"
	"github.com/dmorocode/portfolio-sistema/internal/portfolio/store/drivers/sqlite"
	"github.com/dmorocode/portfolio-sistema/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "portfolio-service-test")
	if err != nil {
		panic(err)
	}
	cryptox.SetPepperPath(filepath.Join(dir, "pepper"))

	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

// testEnv wires the service stack over an in-memory database and session
// registry.
type testEnv struct {
	Store    *sqlite.Store
	Sessions *session.Memory
	Auth     *AuthService
	MFA      *MFAService
	Reset    *ResetService
	Users    *UserService
	Mailer   *captureMailer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())
	t.Cleanup(func() { _ = s.Close() })

	sessions := session.NewMemory()
	t.Cleanup(func() { _ = sessions.Close() })

	activity := &ActivityService{Store: s}
	mfa := &MFAService{Store: s, Activity: activity, Issuer: "Portfolio"}
	mailer := &captureMailer{}

	return &testEnv{
		Store:    s,
		Sessions: sessions,
		Auth: &AuthService{
			Store:       s,
			Sessions:    sessions,
			Activity:    activity,
			MFA:         mfa,
			Enforcement: MFAEnforceAdmin,
		},
		MFA:    mfa,
		Reset:  &ResetService{Store: s, Mailer: mailer, Activity: activity, BaseURL: "https://portfolio.test"},
		Users:  &UserService{Store: s, Activity: activity},
		Mailer: mailer,
	}
}

func (e *testEnv) createUser(t *testing.T, username, password string, role domain.Role) string {
	t.Helper()

	u, err := e.Users.Create(context.Background(), "test", CreateUserParams{
		Username: username,
		Email:    username + "@example.com",
		Password: password,
		Role:     role,
	})
	require.NoError(t, err)
	return u.ID
}

var errSendFailed = errors.New("send failed")

type captureMailer struct {
	sent []mail.Message
	fail bool
}

func (m *captureMailer) Send(_ context.Context, msg mail.Message) error {
	if m.fail {
		return errSendFailed
	}
	m.sent = append(m.sent, msg)
	return nil
}
