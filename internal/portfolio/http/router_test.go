package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmorocode/portfolio-sistema/internal/portfolio/domain"
	"github.com/dmorocode/portfolio-sistema/internal/portfolio/mail"
	"github.com/dmorocode/portfolio-sistema/internal/portfolio/service"
	"github.com/dmorocode/portfolio-sistema/internal/portfolio/session"
	"github.com/dmorocode/portfolio-sistema/internal/portfolio/store/drivers/sqlite"
	"github.com/dmorocode/portfolio-sistema/internal/portfolio/upload"
	"github.com/dmorocode/portfolio-sistema/pkg/cryptox"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "portfolio-http-test")
	if err != nil {
		panic(err)
	}
	cryptox.SetPepperPath(filepath.Join(dir, "pepper"))

	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

type nopMailer struct{}

func (nopMailer) Send(context.Context, mail.Message) error { return nil }

func newTestRouter(t *testing.T) *Router {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	sessions := session.NewMemory()
	files, err := upload.NewDisk(t.TempDir())
	require.NoError(t, err)

	activity := &service.ActivityService{Store: st}
	mfa := &service.MFAService{Store: st, Activity: activity, Issuer: "Portfolio"}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	r := NewRouter("test", st, logger, false)
	r.AuthService = &service.AuthService{
		Store:       st,
		Sessions:    sessions,
		Activity:    activity,
		MFA:         mfa,
		Enforcement: service.MFAEnforceAdmin,
	}
	r.MFAService = mfa
	r.ResetService = &service.ResetService{Store: st, Mailer: nopMailer{}, Activity: activity, BaseURL: "https://portfolio.test"}
	r.UserService = &service.UserService{Store: st, Activity: activity}
	r.ProjectService = &service.ProjectService{Store: st, Files: files, Activity: activity}
	r.CategoryService = &service.CategoryService{Store: st, Activity: activity}
	r.ActivityService = activity
	r.ApplyRoutes()

	boot := &service.BootstrapService{
		Store:         st,
		AdminUsername: "admin",
		AdminEmail:    "admin@example.com",
		AdminPassword: "admin-pass",
	}
	require.NoError(t, boot.Run(context.Background()))

	return r
}

func doJSON(t *testing.T, r *Router, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func loginAdmin(t *testing.T, r *Router) string {
	t.Helper()

	rec := doJSON(t, r, http.MethodPost, "/v1/auth/login",
		map[string]string{"username": "admin", "password": "admin-pass"}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestLoginEndpoint(t *testing.T) {
	r := newTestRouter(t)

	t.Run("valid credentials set the session cookie", func(t *testing.T) {
		rec := doJSON(t, r, http.MethodPost, "/v1/auth/login",
			map[string]string{"username": "admin", "password": "admin-pass"}, "")
		require.Equal(t, http.StatusOK, rec.Code)

		var found bool
		for _, c := range rec.Result().Cookies() {
			if c.Name == SessionCookie {
				found = true
				require.True(t, c.HttpOnly)
				require.Equal(t, http.SameSiteStrictMode, c.SameSite)
			}
		}
		require.True(t, found)
	})

	t.Run("bad password", func(t *testing.T) {
		rec := doJSON(t, r, http.MethodPost, "/v1/auth/login",
			map[string]string{"username": "admin", "password": "wrong"}, "")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", bytes.NewBufferString("{"))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAuthnMiddleware(t *testing.T) {
	r := newTestRouter(t)
	token := loginAdmin(t, r)

	t.Run("me with bearer token", func(t *testing.T) {
		rec := doJSON(t, r, http.MethodGet, "/v1/auth/me", nil, token)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Username string `json:"username"`
			Role     string `json:"role"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, "admin", resp.Username)
		require.Equal(t, "admin", resp.Role)
	})

	t.Run("me with cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/auth/me", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("no token", func(t *testing.T) {
		rec := doJSON(t, r, http.MethodGet, "/v1/auth/me", nil, "")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("logout revokes", func(t *testing.T) {
		other := loginAdmin(t, r)
		rec := doJSON(t, r, http.MethodPost, "/v1/auth/logout", nil, other)
		require.Equal(t, http.StatusNoContent, rec.Code)

		rec = doJSON(t, r, http.MethodGet, "/v1/auth/me", nil, other)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestAdminGuard(t *testing.T) {
	r := newTestRouter(t)
	adminToken := loginAdmin(t, r)

	// Create a regular user to probe the admin-only routes with.
	rec := doJSON(t, r, http.MethodPost, "/v1/users", map[string]string{
		"username": "viewer",
		"email":    "viewer@example.com",
		"password": "password1",
		"role":     "user",
	}, adminToken)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, r, http.MethodPost, "/v1/auth/login",
		map[string]string{"username": "viewer", "password": "password1"}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))

	t.Run("non-admin is forbidden", func(t *testing.T) {
		rec := doJSON(t, r, http.MethodGet, "/v1/users", nil, login.Token)
		require.Equal(t, http.StatusForbidden, rec.Code)

		rec = doJSON(t, r, http.MethodGet, "/v1/activity", nil, login.Token)
		require.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("admin passes", func(t *testing.T) {
		rec := doJSON(t, r, http.MethodGet, "/v1/users", nil, adminToken)
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("public listing needs no session", func(t *testing.T) {
		rec := doJSON(t, r, http.MethodGet, "/v1/projects", nil, "")
		require.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestProjectUploadEndpoint(t *testing.T) {
	r := newTestRouter(t)
	token := loginAdmin(t, r)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("title", "Space Shooter"))
	require.NoError(t, mw.WriteField("description", "a retro arcade game"))
	fw, err := mw.CreateFormFile("file", "game.zip")
	require.NoError(t, err)
	_, err = fw.Write([]byte("zip-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/projects", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)

	t.Run("download requires a session", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/projects/"+created.ID+"/download", nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("download serves the artifact", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/projects/"+created.ID+"/download", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "zip-bytes", rec.Body.String())
		require.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	})
}

func TestResetEndpoints(t *testing.T) {
	r := newTestRouter(t)

	t.Run("request is indistinguishable for unknown email", func(t *testing.T) {
		known := doJSON(t, r, http.MethodPost, "/v1/auth/reset/request",
			map[string]string{"email": "admin@example.com"}, "")
		unknown := doJSON(t, r, http.MethodPost, "/v1/auth/reset/request",
			map[string]string{"email": "ghost@example.com"}, "")

		require.Equal(t, http.StatusOK, known.Code)
		require.Equal(t, http.StatusOK, unknown.Code)
		require.JSONEq(t, known.Body.String(), unknown.Body.String())
	})

	t.Run("validate rejects garbage", func(t *testing.T) {
		rec := doJSON(t, r, http.MethodGet, "/v1/auth/reset/validate?token=bogus", nil, "")
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestMFALoginFlow(t *testing.T) {
	r := newTestRouter(t)
	token := loginAdmin(t, r)

	// Enroll and confirm MFA for the admin.
	rec := doJSON(t, r, http.MethodPost, "/v1/mfa/enroll", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)

	var enroll domain.MFAEnrollResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &enroll))
	require.NotEmpty(t, enroll.Secret)

	code := totpCode(t, enroll.Secret)
	rec = doJSON(t, r, http.MethodPost, "/v1/mfa/confirm",
		map[string]string{"secret": enroll.Secret, "code": code}, token)
	require.Equal(t, http.StatusOK, rec.Code)

	var confirm struct {
		BackupCodes []string `json:"backup_codes"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &confirm))
	require.Len(t, confirm.BackupCodes, 10)

	// Password login now returns a challenge and the temporary cookie.
	rec = doJSON(t, r, http.MethodPost, "/v1/auth/login",
		map[string]string{"username": "admin", "password": "admin-pass"}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var challenge domain.MFAChallengeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &challenge))
	require.True(t, challenge.MFARequired)

	var tempCookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == MFACookie {
			tempCookie = c
		}
	}
	require.NotNil(t, tempCookie)

	// Complete the challenge with a fresh code.
	body := bytes.NewBufferString(`{"code":"` + totpCode(t, enroll.Secret) + `"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/mfa", body)
	req.AddCookie(tempCookie)
	final := httptest.NewRecorder()
	r.ServeHTTP(final, req)
	require.Equal(t, http.StatusOK, final.Code)

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(final.Body.Bytes(), &resp))

	rec = doJSON(t, r, http.MethodGet, "/v1/auth/me", nil, resp.Token)
	require.Equal(t, http.StatusOK, rec.Code)
}

func totpCode(t *testing.T, secret string) string {
	t.Helper()

	code, err := totp.GenerateCode(secret, time.Now().UTC())
	require.NoError(t, err)
	return code
}

func TestHealthEndpoints(t *testing.T) {
	r := newTestRouter(t)

	rec := doJSON(t, r, http.MethodGet, "/livez", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, r, http.MethodGet, "/readyz", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
}
