package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmorocode/portfolio-sistema/internal/portfolio/domain"
	"github.com/dmorocode/portfolio-sistema/internal/portfolio/service"
	"github.com/dmorocode/portfolio-sistema/internal/portfolio/session"
	"github.com/dmorocode/portfolio-sistema/pkg/httpx"
	"github.com/dmorocode/portfolio-sistema/pkg/slogx"
)

// AuthHandler covers login, the MFA challenge and logout.
type AuthHandler struct {
	AuthService *service.AuthService
	Secure      bool // mark cookies Secure; off for plain-HTTP development
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	MFA      bool   `json:"mfa_enabled"`
}

func toUserResponse(u domain.User) userResponse {
	return userResponse{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Role:     string(u.Role),
		MFA:      u.MFAEnabled,
	}
}

// HandleLogin handles POST /v1/auth/login.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "Invalid JSON body")
		return
	}

	result, err := h.AuthService.Login(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			httpx.WriteError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid username or password")
			return
		}
		log.Error("login failed", "err", err)
		writeServerError(w)
		return
	}

	httpx.NoCache(w)

	if result.MFARequired {
		h.setCookie(w, MFACookie, result.Token, int(session.TemporaryTTL.Seconds()))
		httpx.WriteJSON(w, http.StatusOK, domain.MFAChallengeResponse{
			MFARequired: true,
			Methods:     []string{"totp", "backup_code"},
		})
		return
	}

	h.setCookie(w, SessionCookie, result.Token, int(session.FinalTTL.Seconds()))
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"token": result.Token,
		"user":  toUserResponse(result.User),
	})
}

type mfaLoginRequest struct {
	Code string `json:"code"`
}

// HandleMFALogin handles POST /v1/auth/mfa. The temporary token comes
// from the MFA cookie or the Authorization header.
func (h *AuthHandler) HandleMFALogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req mfaLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "Invalid JSON body")
		return
	}

	tempToken := extractToken(r, MFACookie)
	if tempToken == "" {
		writeUnauthenticated(w)
		return
	}

	result, err := h.AuthService.CompleteMFA(ctx, tempToken, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidMFACode):
			httpx.WriteError(w, http.StatusUnauthorized, "invalid_code", "Invalid verification code")
		case errors.Is(err, service.ErrUnauthenticated):
			writeUnauthenticated(w)
		default:
			log.Error("MFA login failed", "err", err)
			writeServerError(w)
		}
		return
	}

	httpx.NoCache(w)
	h.clearCookie(w, MFACookie)
	h.setCookie(w, SessionCookie, result.Token, int(session.FinalTTL.Seconds()))
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"token": result.Token,
		"user":  toUserResponse(result.User),
	})
}

// HandleLogout handles POST /v1/auth/logout.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if token := extractToken(r, SessionCookie); token != "" {
		if err := h.AuthService.Logout(ctx, token); err != nil {
			slogx.FromContext(ctx).Warn("logout failed", "err", err)
		}
	}
	if temp := extractToken(r, MFACookie); temp != "" {
		_ = h.AuthService.Logout(ctx, temp)
	}

	h.clearCookie(w, SessionCookie)
	h.clearCookie(w, MFACookie)
	w.WriteHeader(http.StatusNoContent)
}

// HandleMe handles GET /v1/auth/me.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	entry, ok := sessionFromContext(r.Context())
	if !ok {
		writeUnauthenticated(w)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"id":       entry.UserID,
		"username": entry.Username,
		"role":     string(entry.Role),
	})
}

func (h *AuthHandler) setCookie(w http.ResponseWriter, name, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *AuthHandler) clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}
