package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmorocode/portfolio-sistema/internal/portfolio/service"
	"github.com/dmorocode/portfolio-sistema/pkg/httpx"
	"github.com/dmorocode/portfolio-sistema/pkg/slogx"
)

// MFAHandler covers enrollment and management of the second factor for
// an authenticated user.
type MFAHandler struct {
	MFAService *service.MFAService
}

// HandleEnroll handles POST /v1/mfa/enroll. Returns the secret and QR
// code; MFA stays off until the first code is confirmed.
func (h *MFAHandler) HandleEnroll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	entry, ok := sessionFromContext(ctx)
	if !ok {
		writeUnauthenticated(w)
		return
	}

	enroll, err := h.MFAService.Enroll(ctx, entry.UserID)
	if err != nil {
		if errors.Is(err, service.ErrMFAAlreadyEnabled) {
			writeBadRequest(w, "MFA is already enabled")
			return
		}
		log.Error("failed to enroll MFA", "user_id", entry.UserID, "err", err)
		writeServerError(w)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, enroll)
}

type mfaConfirmRequest struct {
	Secret string `json:"secret"`
	Code   string `json:"code"`
}

// HandleConfirm handles POST /v1/mfa/confirm. Verifies the first code
// against the enrolled secret, enables MFA, and returns the backup codes
// exactly once.
func (h *MFAHandler) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	entry, ok := sessionFromContext(ctx)
	if !ok {
		writeUnauthenticated(w)
		return
	}

	var req mfaConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "Invalid JSON body")
		return
	}

	codes, err := h.MFAService.ConfirmEnrollment(ctx, entry.UserID, req.Secret, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidMFACode):
			writeBadRequest(w, "Invalid verification code")
		case errors.Is(err, service.ErrMFAAlreadyEnabled):
			writeBadRequest(w, "MFA is already enabled")
		case errors.Is(err, service.ErrMFANotEnrolled):
			writeBadRequest(w, "Enrollment has not been started")
		default:
			log.Error("failed to confirm MFA", "user_id", entry.UserID, "err", err)
			writeServerError(w)
		}
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"backup_codes": codes})
}

type mfaDisableRequest struct {
	Password string `json:"password"`
}

// HandleDisable handles POST /v1/mfa/disable. Requires a fresh password
// check.
func (h *MFAHandler) HandleDisable(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	entry, ok := sessionFromContext(ctx)
	if !ok {
		writeUnauthenticated(w)
		return
	}

	var req mfaDisableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "Invalid JSON body")
		return
	}

	if err := h.MFAService.Disable(ctx, entry.UserID, req.Password); err != nil {
		switch {
		case errors.Is(err, service.ErrWrongPassword):
			httpx.WriteError(w, http.StatusUnauthorized, "wrong_password", "Password is incorrect")
		case errors.Is(err, service.ErrMFANotEnabled):
			writeBadRequest(w, "MFA is not enabled")
		default:
			log.Error("failed to disable MFA", "user_id", entry.UserID, "err", err)
			writeServerError(w)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleStatus handles GET /v1/mfa/status.
func (h *MFAHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	entry, ok := sessionFromContext(ctx)
	if !ok {
		writeUnauthenticated(w)
		return
	}

	remaining, total, err := h.MFAService.BackupCodeStatus(ctx, entry.UserID)
	if err != nil {
		slogx.FromContext(ctx).Error("failed to load backup code status", "err", err)
		writeServerError(w)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"backup_codes_remaining": remaining,
		"backup_codes_total":     total,
	})
}
