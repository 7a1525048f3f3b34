package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmorocode/portfolio-sistema/internal/portfolio/service"
	"github.com/dmorocode/portfolio-sistema/pkg/httpx"
	"github.com/dmorocode/portfolio-sistema/pkg/slogx"
)

// ResetHandler covers the unauthenticated password reset flow.
type ResetHandler struct {
	ResetService *service.ResetService
}

type resetRequestBody struct {
	Email string `json:"email"`
}

// resetRequestedMessage is identical for known and unknown addresses.
const resetRequestedMessage = "If that email is registered, a reset link has been sent"

// HandleRequest handles POST /v1/auth/reset/request.
func (h *ResetHandler) HandleRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req resetRequestBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "Invalid JSON body")
		return
	}

	if err := h.ResetService.RequestReset(ctx, req.Email); err != nil {
		if errors.Is(err, service.ErrEmailDeliveryFailed) {
			// The token is committed and stays valid; only delivery failed.
			httpx.WriteError(w, http.StatusBadGateway, "email_delivery_failed",
				"Could not send the reset email, please try again later")
			return
		}
		slogx.FromContext(ctx).Error("failed to request reset", "err", err)
		writeServerError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": resetRequestedMessage})
}

// HandleValidate handles GET /v1/auth/reset/validate?token=...
func (h *ResetHandler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	err := h.ResetService.ValidateToken(ctx, r.URL.Query().Get("token"))
	if err != nil {
		if errors.Is(err, service.ErrInvalidResetToken) {
			writeBadRequest(w, "Invalid or expired reset token")
			return
		}
		slogx.FromContext(ctx).Error("failed to validate reset token", "err", err)
		writeServerError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]bool{"valid": true})
}

type resetConsumeBody struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// HandleConsume handles POST /v1/auth/reset/confirm.
func (h *ResetHandler) HandleConsume(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req resetConsumeBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "Invalid JSON body")
		return
	}

	if err := h.ResetService.ConsumeToken(ctx, req.Token, req.Password); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidResetToken):
			writeBadRequest(w, "Invalid or expired reset token")
		case errors.Is(err, service.ErrWeakPassword):
			writeBadRequest(w, err.Error())
		default:
			slogx.FromContext(ctx).Error("failed to consume reset token", "err", err)
			writeServerError(w)
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "Password updated"})
}
