package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aussiebroadwan/doorman/internal/auth/service"
	"github.com/aussiebroadwan/doorman/pkg/httpx"
	"github.com/aussiebroadwan/doorman/pkg/metricsx"
	"github.com/aussiebroadwan/doorman/pkg/slogx"
)

// verifyMessage mirrors forgotMessage: identical wording whether or not the
// email has an account.
const verifyMessage = "if an account exists for this email, a verification link has been sent"

type VerifyRequestHandler struct {
	VerificationService *service.VerificationService
}

// ServeHTTP handles POST /v1/verify/request.
func (h *VerifyRequestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req forgotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}
	req.Email = service.NormalizeEmail(req.Email)
	if err := validateEmail(req.Email); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "email_invalid", err.Error())
		return
	}

	if err := h.VerificationService.Request(ctx, req.Email); err != nil {
		log.Error("verification request failed", "err", err)
		metricsx.ObserveAuth("verify_request", "error")
	} else {
		metricsx.ObserveAuth("verify_request", "accepted")
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": verifyMessage})
}

type VerifyConfirmHandler struct {
	VerificationService *service.VerificationService
}

type verifyConfirmRequest struct {
	Token string `json:"token"`
}

// ServeHTTP handles POST /v1/verify/confirm.
func (h *VerifyConfirmHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req verifyConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "token is required")
		return
	}

	err := h.VerificationService.Confirm(ctx, req.Token)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrVerificationNotFound):
			metricsx.ObserveAuth("verify_confirm", "invalid_token")
			httpx.WriteError(w, http.StatusUnauthorized, "verification_token_invalid", "")
		case errors.Is(err, service.ErrVerificationExpired):
			metricsx.ObserveAuth("verify_confirm", "expired_token")
			httpx.WriteError(w, http.StatusUnauthorized, "verification_token_expired", "")
		case errors.Is(err, service.ErrVerificationUsed):
			metricsx.ObserveAuth("verify_confirm", "used_token")
			httpx.WriteError(w, http.StatusUnauthorized, "verification_token_used", "")
		default:
			log.Error("verification confirm failed", "err", err)
			metricsx.ObserveAuth("verify_confirm", "error")
			httpx.WriteError(w, http.StatusInternalServerError, "server_error", "")
		}
		return
	}

	metricsx.ObserveAuth("verify_confirm", "success")
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "email verified"})
}
