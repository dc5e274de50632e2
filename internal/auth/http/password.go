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

// forgotMessage is returned for every forgot-password request, known email
// or not. The wording must never depend on whether an account exists.
const forgotMessage = "if an account exists for this email, a reset link has been sent"

type ForgotPasswordHandler struct {
	ResetService *service.ResetService
}

type forgotRequest struct {
	Email string `json:"email"`
}

// ServeHTTP handles POST /v1/password/forgot.
func (h *ForgotPasswordHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
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

	if err := h.ResetService.Forgot(ctx, req.Email); err != nil {
		// Internal failures still get the generic response: a 500 here
		// would itself leak which emails have accounts.
		log.Error("forgot password failed", "err", err)
		metricsx.ObserveAuth("forgot_password", "error")
	} else {
		metricsx.ObserveAuth("forgot_password", "accepted")
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": forgotMessage})
}

type ResetPasswordHandler struct {
	ResetService *service.ResetService
}

type resetRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// ServeHTTP handles POST /v1/password/reset.
func (h *ResetPasswordHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req resetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "token and new_password are required")
		return
	}
	if err := validatePassword(req.NewPassword); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "weak_password", err.Error())
		return
	}

	err := h.ResetService.Reset(ctx, req.Token, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrResetNotFound):
			metricsx.ObserveAuth("reset_password", "invalid_token")
			httpx.WriteError(w, http.StatusUnauthorized, "reset_token_invalid", "")
		case errors.Is(err, service.ErrResetExpired):
			metricsx.ObserveAuth("reset_password", "expired_token")
			httpx.WriteError(w, http.StatusUnauthorized, "reset_token_expired", "")
		case errors.Is(err, service.ErrResetUsed):
			metricsx.ObserveAuth("reset_password", "used_token")
			httpx.WriteError(w, http.StatusUnauthorized, "reset_token_used", "")
		default:
			log.Error("password reset failed", "err", err)
			metricsx.ObserveAuth("reset_password", "error")
			httpx.WriteError(w, http.StatusInternalServerError, "server_error", "")
		}
		return
	}

	metricsx.ObserveAuth("reset_password", "success")
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "password updated"})
}
