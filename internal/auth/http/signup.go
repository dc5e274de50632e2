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

type SignupHandler struct {
	AccountService *service.AccountService
}

type signupRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

// ServeHTTP handles POST /v1/signup.
func (h *SignupHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}

	req.Email = service.NormalizeEmail(req.Email)
	if err := validateEmail(req.Email); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "email_invalid", err.Error())
		return
	}
	if err := validatePassword(req.Password); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "weak_password", err.Error())
		return
	}
	if err := validateDisplayName(req.DisplayName); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	res, err := h.AccountService.Signup(ctx, req.Email, req.Password, req.DisplayName)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			metricsx.ObserveAuth("signup", "email_taken")
			httpx.WriteError(w, http.StatusConflict, "email_taken", "an account with this email already exists")
			return
		}
		log.Error("signup failed", "err", err)
		metricsx.ObserveAuth("signup", "error")
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "")
		return
	}

	metricsx.ObserveAuth("signup", "success")
	httpx.WriteJSON(w, http.StatusCreated, newTokenResponse(res.Tokens, &res.Account))
}
