package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/aussiebroadwan/doorman/internal/auth/domain"
	"github.com/aussiebroadwan/doorman/internal/auth/service"
	"github.com/aussiebroadwan/doorman/pkg/httpx"
	"github.com/aussiebroadwan/doorman/pkg/metricsx"
	"github.com/aussiebroadwan/doorman/pkg/slogx"
)

type LoginHandler struct {
	AccountService *service.AccountService
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken  string                `json:"access_token"`
	RefreshToken string                `json:"refresh_token"`
	TokenType    string                `json:"token_type"`
	ExpiresIn    int64                 `json:"expires_in"`
	Account      *domain.PublicAccount `json:"account,omitempty"`
}

func newTokenResponse(pair domain.TokenPair, acct *domain.PublicAccount) tokenResponse {
	return tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    pair.TokenType,
		ExpiresIn:    pair.ExpiresIn,
		Account:      acct,
	}
}

// ServeHTTP handles POST /v1/login.
//
// Unknown email and wrong password return the same 401 body. A locked
// account returns 423 with a Retry-After header; attempts while locked are
// rejected without touching the credentials.
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}
	if req.Email == "" || req.Password == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "email and password are required")
		return
	}

	res, err := h.AccountService.Login(ctx, req.Email, req.Password)
	if err != nil {
		var locked *service.AccountLockedError
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			metricsx.ObserveAuth("login", "invalid_credentials")
			httpx.WriteError(w, http.StatusUnauthorized, "invalid_credentials", "email or password is incorrect")
		case errors.As(err, &locked):
			metricsx.ObserveAuth("login", "account_locked")
			retry := int64(locked.RetryAfter/time.Second) + 1
			w.Header().Set("Retry-After", strconv.FormatInt(retry, 10))
			httpx.WriteError(w, http.StatusLocked, "account_locked",
				"too many failed attempts, try again later")
		default:
			log.Error("login failed", "err", err)
			metricsx.ObserveAuth("login", "error")
			httpx.WriteError(w, http.StatusInternalServerError, "server_error", "")
		}
		return
	}

	metricsx.ObserveAuth("login", "success")
	httpx.WriteJSON(w, http.StatusOK, newTokenResponse(res.Tokens, &res.Account))
}
