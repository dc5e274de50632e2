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

type RefreshHandler struct {
	TokenService *service.TokenService
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// ServeHTTP handles POST /v1/token/refresh. The presented refresh token is
// rotated; the response carries a brand-new pair.
func (h *RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "refresh_token is required")
		return
	}

	pair, err := h.TokenService.Refresh(ctx, req.RefreshToken)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRefresh) {
			metricsx.ObserveAuth("refresh", "rejected")
			httpx.WriteError(w, http.StatusUnauthorized, "invalid_or_expired_token", "")
			return
		}
		log.Error("token refresh failed", "err", err)
		metricsx.ObserveAuth("refresh", "error")
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "")
		return
	}

	metricsx.ObserveAuth("refresh", "success")
	httpx.WriteJSON(w, http.StatusOK, newTokenResponse(pair, nil))
}

type LogoutHandler struct {
	TokenService *service.TokenService
}

// ServeHTTP handles POST /v1/logout. Revocation is best effort and the
// endpoint always reports success: there is nothing useful a client can do
// with a logout failure.
func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "refresh_token is required")
		return
	}

	if err := h.TokenService.Logout(ctx, req.RefreshToken); err != nil {
		log.Warn("logout revocation failed", "err", err)
	}
	metricsx.ObserveAuth("logout", "success")
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
