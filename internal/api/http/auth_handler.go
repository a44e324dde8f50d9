package http

import (
	"net/http"
	"time"

	"rental-engine-backend/internal/logger"
)

type tokenRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

type tokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func (h *Handler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	roles, err := h.deps.Clients.Authenticate(req.ClientID, req.ClientSecret)
	if err != nil {
		logger.WarnContext(r.Context(), "Client authentication failed", "client_id", req.ClientID)
		writeMessage(w, http.StatusUnauthorized, err.Error())
		return
	}

	token, expiresAt, err := h.deps.Tokens.GenerateAccessToken(req.ClientID, roles)
	if err != nil {
		writeError(w, r, err)
		return
	}
	logger.InfoContext(r.Context(), "Access token issued", "client_id", req.ClientID, "roles", roles)
	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: token, TokenType: "Bearer", ExpiresAt: expiresAt})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.deps.Ping != nil {
		if err := h.deps.Ping(); err != nil {
			logger.WarnContext(r.Context(), "Health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
