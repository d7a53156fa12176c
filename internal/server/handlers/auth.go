package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/timevault/timevault/pkg/api"
)

// AuthHandler exchanges the configured access key for a bearer token.
// The server holds only a bcrypt hash of the access key, never the key
// itself.
type AuthHandler struct {
	logger        *slog.Logger
	jwtConfig     JWTConfig
	owner         string
	accessKeyHash []byte
}

// NewAuthHandler creates the auth handler for a single owner.
func NewAuthHandler(logger *slog.Logger, jwtConfig JWTConfig, owner string, accessKeyHash []byte) *AuthHandler {
	return &AuthHandler{
		logger:        logger,
		jwtConfig:     jwtConfig,
		owner:         owner,
		accessKeyHash: accessKeyHash,
	}
}

// Login handles POST /api/v1/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.AccessKey == "" {
		writeError(w, http.StatusBadRequest, "access_key is required")
		return
	}

	if err := bcrypt.CompareHashAndPassword(h.accessKeyHash, []byte(req.AccessKey)); err != nil {
		h.logger.Warn("login rejected", "remote_addr", r.RemoteAddr)
		writeError(w, http.StatusUnauthorized, "invalid access key")
		return
	}

	token, expiresIn, err := GenerateAccessToken(h.jwtConfig, h.owner)
	if err != nil {
		h.logger.Error("failed to generate token", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	h.logger.Info("login succeeded", "owner", h.owner)

	writeJSON(w, http.StatusOK, api.LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   expiresIn,
	})
}
