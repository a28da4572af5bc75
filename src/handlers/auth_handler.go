// backend/src/handlers/auth_handler.go
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/username/optionvisor/backend/src/config"
	"github.com/username/optionvisor/backend/src/logger"
	"github.com/username/optionvisor/backend/src/security"
	"github.com/username/optionvisor/backend/src/utils"
)

type AuthHandler struct {
	authService *security.AuthService
}

func NewAuthHandler(authService *security.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// HandleLogin exchanges the dashboard owner's credentials for a session token.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Username != config.Cfg.DashboardUser {
		ctxLogger.Warn("Login attempt with unknown username", "username", req.Username)
		utils.SendJSONError(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}
	if err := h.authService.CheckPassword(config.Cfg.DashboardPasswordHash, req.Password); err != nil {
		ctxLogger.Warn("Login attempt with wrong password", "username", req.Username)
		utils.SendJSONError(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := h.authService.GenerateToken(req.Username)
	if err != nil {
		ctxLogger.Error("Failed to generate session token", "error", err)
		utils.SendJSONError(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(loginResponse{Token: token})
}
