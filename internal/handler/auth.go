package handler

import (
	"log/slog"
	"net/http"

	"github.com/planbook/planbook/internal/auth"
	"github.com/planbook/planbook/internal/handler/dto"
	"github.com/planbook/planbook/internal/service"
)

// AuthHandler handles account and session endpoints.
type AuthHandler struct {
	svc    *service.UserService
	logger *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc *service.UserService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, logger: logger}
}

// Register handles POST /register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeRequestError(w, err)
		return
	}

	result, err := h.svc.Register(r.Context(), service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	h.logger.Info("user_registered", "user_id", result.User.ID)
	writeJSON(w, http.StatusCreated, toAuthResponse("user registered successfully", result))
}

// Login handles POST /login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeRequestError(w, err)
		return
	}

	result, err := h.svc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	h.logger.Info("user_logged_in", "user_id", result.User.ID)
	writeJSON(w, http.StatusOK, toAuthResponse("login successful", result))
}

// Logout handles POST /logout. The presented token stops working when a
// revocation store is configured; otherwise the client simply discards it.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	if err := h.svc.Logout(r.Context(), claims); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "logout successful"})
}

// Profile handles GET /profile.
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.Profile(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ProfileResponse{User: dto.ToUserResponse(user)})
}

// DeleteProfile handles DELETE /profile. Every expense and event of the
// user is removed with the account.
func (h *AuthHandler) DeleteProfile(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	if err := h.svc.DeleteAccount(r.Context(), userID); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	// the token would otherwise stay valid until it expires
	if err := h.svc.Logout(r.Context(), auth.ClaimsFromContext(r.Context())); err != nil {
		h.logger.Warn("revoke token after account deletion failed", "user_id", userID, "error", err)
	}

	h.logger.Info("user_deleted", "user_id", userID)
	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "account deleted successfully"})
}

func toAuthResponse(message string, result *service.AuthResult) dto.AuthResponse {
	return dto.AuthResponse{
		Message:   message,
		User:      dto.ToUserResponse(result.User),
		Token:     result.Token,
		TokenType: "Bearer",
		ExpiresAt: result.ExpiresAt,
	}
}
