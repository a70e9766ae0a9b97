package handler

import (
	"log/slog"
	"net/http"

	"github.com/gameportal/portal/internal/domain"
	"github.com/gameportal/portal/internal/service"
)

// AuthHandler serves POST /auth/login for both realms. The role in the
// body picks the realm of the issued token.
type AuthHandler struct {
	authSvc *service.AuthService
	logger  *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authSvc *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{authSvc: authSvc, logger: logger}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input service.LoginInput
	if err := DecodeJSON(r, &input); err != nil {
		RespondInvalidBody(w)
		return
	}

	result, err := h.authSvc.Login(r.Context(), input)
	if err != nil {
		level := slog.LevelInfo
		switch domain.CodeOf(err) {
		case domain.CodeRateLimited, domain.CodeAccountLocked:
			level = slog.LevelWarn
		case domain.CodeUnavailable, domain.CodeInternal:
			level = slog.LevelError
		}
		h.logger.Log(r.Context(), level, "login failed",
			"role", input.Role,
			"client_ip", ClientIP(r),
			"request_id", GetRequestID(r.Context()),
			"error", err,
		)
		RespondError(w, err)
		return
	}

	h.logger.Info("login succeeded",
		"user_id", result.UserID,
		"role", result.Role,
		"request_id", GetRequestID(r.Context()),
	)
	RespondJSON(w, http.StatusOK, result)
}
