package handlers

import (
	"log/slog"
	"net/http"

	"flyme-auth/internal/shared/cookies"
	"flyme-auth/internal/shared/response"
)

type LogoutHandler struct{}

func NewLogoutHandler() *LogoutHandler {
	return &LogoutHandler{}
}

func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "logout", "remote_addr", r.RemoteAddr)

	cookies.ClearAuthCookie(w)

	response.Success(w, http.StatusOK, map[string]string{"status": "logged_out"})
	logger.Info("User logged out successfully")
}
