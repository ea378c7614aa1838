package handlers

import (
	"log/slog"
	"net/http"

	"flyme-auth/internal/auth"
	"flyme-auth/internal/middleware"
	"flyme-auth/internal/shared/errors"
	"flyme-auth/internal/shared/response"
)

type MeResponse struct {
	AccountID int    `json:"account_id"`
	Provider  string `json:"provider"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url"`
}

type MeHandler struct {
	authService *auth.Service
}

func NewMeHandler(authService *auth.Service) *MeHandler {
	return &MeHandler{authService: authService}
}

func (h *MeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "me", "remote_addr", r.RemoteAddr)

	claims := middleware.GetUserFromContext(r)
	if claims == nil {
		response.Error(w, r, logger, errors.Unauthorized("authentication required"))
		return
	}

	account, err := h.authService.GetAccount(r.Context(), claims.AccountID)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, MeResponse{
		AccountID: account.ID,
		Provider:  account.Provider,
		Username:  account.Username,
		AvatarURL: account.AvatarURL,
	})
}
