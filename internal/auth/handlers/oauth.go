package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"flyme-auth/internal/auth"
	"flyme-auth/internal/auth/state"
	"flyme-auth/internal/shared/cookies"
	"flyme-auth/internal/shared/errors"
	"flyme-auth/internal/shared/response"
)

type OAuthHandler struct {
	oauth  *auth.OAuthConfig
	states *state.Manager
}

func NewOAuthHandler(oauth *auth.OAuthConfig, states *state.Manager) *OAuthHandler {
	return &OAuthHandler{
		oauth:  oauth,
		states: states,
	}
}

// HandleAuth redirects the browser to the provider's authorization page.
func (h *OAuthHandler) HandleAuth(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("provider")
	logger := slog.With("handler", name+"_oauth_init")

	s, err := h.oauth.Registry.Get(name)
	if err != nil {
		response.Error(w, r, logger, errors.NotFoundf("unknown OAuth provider %q", name))
		return
	}

	if !h.oauth.IsConfigured(name) {
		response.Error(w, r, logger, errors.External(fmt.Sprintf("%s OAuth is not properly configured", name)))
		return
	}

	redirectURI := resolveRedirectURI(r.URL.Query().Get("redirect_uri"))

	stateToken, err := h.states.Generate(r.Context(), name, r.UserAgent(), redirectURI)
	if err != nil {
		response.Error(w, r, logger, errors.WrapInternal("failed to initialize OAuth flow", err))
		return
	}

	http.Redirect(w, r, s.AuthCodeURL(stateToken), http.StatusTemporaryRedirect)
}

func (h *OAuthHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("provider")
	code := r.URL.Query().Get("code")
	stateToken := r.URL.Query().Get("state")
	errorParam := r.URL.Query().Get("error")

	logger := slog.With(
		"handler", name+"_oauth_callback",
		"user_agent", r.UserAgent(),
		"ip", r.RemoteAddr,
		"has_code", code != "",
		"has_state", stateToken != "",
	)

	s, err := h.oauth.Registry.Get(name)
	if err != nil {
		response.Error(w, r, logger, errors.NotFoundf("unknown OAuth provider %q", name))
		return
	}

	entry, err := h.states.Validate(r.Context(), stateToken, name, r.UserAgent())
	if err != nil {
		logger.Error("OAuth state validation failed", "error", err, "provider", name)
		redirectWithError(w, r, "", "oauth_error")
		return
	}
	redirectURI := entry.RedirectURI

	if errorParam != "" {
		logger.Warn("OAuth authorization denied",
			"provider", name,
			"oauth_error", errorParam,
			"error_description", r.URL.Query().Get("error_description"))
		redirectWithError(w, r, redirectURI, "oauth_denied")
		return
	}

	if code == "" {
		logger.Error("OAuth callback missing authorization code", "provider", name)
		redirectWithError(w, r, redirectURI, "oauth_error")
		return
	}
	logger.Info("OAuth state validation successful - proceeding with OAuth callback", "provider", name)

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	account, profile, err := s.Authenticate(ctx, code)
	if err != nil {
		logger.Error("OAuth authentication failed",
			"error", err,
			"error_type", errors.GetType(err),
			"provider", name)
		redirectWithError(w, r, redirectURI, callbackErrorKind(err))
		return
	}

	accountLogger := logger.With(
		"account_id", account.ID,
		"provider_user_id", profile.ID,
		"user_name", profile.Username)

	accountLogger.Debug("Generating JWT token for account")
	jwtToken, err := auth.GenerateJWT(account)
	if err != nil {
		accountLogger.Error("Failed to generate JWT token", "error", err)
		redirectWithError(w, r, redirectURI, "auth_error")
		return
	}

	cookies.SetAuthCookie(w, jwtToken)

	accountLogger.Info("OAuth authentication successful", "provider", name)

	successURL := fmt.Sprintf("%s/auth/callback?success=true", redirectURI)
	http.Redirect(w, r, successURL, http.StatusTemporaryRedirect)
}
