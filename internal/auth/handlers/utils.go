package handlers

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"flyme-auth/internal/shared/config"
	"flyme-auth/internal/shared/errors"
)

// resolveRedirectURI accepts a caller supplied redirect only when it shares
// the frontend's origin.
func resolveRedirectURI(requested string) string {
	frontend := config.GlobalConfig.Frontend.URL
	if requested == "" {
		return frontend
	}

	want, err := url.Parse(frontend)
	if err != nil {
		return frontend
	}
	got, err := url.Parse(requested)
	if err != nil || got.Scheme != want.Scheme || got.Host != want.Host {
		return frontend
	}

	return strings.TrimSuffix(got.Scheme+"://"+got.Host+got.Path, "/")
}

// redirectWithError redirects to the frontend error page
func redirectWithError(w http.ResponseWriter, r *http.Request, redirectURI, errorType string) {
	if redirectURI == "" {
		redirectURI = config.GlobalConfig.Frontend.URL
	}
	errorURL := fmt.Sprintf("%s/auth/error?error=%s", redirectURI, url.QueryEscape(errorType))

	http.Redirect(w, r, errorURL, http.StatusTemporaryRedirect)
}

// callbackErrorKind maps an authentication failure to the error code shown
// by the frontend.
func callbackErrorKind(err error) string {
	switch errors.GetType(err) {
	case errors.ErrorTypeExternal:
		return "oauth_error"
	case errors.ErrorTypeParse:
		return "provider_error"
	case errors.ErrorTypeUnauthorized:
		return "access_denied"
	default:
		return "database_error"
	}
}
