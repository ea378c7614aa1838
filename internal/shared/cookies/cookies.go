package cookies

import (
	"net/http"
	"net/url"

	"flyme-auth/internal/shared/config"
)

const defaultName = "auth_token"

// Name returns the session cookie name, falling back to auth_token when the
// configuration leaves it unset.
func Name() string {
	if cfg := config.GlobalConfig; cfg != nil && cfg.Auth.CookieName != "" {
		return cfg.Auth.CookieName
	}
	return defaultName
}

func SetAuthCookie(w http.ResponseWriter, token string) {
	cookie := newAuthCookie(config.GlobalConfig.Auth, config.GlobalConfig.Frontend)
	cookie.Value = token
	cookie.MaxAge = int(config.GlobalConfig.Auth.TokenExpiration.Seconds())

	http.SetCookie(w, cookie)
}

func ClearAuthCookie(w http.ResponseWriter) {
	cookie := newAuthCookie(config.GlobalConfig.Auth, config.GlobalConfig.Frontend)
	cookie.MaxAge = -1

	http.SetCookie(w, cookie)
}

func newAuthCookie(auth config.AuthConfig, frontend config.FrontendConfig) *http.Cookie {
	return &http.Cookie{
		Name:     Name(),
		Path:     "/",
		Domain:   cookieDomain(auth, frontend),
		HttpOnly: true,
		Secure:   auth.CookieSecure,
		SameSite: parseSameSite(auth.CookieSameSite),
	}
}

// cookieDomain uses the configured domain when set. Otherwise it scopes the
// cookie to the frontend host, leaving it host-only for loopback addresses.
func cookieDomain(auth config.AuthConfig, frontend config.FrontendConfig) string {
	if auth.CookieDomain != "" {
		return auth.CookieDomain
	}

	u, err := url.Parse(frontend.URL)
	if err != nil {
		return ""
	}

	switch host := u.Hostname(); host {
	case "", "localhost", "127.0.0.1", "::1":
		return ""
	default:
		return host
	}
}

func parseSameSite(mode string) http.SameSite {
	switch mode {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
