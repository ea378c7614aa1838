package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"flyme-auth/internal/auth"
	"flyme-auth/internal/auth/providers"
	"flyme-auth/internal/auth/state"
	"flyme-auth/internal/auth/strategy"
	"flyme-auth/internal/shared/config"
	"flyme-auth/internal/shared/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type accountsStub struct {
	accounts map[string]*auth.Account
}

func (s *accountsStub) UpsertAccount(_ context.Context, provider, providerUserID, username, avatarURL string, _ []byte) (*auth.Account, error) {
	key := provider + ":" + providerUserID
	a, ok := s.accounts[key]
	if !ok {
		a = &auth.Account{ID: len(s.accounts) + 1, Provider: provider, ProviderUserID: providerUserID}
		s.accounts[key] = a
	}
	a.Username, a.AvatarURL = username, avatarURL
	return a, nil
}

func (s *accountsStub) GetAccountByID(_ context.Context, id int) (*auth.Account, error) {
	for _, a := range s.accounts {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, errors.NotFoundf("account not found: %d", id)
}

type fixture struct {
	handler *OAuthHandler
	states  *state.Manager
	flyme   *httptest.Server
}

func newFixture(t *testing.T, profileBody string) *fixture {
	t.Helper()

	prev := config.GlobalConfig
	config.GlobalConfig = &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:       "0123456789abcdef0123456789abcdef",
			TokenExpiration: time.Hour,
		},
		Frontend: config.FrontendConfig{URL: "http://localhost:3000"},
	}
	t.Cleanup(func() { config.GlobalConfig = prev })

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil || r.Form.Get("code") != "good-code" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at-1","token_type":"bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/v2/me", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(profileBody))
	})
	flyme := httptest.NewServer(mux)
	t.Cleanup(flyme.Close)

	svc := auth.NewService(&accountsStub{accounts: map[string]*auth.Account{}}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	s := providers.NewFlymeStrategy[*auth.Account](providers.FlymeOptions{
		ClientID:         "client",
		ClientSecret:     "secret",
		CallbackURL:      "http://localhost:8080/auth/flyme/callback",
		AuthorizationURL: flyme.URL + "/oauth/authorize",
		TokenURL:         flyme.URL + "/oauth/token",
		UserProfileURL:   flyme.URL + "/v2/me",
		HTTPClient:       flyme.Client(),
	}, svc.Verify)

	registry := strategy.NewRegistry[*auth.Account]()
	require.NoError(t, registry.Register(s))

	states := state.NewManager(state.NewMemoryBackend(time.Minute), time.Minute)

	return &fixture{
		handler: NewOAuthHandler(&auth.OAuthConfig{
			Registry:   registry,
			Configured: map[string]bool{"flyme": true},
		}, states),
		states: states,
		flyme:  flyme,
	}
}

func (f *fixture) mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /auth/{provider}", f.handler.HandleAuth)
	mux.HandleFunc("GET /auth/{provider}/callback", f.handler.HandleCallback)
	return mux
}

func (f *fixture) serve(path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("User-Agent", "test-agent")
	rec := httptest.NewRecorder()
	f.mux().ServeHTTP(rec, req)
	return rec
}

func (f *fixture) beginLogin(t *testing.T) string {
	t.Helper()
	rec := f.serve("/auth/flyme")
	require.Equal(t, http.StatusTemporaryRedirect, rec.Code)

	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	return loc.Query().Get("state")
}

const aliceProfile = `{"code":"200","value":{"openId":"u1","nickname":"Alice","icon":"http://x/a.png"}}`

func TestHandleAuth_RedirectsToFlyme(t *testing.T) {
	f := newFixture(t, aliceProfile)

	rec := f.serve("/auth/flyme")
	require.Equal(t, http.StatusTemporaryRedirect, rec.Code)

	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/oauth/authorize", loc.Path)
	assert.Equal(t, "client", loc.Query().Get("client_id"))
	assert.NotEmpty(t, loc.Query().Get("state"))
}

func TestHandleAuth_UnknownProvider(t *testing.T) {
	f := newFixture(t, aliceProfile)

	rec := f.serve("/auth/weibo")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleAuth_NotConfigured(t *testing.T) {
	f := newFixture(t, aliceProfile)
	f.handler.oauth.Configured["flyme"] = false

	rec := f.serve("/auth/flyme")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandleCallback_Success(t *testing.T) {
	f := newFixture(t, aliceProfile)
	stateToken := f.beginLogin(t)

	rec := f.serve("/auth/flyme/callback?code=good-code&state=" + url.QueryEscape(stateToken))

	require.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, "http://localhost:3000/auth/callback?success=true", rec.Header().Get("Location"))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	claims, err := auth.ValidateJWT(cookies[0].Value)
	require.NoError(t, err)
	assert.Equal(t, "flyme", claims.Provider)
	assert.Equal(t, "Alice", claims.Username)
}

func TestHandleCallback_StateReplayRejected(t *testing.T) {
	f := newFixture(t, aliceProfile)
	stateToken := f.beginLogin(t)

	first := f.serve("/auth/flyme/callback?code=good-code&state=" + url.QueryEscape(stateToken))
	require.Contains(t, first.Header().Get("Location"), "success=true")

	second := f.serve("/auth/flyme/callback?code=good-code&state=" + url.QueryEscape(stateToken))
	assert.Equal(t, "http://localhost:3000/auth/error?error=oauth_error", second.Header().Get("Location"))
}

func TestHandleCallback_ProviderDenied(t *testing.T) {
	f := newFixture(t, aliceProfile)
	stateToken := f.beginLogin(t)

	rec := f.serve("/auth/flyme/callback?error=access_denied&state=" + url.QueryEscape(stateToken))
	assert.Equal(t, "http://localhost:3000/auth/error?error=oauth_denied", rec.Header().Get("Location"))
}

func TestHandleCallback_ProfileRejected(t *testing.T) {
	f := newFixture(t, `{"code":"198001","message":"token invalid"}`)
	stateToken := f.beginLogin(t)

	rec := f.serve("/auth/flyme/callback?code=good-code&state=" + url.QueryEscape(stateToken))
	assert.Equal(t, "http://localhost:3000/auth/error?error=oauth_error", rec.Header().Get("Location"))
	assert.Empty(t, rec.Result().Cookies())
}

func TestHandleCallback_ProfileUnparseable(t *testing.T) {
	f := newFixture(t, `<html>maintenance</html>`)
	stateToken := f.beginLogin(t)

	rec := f.serve("/auth/flyme/callback?code=good-code&state=" + url.QueryEscape(stateToken))
	assert.Equal(t, "http://localhost:3000/auth/error?error=provider_error", rec.Header().Get("Location"))
}

func TestHandleCallback_BadCode(t *testing.T) {
	f := newFixture(t, aliceProfile)
	stateToken := f.beginLogin(t)

	rec := f.serve("/auth/flyme/callback?code=stale&state=" + url.QueryEscape(stateToken))
	assert.Equal(t, "http://localhost:3000/auth/error?error=oauth_error", rec.Header().Get("Location"))
}

func TestResolveRedirectURI(t *testing.T) {
	newFixture(t, aliceProfile)

	assert.Equal(t, "http://localhost:3000", resolveRedirectURI(""))
	assert.Equal(t, "http://localhost:3000/app", resolveRedirectURI("http://localhost:3000/app/"))
	assert.Equal(t, "http://localhost:3000", resolveRedirectURI("https://evil.example/phish"))
}
