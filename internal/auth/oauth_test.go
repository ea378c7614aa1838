package auth

import (
	"testing"

	"flyme-auth/internal/auth/providers"
	"flyme-auth/internal/shared/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitOAuth(t *testing.T) {
	cfg := &config.Config{OAuth: config.OAuthConfig{Flyme: config.FlymeOAuthConfig{
		ClientID:    "id",
		CallbackURL: "http://localhost:8080/auth/flyme/callback",
		TokenURL:    "http://idp.local/token",
		Scopes:      []string{"uc_basic_info"},
	}}}

	oauth, err := InitOAuth(cfg, newTestService(newMemoryAccounts()))
	require.NoError(t, err)

	s, err := oauth.Registry.Get("flyme")
	require.NoError(t, err)
	assert.Equal(t, providers.DefaultFlymeAuthorizationURL, s.Config().Endpoint.AuthURL)
	assert.Equal(t, "http://idp.local/token", s.Config().Endpoint.TokenURL)
	assert.True(t, s.UsesAuthorizationHeader())

	// no client secret
	assert.False(t, oauth.IsConfigured("flyme"))
	assert.False(t, oauth.IsConfigured("github"))
}
