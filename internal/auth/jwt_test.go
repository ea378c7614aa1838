package auth

import (
	"testing"
	"time"

	"flyme-auth/internal/shared/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withConfig(t *testing.T, secret string, ttl time.Duration) {
	t.Helper()
	prev := config.GlobalConfig
	config.GlobalConfig = &config.Config{Auth: config.AuthConfig{JWTSecret: secret, TokenExpiration: ttl}}
	t.Cleanup(func() { config.GlobalConfig = prev })
}

func TestJWT_RoundTrip(t *testing.T) {
	withConfig(t, "0123456789abcdef0123456789abcdef", time.Hour)

	token, err := GenerateJWT(&Account{ID: 7, Provider: "flyme", Username: "Alice", AvatarURL: "http://x/a.png"})
	require.NoError(t, err)

	claims, err := ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, 7, claims.AccountID)
	assert.Equal(t, "flyme", claims.Provider)
	assert.Equal(t, "Alice", claims.Username)
	assert.Equal(t, "account_7", claims.Subject)
}

func TestJWT_Expired(t *testing.T) {
	withConfig(t, "0123456789abcdef0123456789abcdef", -time.Minute)

	token, err := GenerateJWT(&Account{ID: 1})
	require.NoError(t, err)

	_, err = ValidateJWT(token)
	require.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestJWT_WrongSecret(t *testing.T) {
	withConfig(t, "0123456789abcdef0123456789abcdef", time.Hour)
	token, err := GenerateJWT(&Account{ID: 1})
	require.NoError(t, err)

	withConfig(t, "fedcba9876543210fedcba9876543210", time.Hour)
	_, err = ValidateJWT(token)
	require.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
}

func TestJWT_ShortSecret(t *testing.T) {
	withConfig(t, "short", time.Hour)

	_, err := GenerateJWT(&Account{ID: 1})
	require.Error(t, err)
}
