package auth

import (
	"log/slog"

	"flyme-auth/internal/auth/providers"
	"flyme-auth/internal/auth/strategy"
	"flyme-auth/internal/shared/config"
)

type OAuthConfig struct {
	Registry   *strategy.Registry[*Account]
	Configured map[string]bool
}

// IsConfigured reports whether the named provider has client credentials.
func (c *OAuthConfig) IsConfigured(name string) bool {
	return c.Configured[name]
}

// InitOAuth registers every provider strategy with the service's verify callback.
func InitOAuth(cfg *config.Config, service *Service) (*OAuthConfig, error) {
	logger := slog.With("component", "oauth", "operation", "init")
	logger.Debug("Initializing OAuth strategies")

	flymeCfg := cfg.OAuth.Flyme
	flyme := providers.NewFlymeStrategy[*Account](providers.FlymeOptions{
		ClientID:         flymeCfg.ClientID,
		ClientSecret:     flymeCfg.ClientSecret,
		CallbackURL:      flymeCfg.CallbackURL,
		AuthorizationURL: flymeCfg.AuthorizationURL,
		TokenURL:         flymeCfg.TokenURL,
		UserProfileURL:   flymeCfg.UserProfileURL,
		Scopes:           flymeCfg.Scopes,
	}, service.Verify)

	registry := strategy.NewRegistry[*Account]()
	if err := registry.Register(flyme); err != nil {
		return nil, err
	}

	flymeConfigured := cfg.FlymeOAuthConfigured()

	logger.Info("OAuth configuration completed",
		"base_url", cfg.Server.URL,
		"providers", registry.Names(),
		"flyme_configured", flymeConfigured,
		"flyme_redirect", flymeCfg.CallbackURL,
		"flyme_authorization_url", flyme.Config().Endpoint.AuthURL,
	)

	if !flymeConfigured {
		logger.Warn("Flyme OAuth not configured - missing client credentials")
	}

	return &OAuthConfig{
		Registry: registry,
		Configured: map[string]bool{
			flyme.Name(): flymeConfigured,
		},
	}, nil
}
