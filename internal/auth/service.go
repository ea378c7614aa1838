package auth

import (
	"context"
	"log/slog"

	"flyme-auth/internal/auth/strategy"
	"flyme-auth/internal/shared/errors"
)

type accountStore interface {
	UpsertAccount(ctx context.Context, provider, providerUserID, username, avatarURL string, rawProfile []byte) (*Account, error)
	GetAccountByID(ctx context.Context, id int) (*Account, error)
}

type Service struct {
	repo   accountStore
	logger *slog.Logger
}

func NewService(repo accountStore, logger *slog.Logger) *Service {
	logger.Debug("Initializing auth service")

	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// Verify is the strategy verification callback: it links the profile to a
// local account. Provider tokens are not stored.
func (s *Service) Verify(ctx context.Context, accessToken, refreshToken string, profile *strategy.Profile) (*Account, error) {
	if profile == nil || profile.ID == "" {
		return nil, errors.Unauthorized("provider returned no user identity")
	}

	logger := s.logger.With("provider", profile.Provider, "provider_user_id", profile.ID)

	account, err := s.repo.UpsertAccount(ctx, profile.Provider, profile.ID, profile.Username, profile.Avatar, profile.Raw)
	if err != nil {
		logger.Error("Failed to link oauth account", "error", err)
		return nil, err
	}

	logger.Info("OAuth account linked",
		"account_id", account.ID,
		"has_refresh_token", refreshToken != "")

	return account, nil
}

func (s *Service) GetAccount(ctx context.Context, id int) (*Account, error) {
	return s.repo.GetAccountByID(ctx, id)
}
