package auth

import (
	"context"
	"database/sql"

	"flyme-auth/internal/shared/database"
	"flyme-auth/internal/shared/errors"
)

type Repository struct {
	db *database.DB
}

func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

// UpsertAccount links a provider identity to an account, refreshing the
// stored profile on every login.
func (r *Repository) UpsertAccount(ctx context.Context, provider, providerUserID, username, avatarURL string, rawProfile []byte) (*Account, error) {
	query := `
		INSERT INTO oauth_accounts (provider, provider_user_id, username, avatar_url, raw_profile)
		VALUES ($1, $2, $3, $4, NULLIF($5, '')::jsonb)
		ON CONFLICT (provider, provider_user_id) DO UPDATE
		SET username = EXCLUDED.username,
		    avatar_url = EXCLUDED.avatar_url,
		    raw_profile = EXCLUDED.raw_profile,
		    last_login_at = NOW()
		RETURNING id, provider, provider_user_id, username, avatar_url, created_at, last_login_at
	`

	var a Account
	err := r.db.QueryRowContext(ctx, query, provider, providerUserID, username, avatarURL, string(rawProfile)).Scan(
		&a.ID, &a.Provider, &a.ProviderUserID, &a.Username, &a.AvatarURL, &a.CreatedAt, &a.LastLoginAt,
	)
	if err != nil {
		return nil, errors.WrapInternal("failed to upsert oauth account", err)
	}

	return &a, nil
}

func (r *Repository) GetAccountByID(ctx context.Context, id int) (*Account, error) {
	query := `
		SELECT id, provider, provider_user_id, username, avatar_url, created_at, last_login_at
		FROM oauth_accounts
		WHERE id = $1
	`

	var a Account
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&a.ID, &a.Provider, &a.ProviderUserID, &a.Username, &a.AvatarURL, &a.CreatedAt, &a.LastLoginAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFoundf("account not found: %d", id)
		}
		return nil, errors.WrapInternal("failed to get account", err)
	}

	return &a, nil
}
