package auth

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"flyme-auth/internal/auth/strategy"
	"flyme-auth/internal/shared/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryAccounts struct {
	byKey  map[string]*Account
	nextID int
	err    error
}

func newMemoryAccounts() *memoryAccounts {
	return &memoryAccounts{byKey: make(map[string]*Account)}
}

func (m *memoryAccounts) UpsertAccount(_ context.Context, provider, providerUserID, username, avatarURL string, _ []byte) (*Account, error) {
	if m.err != nil {
		return nil, m.err
	}
	key := provider + ":" + providerUserID
	a, ok := m.byKey[key]
	if !ok {
		m.nextID++
		a = &Account{ID: m.nextID, Provider: provider, ProviderUserID: providerUserID}
		m.byKey[key] = a
	}
	a.Username = username
	a.AvatarURL = avatarURL
	return a, nil
}

func (m *memoryAccounts) GetAccountByID(_ context.Context, id int) (*Account, error) {
	for _, a := range m.byKey {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, errors.NotFoundf("account not found: %d", id)
}

func newTestService(store accountStore) *Service {
	return NewService(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestVerify_LinksAndRefreshesAccount(t *testing.T) {
	store := newMemoryAccounts()
	svc := newTestService(store)
	ctx := context.Background()

	first, err := svc.Verify(ctx, "at", "", &strategy.Profile{Provider: "flyme", ID: "u1", Username: "Alice"})
	require.NoError(t, err)

	second, err := svc.Verify(ctx, "at", "rt", &strategy.Profile{Provider: "flyme", ID: "u1", Username: "Alice W", Avatar: "http://x/a.png"})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Alice W", second.Username)
	assert.Equal(t, "http://x/a.png", second.AvatarURL)

	got, err := svc.GetAccount(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ProviderUserID)
}

func TestVerify_RejectsEmptyIdentity(t *testing.T) {
	svc := newTestService(newMemoryAccounts())

	_, err := svc.Verify(context.Background(), "at", "", &strategy.Profile{Provider: "flyme"})
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeUnauthorized, errors.GetType(err))
}

func TestVerify_StoreFailure(t *testing.T) {
	store := newMemoryAccounts()
	store.err = errors.WrapInternal("failed to upsert oauth account", io.ErrClosedPipe)
	svc := newTestService(store)

	_, err := svc.Verify(context.Background(), "at", "", &strategy.Profile{Provider: "flyme", ID: "u1"})
	require.ErrorIs(t, err, io.ErrClosedPipe)
}
