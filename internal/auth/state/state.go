// Package state issues and validates single-use OAuth state tokens.
package state

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"
	"time"
)

const DefaultTTL = 10 * time.Minute

type Entry struct {
	CreatedAt   time.Time `json:"created_at"`
	Provider    string    `json:"provider"`
	UserAgent   string    `json:"user_agent"`
	RedirectURI string    `json:"redirect_uri"`
}

// Backend stores entries for at most ttl. Take must remove the entry it returns.
type Backend interface {
	Put(ctx context.Context, state string, entry Entry, ttl time.Duration) error
	Take(ctx context.Context, state string) (*Entry, bool, error)
}

type Manager struct {
	backend Backend
	ttl     time.Duration
	now     func() time.Time
}

func NewManager(backend Backend, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{backend: backend, ttl: ttl, now: time.Now}
}

// Generate creates a new state token and stores it for validation
func (m *Manager) Generate(ctx context.Context, provider, userAgent, redirectURI string) (string, error) {
	logger := slog.With("component", "state_manager", "operation", "generate", "provider", provider)

	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		logger.Error("Failed to generate random bytes for state token", "error", err)
		return "", fmt.Errorf("failed to generate state token: %w", err)
	}

	state := base64.RawURLEncoding.EncodeToString(b)

	entry := Entry{
		CreatedAt:   m.now(),
		Provider:    provider,
		UserAgent:   userAgent,
		RedirectURI: redirectURI,
	}
	if err := m.backend.Put(ctx, state, entry, m.ttl); err != nil {
		logger.Error("Failed to store state token", "error", err)
		return "", fmt.Errorf("failed to store state token: %w", err)
	}

	logger.Debug("OAuth state token generated and stored",
		"state_length", len(state),
		"user_agent_length", len(userAgent))

	return state, nil
}

// Validate checks the state token and consumes it (one-time use)
func (m *Manager) Validate(ctx context.Context, state, provider, userAgent string) (*Entry, error) {
	logger := slog.With("component", "state_manager", "operation", "validate", "provider", provider)

	if state == "" {
		logger.Warn("Empty state token provided")
		return nil, fmt.Errorf("state token is required")
	}

	entry, exists, err := m.backend.Take(ctx, state)
	if err != nil {
		logger.Error("Failed to load state token", "error", err)
		return nil, fmt.Errorf("failed to load state token: %w", err)
	}
	if !exists {
		logger.Warn("Invalid or expired state token", "state_exists", false)
		return nil, fmt.Errorf("invalid or expired state token")
	}

	age := m.now().Sub(entry.CreatedAt)
	if age > m.ttl {
		logger.Warn("Expired state token",
			"created_at", entry.CreatedAt,
			"age_minutes", age.Minutes())
		return nil, fmt.Errorf("state token has expired")
	}

	if entry.Provider != provider {
		logger.Warn("State token provider mismatch",
			"expected_provider", entry.Provider,
			"received_provider", provider)
		return nil, fmt.Errorf("state token provider mismatch")
	}

	// A user agent mismatch is logged but not rejected.
	if entry.UserAgent != userAgent {
		logger.Warn("State token user agent mismatch - possible session hijacking attempt",
			"stored_user_agent", entry.UserAgent,
			"received_user_agent", userAgent)
	}

	logger.Debug("State token validated successfully",
		"token_age_seconds", age.Seconds())

	return entry, nil
}
