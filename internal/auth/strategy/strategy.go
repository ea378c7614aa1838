// Package strategy wraps golang.org/x/oauth2 into a provider-agnostic login
// strategy. Provider packages supply endpoints and profile normalization
// through the Provider interface; the strategy owns the handshake.
package strategy

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"flyme-auth/internal/shared/errors"

	"golang.org/x/oauth2"
)

// Profile is the normalized user profile every provider returns.
type Profile struct {
	Provider string
	ID       string
	Username string
	Avatar   string

	// Raw is the profile response body as received.
	Raw []byte
	// JSON is Raw decoded without a schema, for provider specific fields.
	JSON map[string]any
}

// ResourceFetcher performs authenticated GET requests against a provider API.
type ResourceFetcher interface {
	GetProtectedResource(ctx context.Context, resourceURL, accessToken string) ([]byte, *http.Response, error)
}

// Provider is the capability a provider package implements to plug into a Strategy.
type Provider interface {
	Name() string
	AuthorizationURL() string
	TokenURL() string
	FetchProfile(ctx context.Context, fetcher ResourceFetcher, accessToken string) (*Profile, error)
}

// VerifyFunc maps a fetched profile to an application user. It is called once
// per successful handshake.
type VerifyFunc[U any] func(ctx context.Context, accessToken, refreshToken string, profile *Profile) (U, error)

type Options struct {
	ClientID     string
	ClientSecret string
	CallbackURL  string
	Scopes       []string

	// UseAuthorizationHeaderForGET sends the access token as a bearer
	// Authorization header instead of an access_token query parameter.
	UseAuthorizationHeaderForGET bool

	// HTTPClient replaces http.DefaultClient for token and resource requests.
	HTTPClient *http.Client
}

// HTTPStatusError is returned by GetProtectedResource for non-2xx responses.
type HTTPStatusError struct {
	StatusCode int
	Body       []byte
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.StatusCode)
}

type Strategy[U any] struct {
	provider      Provider
	config        *oauth2.Config
	verify        VerifyFunc[U]
	useAuthHeader bool
	httpClient    *http.Client
}

func New[U any](provider Provider, opts Options, verify VerifyFunc[U]) *Strategy[U] {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Strategy[U]{
		provider: provider,
		config: &oauth2.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			RedirectURL:  opts.CallbackURL,
			Scopes:       opts.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  provider.AuthorizationURL(),
				TokenURL: provider.TokenURL(),
			},
		},
		verify:        verify,
		useAuthHeader: opts.UseAuthorizationHeaderForGET,
		httpClient:    httpClient,
	}
}

func (s *Strategy[U]) Name() string { return s.provider.Name() }

// Config exposes the underlying x/oauth2 configuration, e.g. for token refresh.
func (s *Strategy[U]) Config() *oauth2.Config { return s.config }

// UsesAuthorizationHeader reports how access tokens are sent on resource requests.
func (s *Strategy[U]) UsesAuthorizationHeader() bool { return s.useAuthHeader }

func (s *Strategy[U]) AuthCodeURL(state string, opts ...oauth2.AuthCodeOption) string {
	return s.config.AuthCodeURL(state, opts...)
}

func (s *Strategy[U]) clientContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
}

// Exchange trades an authorization code for tokens
func (s *Strategy[U]) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	logger := slog.With("provider", s.Name(), "operation", "exchange_code")
	logger.Debug("Exchanging authorization code for access token")

	token, err := s.config.Exchange(s.clientContext(ctx), code)
	if err != nil {
		logger.Error("Failed to exchange authorization code", "error", err)
		return nil, errors.WrapExternal("failed to obtain access token", err)
	}

	logger.Debug("Successfully exchanged code for token")
	return token, nil
}

// GetProtectedResource issues an authenticated GET and returns the full body.
// Responses outside the 2xx range fail with *HTTPStatusError.
func (s *Strategy[U]) GetProtectedResource(ctx context.Context, resourceURL, accessToken string) ([]byte, *http.Response, error) {
	client := s.httpClient
	target := resourceURL

	if s.useAuthHeader {
		client = s.config.Client(s.clientContext(ctx), &oauth2.Token{
			AccessToken: accessToken,
			TokenType:   "Bearer",
		})
	} else {
		u, err := url.Parse(resourceURL)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid resource URL: %w", err)
		}
		q := u.Query()
		q.Set("access_token", accessToken)
		u.RawQuery = q.Encode()
		target = u.String()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Error("Failed to close response body", "provider", s.Name(), "error", err)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return body, resp, &HTTPStatusError{StatusCode: resp.StatusCode, Body: body}
	}

	return body, resp, nil
}

// UserProfile fetches the normalized profile for an access token.
func (s *Strategy[U]) UserProfile(ctx context.Context, accessToken string) (*Profile, error) {
	return s.provider.FetchProfile(ctx, s, accessToken)
}

// Authenticate completes the callback leg: code exchange, profile fetch and
// verification. Any failure is returned as is; nothing is retried.
func (s *Strategy[U]) Authenticate(ctx context.Context, code string) (U, *Profile, error) {
	var zero U

	token, err := s.Exchange(ctx, code)
	if err != nil {
		return zero, nil, err
	}

	profile, err := s.UserProfile(ctx, token.AccessToken)
	if err != nil {
		return zero, nil, err
	}

	user, err := s.verify(ctx, token.AccessToken, token.RefreshToken, profile)
	if err != nil {
		return zero, profile, err
	}

	return user, profile, nil
}
