package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"flyme-auth/internal/auth/strategy"
	"flyme-auth/internal/shared/errors"
)

const (
	FlymeName = "flyme"

	DefaultFlymeAuthorizationURL = "https://open-api.flyme.cn/oauth/authorize"
	DefaultFlymeTokenURL         = "https://open-api.flyme.cn/oauth/token"
	DefaultFlymeUserProfileURL   = "https://open-api.flyme.cn/v2/me"

	// flymeSuccessCode is the envelope code Flyme returns on success. The
	// HTTP status alone does not indicate success.
	flymeSuccessCode = "200"
)

// FlymeOptions configures the Flyme strategy. Client credentials and the
// callback URL are passed through unvalidated.
type FlymeOptions struct {
	ClientID         string
	ClientSecret     string
	CallbackURL      string
	AuthorizationURL string
	TokenURL         string
	UserProfileURL   string
	Scopes           []string
	HTTPClient       *http.Client
}

// StatusError carries the envelope code of a profile response Flyme
// rejected at the application level.
type StatusError struct {
	Code string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("flyme API returned code %q", e.Code)
}

type flymeProfileResponse struct {
	Code  any        `json:"code"`
	Value *flymeUser `json:"value"`
}

type flymeUser struct {
	OpenID   string `json:"openId"`
	Nickname string `json:"nickname"`
	Icon     string `json:"icon"`
}

type FlymeProvider struct {
	authorizationURL string
	tokenURL         string
	userProfileURL   string
}

// NewFlymeProvider creates the Flyme provider, applying default endpoints
// for any URL left empty.
func NewFlymeProvider(opts FlymeOptions) *FlymeProvider {
	p := &FlymeProvider{
		authorizationURL: opts.AuthorizationURL,
		tokenURL:         opts.TokenURL,
		userProfileURL:   opts.UserProfileURL,
	}
	if p.authorizationURL == "" {
		p.authorizationURL = DefaultFlymeAuthorizationURL
	}
	if p.tokenURL == "" {
		p.tokenURL = DefaultFlymeTokenURL
	}
	if p.userProfileURL == "" {
		p.userProfileURL = DefaultFlymeUserProfileURL
	}
	return p
}

// NewFlymeStrategy builds a login strategy for Flyme. verify is handed to the
// strategy unchanged. Profile requests carry the token in the Authorization
// header.
func NewFlymeStrategy[U any](opts FlymeOptions, verify strategy.VerifyFunc[U]) *strategy.Strategy[U] {
	return strategy.New[U](NewFlymeProvider(opts), strategy.Options{
		ClientID:                     opts.ClientID,
		ClientSecret:                 opts.ClientSecret,
		CallbackURL:                  opts.CallbackURL,
		Scopes:                       opts.Scopes,
		UseAuthorizationHeaderForGET: true,
		HTTPClient:                   opts.HTTPClient,
	}, verify)
}

func (p *FlymeProvider) Name() string { return FlymeName }

func (p *FlymeProvider) AuthorizationURL() string { return p.authorizationURL }

func (p *FlymeProvider) TokenURL() string { return p.tokenURL }

func (p *FlymeProvider) UserProfileURL() string { return p.userProfileURL }

// FetchProfile retrieves the current user from the Flyme "me" endpoint and
// normalizes it. It never retries.
func (p *FlymeProvider) FetchProfile(ctx context.Context, fetcher strategy.ResourceFetcher, accessToken string) (*strategy.Profile, error) {
	logger := slog.With("provider", FlymeName, "operation", "fetch_profile")
	logger.Debug("Requesting user profile from Flyme API")

	body, _, err := fetcher.GetProtectedResource(ctx, p.userProfileURL, accessToken)
	if err != nil {
		logger.Debug("Flyme profile request failed", "error", err)
		return nil, errors.WrapExternal("failed to fetch user profile", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		logger.Debug("Flyme profile body is not JSON", "error", err, "body_bytes", len(body))
		return nil, errors.WrapParse("failed to parse user profile", err)
	}
	if raw == nil {
		return nil, errors.WrapParse("failed to parse user profile", fmt.Errorf("empty profile body"))
	}

	var envelope flymeProfileResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, errors.WrapParse("failed to parse user profile", err)
	}

	if code, _ := envelope.Code.(string); code != flymeSuccessCode {
		statusErr := &StatusError{}
		if envelope.Code != nil {
			statusErr.Code = fmt.Sprint(envelope.Code)
		}
		logger.Debug("Flyme API rejected profile request", "code", statusErr.Code)
		return nil, errors.WrapExternal("failed to fetch user profile", statusErr)
	}

	if envelope.Value == nil {
		return nil, errors.WrapParse("failed to parse user profile", fmt.Errorf("missing value envelope"))
	}
	if envelope.Value.OpenID == "" {
		return nil, errors.WrapParse("failed to parse user profile", fmt.Errorf("missing openId"))
	}

	logger.Debug("Successfully retrieved Flyme user profile",
		"open_id", envelope.Value.OpenID,
		"has_nickname", envelope.Value.Nickname != "",
		"has_icon", envelope.Value.Icon != "")

	return &strategy.Profile{
		Provider: FlymeName,
		ID:       envelope.Value.OpenID,
		Username: envelope.Value.Nickname,
		Avatar:   envelope.Value.Icon,
		Raw:      body,
		JSON:     raw,
	}, nil
}
