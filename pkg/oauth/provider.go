package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jeremyhahn/go-socialauth/pkg/strategy"
)

// Endpoints are the defaults a provider contributes to Config.
type Endpoints struct {
	AuthorizationEndpoint string
	TokenEndpoint         string
	UserInfoEndpoint      string
	RevocationEndpoint    string
	JWKSURL               string
	Issuers               []string
	Scopes                []string
	Variant               Variant
}

// ProfileRequest carries what a provider needs to fetch the user's profile.
type ProfileRequest struct {
	Client           strategy.HTTPClient
	Timeout          time.Duration
	UserInfoEndpoint string
	ClientSecret     string
	Tokens           *strategy.TokenSet
}

// Provider defines the per-provider behavior of the OAuth2 strategy.
type Provider interface {
	// Name returns the provider's identifier.
	Name() string

	// Defaults returns endpoint, scope and variant defaults.
	Defaults() Endpoints

	// AuthorizationParams returns non-standard query parameters added to the
	// authorization URL (e.g. access_type=offline).
	AuthorizationParams() url.Values

	// FetchProfile loads and normalizes the user's profile.
	FetchProfile(ctx context.Context, req ProfileRequest) (*strategy.Profile, error)
}

// ProviderConfig holds configuration for a custom OpenID Connect provider.
type ProviderConfig struct {
	ProviderName         string
	AuthEndpoint         string
	TokenEndpoint        string
	UserInfoEndpoint     string
	RevocationEndpoint   string
	JWKSEndpoint         string
	IssuerURL            string
	Scopes               []string
	Variant              Variant
	ExtraAuthorizeParams map[string]string
}

// customProvider implements Provider with user-supplied configuration and the
// standard OIDC claim normalizer.
type customProvider struct {
	config ProviderConfig
}

// CustomProvider creates a Provider from custom configuration.
func CustomProvider(cfg ProviderConfig) (Provider, error) {
	if strings.TrimSpace(cfg.ProviderName) == "" {
		return nil, fmt.Errorf("%w: provider name is required", ErrInvalidConfiguration)
	}
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = []string{"openid", "email", "profile"}
	}
	return &customProvider{config: cfg}, nil
}

func (p *customProvider) Name() string { return p.config.ProviderName }

func (p *customProvider) Defaults() Endpoints {
	e := Endpoints{
		AuthorizationEndpoint: p.config.AuthEndpoint,
		TokenEndpoint:         p.config.TokenEndpoint,
		UserInfoEndpoint:      p.config.UserInfoEndpoint,
		RevocationEndpoint:    p.config.RevocationEndpoint,
		JWKSURL:               p.config.JWKSEndpoint,
		Scopes:                p.config.Scopes,
		Variant:               p.config.Variant,
	}
	if p.config.IssuerURL != "" {
		e.Issuers = []string{p.config.IssuerURL}
	}
	return e
}

func (p *customProvider) AuthorizationParams() url.Values {
	v := url.Values{}
	for k, val := range p.config.ExtraAuthorizeParams {
		v.Set(k, val)
	}
	return v
}

func (p *customProvider) FetchProfile(ctx context.Context, req ProfileRequest) (*strategy.Profile, error) {
	body, err := req.get(ctx, req.UserInfoEndpoint, nil)
	if err != nil {
		return nil, err
	}
	return NormalizeOIDC(p.config.ProviderName, body)
}

// get performs an authenticated GET and returns the body of a 2xx response.
func (pr ProfileRequest) get(ctx context.Context, rawURL string, header http.Header) ([]byte, error) {
	if pr.Tokens == nil || pr.Tokens.AccessToken == "" {
		return nil, fmt.Errorf("%w: access token required for profile request", ErrInvalidConfiguration)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("oauth: failed to create profile request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+pr.Tokens.AccessToken)
	req.Header.Set("Accept", "application/json")
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := strategy.Fetch(ctx, pr.Client, req, pr.Timeout)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, errorFromResponse(resp)
	}
	if !json.Valid(resp.Body) {
		return nil, &strategy.UnexpectedResponseError{
			StatusCode: resp.StatusCode,
			Body:       string(resp.Body),
			Reason:     "profile response is not json",
		}
	}
	return resp.Body, nil
}
