package oauth1

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jeremyhahn/go-socialauth/pkg/statestore"
	"github.com/jeremyhahn/go-socialauth/pkg/strategy"
)

// Endpoints are the defaults a provider contributes to Config.
type Endpoints struct {
	RequestTokenURL  string
	AuthorizationURL string
	AccessTokenURL   string
	ProfileURL       string
}

// ProfileRequest carries what a provider needs to fetch the user's profile.
type ProfileRequest struct {
	Client     strategy.HTTPClient
	Timeout    time.Duration
	Signer     *Signer
	ProfileURL string
	Tokens     *strategy.TokenSet
}

// Provider defines the per-provider behavior of the OAuth1a strategy.
type Provider interface {
	Name() string
	Defaults() Endpoints

	// AuthorizationParams are added to the authorization redirect next to
	// oauth_token.
	AuthorizationParams() url.Values

	FetchProfile(ctx context.Context, req ProfileRequest) (*strategy.Profile, error)
}

// Config contains the OAuth1a strategy configuration.
type Config struct {
	// Provider is required.
	Provider Provider

	ConsumerKey    string
	ConsumerSecret string

	// CallbackURL is sent as oauth_callback with the request-token call.
	CallbackURL string

	// RequestTokenURL, AuthorizationURL, AccessTokenURL and ProfileURL default
	// to the provider's endpoints.
	RequestTokenURL  string
	AuthorizationURL string
	AccessTokenURL   string
	ProfileURL       string

	// CookieName defaults to "<provider>_oauth1_state".
	CookieName string
	Cookie     statestore.CookieOptions
	Codec      statestore.Codec

	// Timeout bounds each outbound call. Default: 10 seconds.
	Timeout    time.Duration
	HTTPClient strategy.HTTPClient
	Logger     *zap.Logger

	// Now and Nonce override the signer's clock and nonce source.
	Now   func() time.Time
	Nonce func() string
}

// Validate checks the configuration and fills defaults from the provider.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: config is nil", ErrInvalidConfiguration)
	}
	if c.Provider == nil {
		return fmt.Errorf("%w: provider is required", ErrInvalidConfiguration)
	}
	if strings.TrimSpace(c.ConsumerKey) == "" {
		return fmt.Errorf("%w: consumer key is required", ErrInvalidConfiguration)
	}
	if strings.TrimSpace(c.ConsumerSecret) == "" {
		return fmt.Errorf("%w: consumer secret is required", ErrInvalidConfiguration)
	}

	d := c.Provider.Defaults()
	if c.RequestTokenURL == "" {
		c.RequestTokenURL = d.RequestTokenURL
	}
	if c.AuthorizationURL == "" {
		c.AuthorizationURL = d.AuthorizationURL
	}
	if c.AccessTokenURL == "" {
		c.AccessTokenURL = d.AccessTokenURL
	}
	if c.ProfileURL == "" {
		c.ProfileURL = d.ProfileURL
	}

	for _, f := range []struct{ name, value string }{
		{"callback_url", c.CallbackURL},
		{"request_token_url", c.RequestTokenURL},
		{"authorization_url", c.AuthorizationURL},
		{"access_token_url", c.AccessTokenURL},
		{"profile_url", c.ProfileURL},
	} {
		u, err := url.Parse(f.value)
		if f.value == "" || err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%w: %s must be an absolute url", ErrInvalidConfiguration, f.name)
		}
	}

	if c.CookieName == "" {
		c.CookieName = c.Provider.Name() + "_oauth1_state"
	}
	if c.Codec == nil {
		c.Codec = statestore.PlainCodec{}
	}
	if c.Timeout <= 0 {
		c.Timeout = strategy.DefaultTimeout
	}
	if c.HTTPClient == nil {
		c.HTTPClient = strategy.NewHTTPClient(c.Timeout, nil)
	}
	c.Logger = strategy.Logger(c.Logger)

	return nil
}
