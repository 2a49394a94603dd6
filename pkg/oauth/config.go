package oauth

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/jeremyhahn/go-socialauth/pkg/statestore"
	"github.com/jeremyhahn/go-socialauth/pkg/strategy"
)

// Variant selects how the authorization code is bound to the browser.
type Variant string

const (
	// VariantPKCE binds the code with an S256 code challenge (RFC 7636).
	VariantPKCE Variant = "pkce"

	// VariantSimple relies on the state parameter and client secret only.
	VariantSimple Variant = "simple"
)

// IDTokenConfig enables verification of an id_token returned by the token endpoint.
type IDTokenConfig struct {
	// JWKSURL is the provider's signing key set.
	JWKSURL string

	// Issuers lists accepted iss values. Empty accepts any issuer.
	Issuers []string

	// Keyfunc overrides JWKSURL with a preloaded key function.
	Keyfunc jwt.Keyfunc
}

func (c IDTokenConfig) enabled() bool {
	return c.JWKSURL != "" || c.Keyfunc != nil
}

// Config contains the complete OAuth2 strategy configuration. New copies it, so
// later changes by the caller have no effect on a running strategy.
type Config struct {
	// Provider supplies endpoint defaults, extra authorization parameters and the
	// profile fetcher. Required.
	Provider Provider

	// Variant defaults to the provider's preferred variant.
	Variant Variant

	// ClientID is the OAuth client identifier.
	ClientID string

	// ClientSecret is the OAuth client secret.
	ClientSecret string

	// AuthorizationEndpoint, TokenEndpoint, UserInfoEndpoint and RevocationEndpoint
	// default to the provider's endpoints when empty.
	AuthorizationEndpoint string
	TokenEndpoint         string
	UserInfoEndpoint      string
	RevocationEndpoint    string

	// Scopes defaults to the provider's scopes when empty.
	Scopes []string

	// RedirectURI is the callback URL. The same value is sent at authorization
	// and at token exchange.
	RedirectURI string

	// CodeChallengeMethods lists methods the provider advertises (informational,
	// filled by discovery).
	CodeChallengeMethods []string

	// AuthStyle selects client authentication at the token endpoint.
	// oauth2.AuthStyleAutoDetect is treated as oauth2.AuthStyleInParams.
	AuthStyle oauth2.AuthStyle

	// CookieName defaults to "<provider>_oauth2_state".
	CookieName string

	// Cookie controls the flow-state cookie attributes.
	Cookie statestore.CookieOptions

	// Codec encodes the flow-state cookie. Defaults to statestore.PlainCodec.
	Codec statestore.Codec

	// IDToken enables id_token verification.
	IDToken IDTokenConfig

	// Timeout bounds each outbound call. Default: 10 seconds.
	Timeout time.Duration

	// HTTPClient overrides the default outbound client.
	HTTPClient strategy.HTTPClient

	// Logger receives flow events. Default: no-op.
	Logger *zap.Logger
}

// Validate checks the configuration and fills defaults from the provider.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: config is nil", ErrInvalidConfiguration)
	}

	if c.Provider == nil {
		return fmt.Errorf("%w: provider is required", ErrInvalidConfiguration)
	}

	if strings.TrimSpace(c.Provider.Name()) == "" {
		return fmt.Errorf("%w: provider name is required", ErrInvalidConfiguration)
	}

	if strings.TrimSpace(c.ClientID) == "" {
		return fmt.Errorf("%w: client_id is required", ErrInvalidConfiguration)
	}

	defaults := c.Provider.Defaults()
	if c.AuthorizationEndpoint == "" {
		c.AuthorizationEndpoint = defaults.AuthorizationEndpoint
	}
	if c.TokenEndpoint == "" {
		c.TokenEndpoint = defaults.TokenEndpoint
	}
	if c.UserInfoEndpoint == "" {
		c.UserInfoEndpoint = defaults.UserInfoEndpoint
	}
	if c.RevocationEndpoint == "" {
		c.RevocationEndpoint = defaults.RevocationEndpoint
	}
	if len(c.Scopes) == 0 {
		c.Scopes = append([]string(nil), defaults.Scopes...)
	} else {
		c.Scopes = append([]string(nil), c.Scopes...)
	}
	if c.Variant == "" {
		c.Variant = defaults.Variant
	}
	if c.Variant == "" {
		c.Variant = VariantPKCE
	}

	switch c.Variant {
	case VariantPKCE, VariantSimple:
	default:
		return fmt.Errorf("%w: unknown variant %q", ErrInvalidConfiguration, c.Variant)
	}

	if c.Variant == VariantSimple && strings.TrimSpace(c.ClientSecret) == "" {
		return fmt.Errorf("%w: client_secret required for simple variant", ErrInvalidConfiguration)
	}

	if err := requireURL("redirect_uri", c.RedirectURI); err != nil {
		return err
	}
	if err := requireURL("authorization_endpoint", c.AuthorizationEndpoint); err != nil {
		return err
	}
	if err := requireURL("token_endpoint", c.TokenEndpoint); err != nil {
		return err
	}

	if c.CookieName == "" {
		c.CookieName = c.Provider.Name() + "_oauth2_state"
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
	if c.IDToken.enabled() && len(c.IDToken.Issuers) == 0 {
		c.IDToken.Issuers = append([]string(nil), defaults.Issuers...)
	}
	c.Logger = strategy.Logger(c.Logger)

	return nil
}

func requireURL(field, raw string) error {
	if strings.TrimSpace(raw) == "" {
		return fmt.Errorf("%w: %s is required", ErrInvalidConfiguration, field)
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: %s is not an absolute url", ErrInvalidConfiguration, field)
	}
	return nil
}
