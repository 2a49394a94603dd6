// Package config loads the socialauth server configuration from SOCIALAUTH_*
// environment variables.
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"go.uber.org/zap/zapcore"

	"github.com/jeremyhahn/go-socialauth/pkg/statestore"
)

// Prefix is prepended to every variable name.
const Prefix = "SOCIALAUTH_"

var (
	// ErrInvalidConfig indicates a value failed validation.
	ErrInvalidConfig = errors.New("config: invalid configuration")

	// ErrNoProviders indicates no provider has credentials configured.
	ErrNoProviders = errors.New("config: no providers configured")
)

// Config is the complete server configuration.
type Config struct {
	// ListenAddr is the HTTP listen address.
	ListenAddr string `env:"LISTEN_ADDR" envDefault:":8080"`

	// BaseURL is the externally visible origin. Callback URLs are derived as
	// BaseURL + "/auth/<provider>/callback".
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:8080"`

	// Timeout bounds each outbound provider call.
	Timeout time.Duration `env:"TIMEOUT" envDefault:"10s"`

	Cookie CookieConfig `envPrefix:"COOKIE_"`
	Log    LogConfig    `envPrefix:"LOG_"`

	Google   ProviderCredentials `envPrefix:"GOOGLE_"`
	GitHub   ProviderCredentials `envPrefix:"GITHUB_"`
	Facebook ProviderCredentials `envPrefix:"FACEBOOK_"`
	Twitter  TwitterCredentials  `envPrefix:"TWITTER_"`
}

// CookieConfig controls the flow-state cookie.
type CookieConfig struct {
	Secure bool          `env:"SECURE" envDefault:"true"`
	MaxAge time.Duration `env:"MAX_AGE" envDefault:"10m"`
	Domain string        `env:"DOMAIN"`

	// HashKey and BlockKey are base64 encoded. Without a hash key the cookie is
	// written unsigned.
	HashKey  string `env:"HASH_KEY"`
	BlockKey string `env:"BLOCK_KEY"`
}

// LogConfig selects the zap logger.
type LogConfig struct {
	Level             string `env:"LEVEL" envDefault:"info"`
	Format            string `env:"FORMAT" envDefault:"json"`
	DisableStacktrace bool   `env:"DISABLE_STACKTRACE"`
}

// ProviderCredentials holds OAuth2 client credentials.
type ProviderCredentials struct {
	ClientID     string   `env:"CLIENT_ID"`
	ClientSecret string   `env:"CLIENT_SECRET"`
	Scopes       []string `env:"SCOPES" envSeparator:","`
}

// Enabled reports whether the provider should be registered.
func (p ProviderCredentials) Enabled() bool {
	return p.ClientID != ""
}

// TwitterCredentials holds OAuth1a consumer credentials.
type TwitterCredentials struct {
	ConsumerKey    string `env:"CONSUMER_KEY"`
	ConsumerSecret string `env:"CONSUMER_SECRET"`
}

// Enabled reports whether Twitter should be registered.
func (t TwitterCredentials) Enabled() bool {
	return t.ConsumerKey != ""
}

// Load parses the process environment and validates the result.
func Load() (*Config, error) {
	return LoadFrom(nil)
}

// LoadFrom parses environ instead of the process environment when non-nil.
func LoadFrom(environ map[string]string) (*Config, error) {
	opts := env.Options{Prefix: Prefix}
	if environ != nil {
		opts.Environment = environ
	}

	cfg, err := env.ParseAsWithOptions[Config](opts)
	if err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: base url %q must be absolute", ErrInvalidConfig, c.BaseURL)
	}
	c.BaseURL = strings.TrimSuffix(c.BaseURL, "/")

	if c.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive", ErrInvalidConfig)
	}
	if c.Cookie.MaxAge < statestore.MinMaxAge || c.Cookie.MaxAge > statestore.MaxMaxAge {
		return fmt.Errorf("%w: cookie max age must be between %s and %s",
			ErrInvalidConfig, statestore.MinMaxAge, statestore.MaxMaxAge)
	}

	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log level: %v", ErrInvalidConfig, err)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("%w: log format %q", ErrInvalidConfig, c.Log.Format)
	}

	if _, err := c.Codec(); err != nil {
		return err
	}

	if !c.Google.Enabled() && !c.GitHub.Enabled() && !c.Facebook.Enabled() && !c.Twitter.Enabled() {
		return ErrNoProviders
	}

	// Google runs PKCE and may omit the secret; the others exchange with it.
	if c.GitHub.Enabled() && c.GitHub.ClientSecret == "" {
		return fmt.Errorf("%w: github client secret is required", ErrInvalidConfig)
	}
	if c.Facebook.Enabled() && c.Facebook.ClientSecret == "" {
		return fmt.Errorf("%w: facebook client secret is required", ErrInvalidConfig)
	}
	if c.Twitter.Enabled() && c.Twitter.ConsumerSecret == "" {
		return fmt.Errorf("%w: twitter consumer secret is required", ErrInvalidConfig)
	}
	return nil
}

// CallbackURL returns the redirect URI registered for provider.
func (c *Config) CallbackURL(provider string) string {
	return c.BaseURL + "/auth/" + provider + "/callback"
}

// CookieOptions converts the cookie settings for the strategies.
func (c *Config) CookieOptions() statestore.CookieOptions {
	return statestore.CookieOptions{
		Secure: c.Cookie.Secure,
		MaxAge: c.Cookie.MaxAge,
		Domain: c.Cookie.Domain,
	}
}

// Codec returns a SecureCodec when a hash key is configured, PlainCodec otherwise.
func (c *Config) Codec() (statestore.Codec, error) {
	if c.Cookie.HashKey == "" {
		if c.Cookie.BlockKey != "" {
			return nil, fmt.Errorf("%w: cookie block key requires a hash key", ErrInvalidConfig)
		}
		return statestore.PlainCodec{}, nil
	}

	hashKey, err := base64.StdEncoding.DecodeString(c.Cookie.HashKey)
	if err != nil {
		return nil, fmt.Errorf("%w: cookie hash key: %v", ErrInvalidConfig, err)
	}
	var blockKey []byte
	if c.Cookie.BlockKey != "" {
		if blockKey, err = base64.StdEncoding.DecodeString(c.Cookie.BlockKey); err != nil {
			return nil, fmt.Errorf("%w: cookie block key: %v", ErrInvalidConfig, err)
		}
	}

	codec, err := statestore.NewSecureCodec(hashKey, blockKey, int(c.Cookie.MaxAge/time.Second))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return codec, nil
}
