package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/jeremyhahn/go-socialauth/pkg/strategy"
)

// DiscoveryDocument is the subset of an OpenID Provider configuration used to
// build a strategy.
type DiscoveryDocument struct {
	Issuer                        string   `json:"issuer"`
	AuthorizationEndpoint         string   `json:"authorization_endpoint"`
	TokenEndpoint                 string   `json:"token_endpoint"`
	UserInfoEndpoint              string   `json:"userinfo_endpoint"`
	RevocationEndpoint            string   `json:"revocation_endpoint"`
	JWKSURI                       string   `json:"jwks_uri"`
	ScopesSupported               []string `json:"scopes_supported"`
	CodeChallengeMethodsSupported []string `json:"code_challenge_methods_supported"`
}

// Validate checks that required fields are present.
func (d *DiscoveryDocument) Validate() error {
	if d.Issuer == "" {
		return fmt.Errorf("%w: issuer is required", ErrDiscoveryFailed)
	}
	if d.AuthorizationEndpoint == "" {
		return fmt.Errorf("%w: authorization_endpoint is required", ErrDiscoveryFailed)
	}
	if d.TokenEndpoint == "" {
		return fmt.Errorf("%w: token_endpoint is required", ErrDiscoveryFailed)
	}
	return nil
}

// SupportsPKCE reports whether S256 code challenges are advertised.
func (d *DiscoveryDocument) SupportsPKCE() bool {
	return slices.Contains(d.CodeChallengeMethodsSupported, "S256")
}

// FetchDiscovery retrieves {issuer}/.well-known/openid-configuration. The
// document's issuer must equal the requested one.
func FetchDiscovery(ctx context.Context, client strategy.HTTPClient, issuer string) (*DiscoveryDocument, error) {
	return fetchDiscovery(ctx, client, issuer, strategy.DefaultTimeout)
}

func fetchDiscovery(ctx context.Context, client strategy.HTTPClient, issuer string, timeout time.Duration) (*DiscoveryDocument, error) {
	if timeout <= 0 {
		timeout = strategy.DefaultTimeout
	}
	if client == nil {
		client = strategy.NewHTTPClient(timeout, nil)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, buildDiscoveryURL(issuer), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create discovery request: %v", ErrDiscoveryFailed, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := strategy.Fetch(ctx, client, req, timeout)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDiscoveryFailed, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrDiscoveryFailed, resp.StatusCode)
	}

	var doc DiscoveryDocument
	if err := json.Unmarshal(resp.Body, &doc); err != nil {
		return nil, fmt.Errorf("%w: failed to parse discovery document: %v", ErrDiscoveryFailed, err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSuffix(doc.Issuer, "/") != strings.TrimSuffix(issuer, "/") {
		return nil, fmt.Errorf("%w: issuer mismatch: got %q, want %q", ErrDiscoveryFailed, doc.Issuer, issuer)
	}
	return &doc, nil
}

// Discover builds a strategy from an issuer's discovery document. Non-empty
// fields in overrides win over discovered values. When overrides.Provider is
// nil, a custom OIDC provider named after the issuer host is used. The
// document is fetched with overrides.HTTPClient and overrides.Timeout.
func Discover[U any](ctx context.Context, issuer string, overrides Config, verify strategy.VerifyFunc[U]) (*Strategy[U], error) {
	doc, err := fetchDiscovery(ctx, overrides.HTTPClient, issuer, overrides.Timeout)
	if err != nil {
		return nil, err
	}

	cfg := overrides
	if cfg.Provider == nil {
		u, err := url.Parse(doc.Issuer)
		if err != nil || u.Host == "" {
			return nil, fmt.Errorf("%w: issuer is not a url", ErrDiscoveryFailed)
		}
		p, err := CustomProvider(ProviderConfig{ProviderName: u.Hostname()})
		if err != nil {
			return nil, err
		}
		cfg.Provider = p
	}

	if cfg.AuthorizationEndpoint == "" {
		cfg.AuthorizationEndpoint = doc.AuthorizationEndpoint
	}
	if cfg.TokenEndpoint == "" {
		cfg.TokenEndpoint = doc.TokenEndpoint
	}
	if cfg.UserInfoEndpoint == "" {
		cfg.UserInfoEndpoint = doc.UserInfoEndpoint
	}
	if cfg.RevocationEndpoint == "" {
		cfg.RevocationEndpoint = doc.RevocationEndpoint
	}
	if len(cfg.CodeChallengeMethods) == 0 {
		cfg.CodeChallengeMethods = doc.CodeChallengeMethodsSupported
	}
	if cfg.Variant == "" {
		if doc.SupportsPKCE() {
			cfg.Variant = VariantPKCE
		} else {
			cfg.Variant = VariantSimple
		}
	}
	if cfg.IDToken.enabled() && len(cfg.IDToken.Issuers) == 0 {
		cfg.IDToken.Issuers = []string{doc.Issuer}
	}

	return New(cfg, verify)
}

func buildDiscoveryURL(issuer string) string {
	issuer = strings.TrimSpace(issuer)
	issuer = strings.TrimSuffix(issuer, "/")
	return issuer + "/.well-known/openid-configuration"
}
