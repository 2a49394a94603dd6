package oauth

import (
	"context"
	"net/url"

	"github.com/jeremyhahn/go-socialauth/pkg/strategy"
)

// GoogleIssuer is Google's OpenID Connect issuer.
const GoogleIssuer = "https://accounts.google.com"

// GoogleProvider is Google's OpenID Connect provider. The zero value is usable.
type GoogleProvider struct {
	// AccessType "offline" requests a refresh token.
	AccessType string

	// Prompt is passed through (e.g. "consent", "select_account").
	Prompt string

	// HostedDomain restricts sign-in to a Google Workspace domain.
	HostedDomain string

	// IncludeGrantedScopes enables incremental authorization.
	IncludeGrantedScopes bool
}

// Google returns a pre-configured Google provider.
func Google() *GoogleProvider {
	return &GoogleProvider{}
}

func (p *GoogleProvider) Name() string { return "google" }

func (p *GoogleProvider) Defaults() Endpoints {
	return Endpoints{
		AuthorizationEndpoint: "https://accounts.google.com/o/oauth2/v2/auth",
		TokenEndpoint:         "https://oauth2.googleapis.com/token",
		UserInfoEndpoint:      "https://openidconnect.googleapis.com/v1/userinfo",
		RevocationEndpoint:    "https://oauth2.googleapis.com/revoke",
		JWKSURL:               "https://www.googleapis.com/oauth2/v3/certs",
		Issuers:               []string{GoogleIssuer, "accounts.google.com"},
		Scopes:                []string{"openid", "email", "profile"},
		Variant:               VariantPKCE,
	}
}

func (p *GoogleProvider) AuthorizationParams() url.Values {
	v := url.Values{}
	if p.AccessType != "" {
		v.Set("access_type", p.AccessType)
	}
	if p.Prompt != "" {
		v.Set("prompt", p.Prompt)
	}
	if p.HostedDomain != "" {
		v.Set("hd", p.HostedDomain)
	}
	if p.IncludeGrantedScopes {
		v.Set("include_granted_scopes", "true")
	}
	return v
}

func (p *GoogleProvider) FetchProfile(ctx context.Context, req ProfileRequest) (*strategy.Profile, error) {
	body, err := req.get(ctx, req.UserInfoEndpoint, nil)
	if err != nil {
		return nil, err
	}
	return NormalizeGoogle(body)
}
