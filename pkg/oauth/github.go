package oauth

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/jeremyhahn/go-socialauth/pkg/strategy"
)

const githubAPIVersion = "2022-11-28"

// GitHubProvider is GitHub's OAuth App provider. GitHub issues opaque tokens and
// has no OIDC userinfo, so the REST API is used for the profile.
type GitHubProvider struct {
	// EmailsURL lists the user's addresses when the profile email is private.
	// Defaults to https://api.github.com/user/emails.
	EmailsURL string

	// AllowSignup "false" hides the sign-up option on the consent page.
	AllowSignup string

	// Login suggests a specific account.
	Login string
}

// GitHub returns a pre-configured GitHub provider.
func GitHub() *GitHubProvider {
	return &GitHubProvider{}
}

func (p *GitHubProvider) Name() string { return "github" }

func (p *GitHubProvider) Defaults() Endpoints {
	return Endpoints{
		AuthorizationEndpoint: "https://github.com/login/oauth/authorize",
		TokenEndpoint:         "https://github.com/login/oauth/access_token",
		UserInfoEndpoint:      "https://api.github.com/user",
		Scopes:                []string{"read:user", "user:email"},
		Variant:               VariantSimple,
	}
}

func (p *GitHubProvider) AuthorizationParams() url.Values {
	v := url.Values{}
	if p.AllowSignup != "" {
		v.Set("allow_signup", p.AllowSignup)
	}
	if p.Login != "" {
		v.Set("login", p.Login)
	}
	return v
}

func (p *GitHubProvider) FetchProfile(ctx context.Context, req ProfileRequest) (*strategy.Profile, error) {
	header := http.Header{}
	header.Set("X-GitHub-Api-Version", githubAPIVersion)

	body, err := req.get(ctx, req.UserInfoEndpoint, header)
	if err != nil {
		return nil, err
	}
	profile, err := NormalizeGitHub(body)
	if err != nil {
		return nil, err
	}
	if profile.Email != "" {
		return profile, nil
	}

	// Without the user:email scope the list is forbidden; the profile is still
	// usable. Transport failures and timeouts are not a refusal.
	emails, err := req.get(ctx, p.emailsURL(), header)
	if err != nil {
		var unexpected *strategy.UnexpectedErrorResponseBodyError
		var oauthErr *OAuth2RequestError
		if errors.As(err, &unexpected) || errors.As(err, &oauthErr) {
			return profile, nil
		}
		return nil, err
	}
	if email, ok := selectGitHubEmail(emails); ok {
		profile.Email = email
		profile.EmailVerified = true
	}
	return profile, nil
}

func (p *GitHubProvider) emailsURL() string {
	if p.EmailsURL != "" {
		return p.EmailsURL
	}
	return "https://api.github.com/user/emails"
}
