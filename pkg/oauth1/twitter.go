package oauth1

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/jeremyhahn/go-socialauth/pkg/strategy"
)

// TwitterProvider is Twitter/X sign-in over OAuth 1.0a.
type TwitterProvider struct {
	// Authorize uses /oauth/authorize, which always asks for consent, instead
	// of /oauth/authenticate.
	Authorize bool

	// ForceLogin makes the user enter credentials even when signed in.
	ForceLogin bool

	// ScreenName pre-fills the login form.
	ScreenName string

	// SkipEmail omits include_email from verify_credentials.
	SkipEmail bool
}

// Twitter returns a pre-configured Twitter provider.
func Twitter() *TwitterProvider {
	return &TwitterProvider{}
}

func (p *TwitterProvider) Name() string { return "twitter" }

func (p *TwitterProvider) Defaults() Endpoints {
	auth := "https://api.twitter.com/oauth/authenticate"
	if p.Authorize {
		auth = "https://api.twitter.com/oauth/authorize"
	}
	return Endpoints{
		RequestTokenURL:  "https://api.twitter.com/oauth/request_token",
		AuthorizationURL: auth,
		AccessTokenURL:   "https://api.twitter.com/oauth/access_token",
		ProfileURL:       "https://api.twitter.com/1.1/account/verify_credentials.json",
	}
}

func (p *TwitterProvider) AuthorizationParams() url.Values {
	v := url.Values{}
	if p.ForceLogin {
		v.Set("force_login", "true")
	}
	if p.ScreenName != "" {
		v.Set("screen_name", p.ScreenName)
	}
	return v
}

func (p *TwitterProvider) FetchProfile(ctx context.Context, req ProfileRequest) (*strategy.Profile, error) {
	u, err := url.Parse(req.ProfileURL)
	if err != nil {
		return nil, fmt.Errorf("%w: profile url: %v", ErrInvalidConfiguration, err)
	}
	q := u.Query()
	q.Set("skip_status", "true")
	if !p.SkipEmail {
		q.Set("include_email", "true")
	}
	u.RawQuery = q.Encode()

	resp, err := signedDo(ctx, req.Client, req.Timeout, req.Signer, Request{
		Method:      http.MethodGet,
		URL:         u.String(),
		Token:       req.Tokens.AccessToken,
		TokenSecret: req.Tokens.TokenSecret,
	})
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, &strategy.UnexpectedErrorResponseBodyError{StatusCode: resp.StatusCode, Body: string(resp.Body)}
	}
	return NormalizeTwitter(resp.Body)
}

type twitterUser struct {
	IDStr                string `json:"id_str"`
	ScreenName           string `json:"screen_name"`
	Name                 string `json:"name"`
	Email                string `json:"email"`
	ProfileImageURLHTTPS string `json:"profile_image_url_https"`
	Description          string `json:"description"`
	Location             string `json:"location"`
}

// NormalizeTwitter maps a verify_credentials response. Twitter only returns
// confirmed email addresses.
func NormalizeTwitter(body []byte) (*strategy.Profile, error) {
	var u twitterUser
	if err := json.Unmarshal(body, &u); err != nil {
		return nil, &strategy.UnexpectedResponseError{StatusCode: http.StatusOK, Body: string(body), Reason: "invalid profile: " + err.Error()}
	}
	if u.IDStr == "" {
		return nil, &strategy.UnexpectedResponseError{StatusCode: http.StatusOK, Body: string(body), Reason: "invalid profile: missing field id_str"}
	}

	raw := map[string]any{}
	_ = json.Unmarshal(body, &raw)

	return &strategy.Profile{
		Provider:      "twitter",
		ProviderID:    u.IDStr,
		Username:      u.ScreenName,
		Name:          u.Name,
		Email:         u.Email,
		EmailVerified: u.Email != "",
		Photo:         u.ProfileImageURLHTTPS,
		Bio:           u.Description,
		Location:      u.Location,
		Raw:           raw,
	}, nil
}
