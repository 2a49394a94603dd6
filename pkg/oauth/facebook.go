package oauth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"

	"github.com/jeremyhahn/go-socialauth/pkg/strategy"
)

const facebookGraphVersion = "v19.0"

// FacebookProvider is Facebook Login via the Graph API.
type FacebookProvider struct {
	// Fields requested from /me. Defaults to id,name,email,picture,location.
	Fields []string

	// AuthType "rerequest" asks again for declined permissions.
	AuthType string
}

// Facebook returns a pre-configured Facebook provider.
func Facebook() *FacebookProvider {
	return &FacebookProvider{}
}

func (p *FacebookProvider) Name() string { return "facebook" }

func (p *FacebookProvider) Defaults() Endpoints {
	return Endpoints{
		AuthorizationEndpoint: "https://www.facebook.com/" + facebookGraphVersion + "/dialog/oauth",
		TokenEndpoint:         "https://graph.facebook.com/" + facebookGraphVersion + "/oauth/access_token",
		UserInfoEndpoint:      "https://graph.facebook.com/" + facebookGraphVersion + "/me",
		Scopes:                []string{"public_profile", "email"},
		Variant:               VariantSimple,
	}
}

func (p *FacebookProvider) AuthorizationParams() url.Values {
	v := url.Values{}
	if p.AuthType != "" {
		v.Set("auth_type", p.AuthType)
	}
	return v
}

func (p *FacebookProvider) FetchProfile(ctx context.Context, req ProfileRequest) (*strategy.Profile, error) {
	u, err := url.Parse(req.UserInfoEndpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: userinfo endpoint: %v", ErrInvalidConfiguration, err)
	}

	q := u.Query()
	q.Set("fields", strings.Join(p.fields(), ","))
	if req.ClientSecret != "" && req.Tokens != nil {
		q.Set("appsecret_proof", AppSecretProof(req.Tokens.AccessToken, req.ClientSecret))
	}
	u.RawQuery = q.Encode()

	body, err := req.get(ctx, u.String(), nil)
	if err != nil {
		return nil, err
	}
	return NormalizeFacebook(body)
}

func (p *FacebookProvider) fields() []string {
	if len(p.Fields) > 0 {
		return p.Fields
	}
	return []string{"id", "name", "email", "picture.type(large)", "location"}
}

// AppSecretProof is the hex HMAC-SHA256 of the access token keyed by the app
// secret, required by apps with "Require App Secret" enabled.
func AppSecretProof(accessToken, appSecret string) string {
	mac := hmac.New(sha256.New, []byte(appSecret))
	mac.Write([]byte(accessToken))
	return hex.EncodeToString(mac.Sum(nil))
}
