package strategy

import (
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// TokenSet holds the credentials obtained at the end of a flow. It lives only for
// the duration of the callback request; the core never persists it.
type TokenSet struct {
	// AccessToken is the OAuth access token (OAuth1a: oauth_token).
	AccessToken string

	// TokenSecret is the OAuth1a oauth_token_secret. Empty for OAuth2.
	TokenSecret string

	// TokenType is the type of token (usually "Bearer").
	TokenType string

	// RefreshToken is used to obtain new access tokens (optional).
	RefreshToken string

	// ExpiresIn is the lifetime in seconds reported by the provider, 0 if unknown.
	ExpiresIn int64

	// Expiry is when the access token expires, derived from ExpiresIn.
	Expiry time.Time

	// Scope lists the scopes granted to this token.
	Scope []string

	// IDToken is the OpenID Connect ID token (optional).
	IDToken string

	// Extra holds any additional response fields (e.g. Twitter's user_id, screen_name).
	Extra map[string]any
}

// Expired returns true if the token has expired.
func (t *TokenSet) Expired() bool {
	if t.Expiry.IsZero() {
		return false
	}
	return time.Now().After(t.Expiry)
}

// SetExpiresIn records the provider-reported lifetime and derives Expiry.
func (t *TokenSet) SetExpiresIn(seconds int64) {
	t.ExpiresIn = seconds
	if seconds > 0 {
		t.Expiry = time.Now().Add(time.Duration(seconds) * time.Second)
	}
}

// OAuth2Token converts the set for use with golang.org/x/oauth2 clients.
func (t *TokenSet) OAuth2Token() *oauth2.Token {
	tok := &oauth2.Token{
		AccessToken:  t.AccessToken,
		TokenType:    t.TokenType,
		RefreshToken: t.RefreshToken,
		Expiry:       t.Expiry,
	}
	extra := map[string]any{}
	for k, v := range t.Extra {
		extra[k] = v
	}
	if t.IDToken != "" {
		extra["id_token"] = t.IDToken
	}
	if len(extra) > 0 {
		tok = tok.WithExtra(extra)
	}
	return tok
}

// SplitScopes splits a space or comma separated scope string. GitHub reports
// granted scopes comma separated.
func SplitScopes(scope string) []string {
	return strings.FieldsFunc(scope, func(r rune) bool {
		return r == ' ' || r == ',' || r == '\t' || r == '\n' || r == '\r'
	})
}
