package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/oauth2"

	"github.com/jeremyhahn/go-socialauth/pkg/strategy"
)

// tokenClient talks to the token and revocation endpoints.
type tokenClient struct {
	config *Config
}

func newTokenClient(config *Config) *tokenClient {
	return &tokenClient{config: config}
}

// exchangeAuthorizationCode redeems a code. The verifier is sent only for PKCE.
func (c *tokenClient) exchangeAuthorizationCode(ctx context.Context, code, codeVerifier string) (*strategy.TokenSet, error) {
	data := url.Values{}
	data.Set("grant_type", "authorization_code")
	data.Set("code", code)
	data.Set("redirect_uri", c.config.RedirectURI)

	if c.config.Variant == VariantPKCE {
		data.Set("code_verifier", codeVerifier)
	}

	return c.exchangeToken(ctx, data)
}

// refreshToken uses a refresh token to obtain a new access token.
func (c *tokenClient) refreshToken(ctx context.Context, refreshToken string) (*strategy.TokenSet, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, ErrMissingRefreshToken
	}

	data := url.Values{}
	data.Set("grant_type", "refresh_token")
	data.Set("refresh_token", refreshToken)

	tokens, err := c.exchangeToken(ctx, data)
	if err != nil {
		return nil, err
	}
	// Providers may omit the refresh token when it is not rotated.
	if tokens.RefreshToken == "" {
		tokens.RefreshToken = refreshToken
	}
	return tokens, nil
}

// revokeToken calls the RFC 7009 revocation endpoint.
func (c *tokenClient) revokeToken(ctx context.Context, token string) error {
	if c.config.RevocationEndpoint == "" {
		return fmt.Errorf("%w: %s has no revocation endpoint", strategy.ErrFeatureUnavailable, c.config.Provider.Name())
	}

	data := url.Values{}
	data.Set("token", token)

	resp, err := c.post(ctx, c.config.RevocationEndpoint, data)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return errorFromResponse(resp)
	}
	return nil
}

func (c *tokenClient) exchangeToken(ctx context.Context, data url.Values) (*strategy.TokenSet, error) {
	resp, err := c.post(ctx, c.config.TokenEndpoint, data)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, errorFromResponse(resp)
	}
	return parseTokenResponse(resp)
}

func (c *tokenClient) post(ctx context.Context, endpoint string, data url.Values) (*strategy.Response, error) {
	if c.config.AuthStyle != oauth2.AuthStyleInHeader {
		data.Set("client_id", c.config.ClientID)
		if c.config.ClientSecret != "" {
			data.Set("client_secret", c.config.ClientSecret)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("oauth: failed to create token request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	if c.config.AuthStyle == oauth2.AuthStyleInHeader {
		// RFC 6749 §2.3.1: credentials are form-encoded before basic auth.
		req.SetBasicAuth(url.QueryEscape(c.config.ClientID), url.QueryEscape(c.config.ClientSecret))
	}

	return strategy.Fetch(ctx, c.config.HTTPClient, req, c.config.Timeout)
}

type tokenResponse struct {
	AccessToken      string          `json:"access_token"`
	TokenType        string          `json:"token_type"`
	RefreshToken     string          `json:"refresh_token"`
	ExpiresIn        json.RawMessage `json:"expires_in"`
	Scope            string          `json:"scope"`
	IDToken          string          `json:"id_token"`
	Error            string          `json:"error"`
	ErrorDescription string          `json:"error_description"`
	ErrorURI         string          `json:"error_uri"`
}

// parseTokenResponse accepts JSON and form-encoded bodies. GitHub answers an
// invalid code with 200 and an error field.
func parseTokenResponse(resp *strategy.Response) (*strategy.TokenSet, error) {
	var tr tokenResponse
	extra := map[string]any{}

	if isFormEncoded(resp.Header) {
		vals, err := url.ParseQuery(string(resp.Body))
		if err != nil {
			return nil, unexpectedToken(resp, "token response is not form encoded")
		}
		tr = tokenResponse{
			AccessToken:      vals.Get("access_token"),
			TokenType:        vals.Get("token_type"),
			RefreshToken:     vals.Get("refresh_token"),
			Scope:            vals.Get("scope"),
			IDToken:          vals.Get("id_token"),
			Error:            vals.Get("error"),
			ErrorDescription: vals.Get("error_description"),
			ErrorURI:         vals.Get("error_uri"),
		}
		if e := vals.Get("expires_in"); e != "" {
			tr.ExpiresIn = json.RawMessage(strconv.Quote(e))
		}
		for k := range vals {
			extra[k] = vals.Get(k)
		}
	} else {
		if err := json.Unmarshal(resp.Body, &tr); err != nil {
			return nil, unexpectedToken(resp, "token response is not json")
		}
		_ = json.Unmarshal(resp.Body, &extra)
	}

	if tr.Error != "" {
		return nil, &OAuth2RequestError{
			Code:        tr.Error,
			Description: tr.ErrorDescription,
			URI:         tr.ErrorURI,
			StatusCode:  resp.StatusCode,
		}
	}
	if tr.AccessToken == "" {
		return nil, unexpectedToken(resp, "missing access_token")
	}

	expiresIn, err := parseExpiresIn(tr.ExpiresIn)
	if err != nil {
		return nil, unexpectedToken(resp, "invalid expires_in")
	}

	for _, k := range []string{"access_token", "token_type", "refresh_token", "expires_in", "scope", "id_token"} {
		delete(extra, k)
	}

	tokens := &strategy.TokenSet{
		AccessToken:  tr.AccessToken,
		TokenType:    tr.TokenType,
		RefreshToken: tr.RefreshToken,
		Scope:        strategy.SplitScopes(tr.Scope),
		IDToken:      tr.IDToken,
		Extra:        extra,
	}
	if tokens.TokenType == "" {
		tokens.TokenType = "Bearer"
	}
	tokens.SetExpiresIn(expiresIn)
	return tokens, nil
}

// parseExpiresIn accepts a JSON number or a numeric string.
func parseExpiresIn(raw json.RawMessage) (int64, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
		f, err := n.Float64()
		return int64(f), err
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, err
	}
	if s == "" {
		return 0, nil
	}
	return strconv.ParseInt(s, 10, 64)
}

// errorFromResponse converts a non-2xx provider answer. Bodies in the RFC 6749
// §5.2 format become OAuth2RequestError.
func errorFromResponse(resp *strategy.Response) error {
	var body struct {
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
		ErrorURI         string `json:"error_uri"`
	}

	if isFormEncoded(resp.Header) {
		if vals, err := url.ParseQuery(string(resp.Body)); err == nil {
			body.Error = vals.Get("error")
			body.ErrorDescription = vals.Get("error_description")
			body.ErrorURI = vals.Get("error_uri")
		}
	} else {
		_ = json.Unmarshal(resp.Body, &body)
	}

	if body.Error == "" {
		return &strategy.UnexpectedErrorResponseBodyError{
			StatusCode: resp.StatusCode,
			Body:       string(resp.Body),
		}
	}
	return &OAuth2RequestError{
		Code:        body.Error,
		Description: body.ErrorDescription,
		URI:         body.ErrorURI,
		StatusCode:  resp.StatusCode,
	}
}

func isFormEncoded(h http.Header) bool {
	mt, _, err := mime.ParseMediaType(h.Get("Content-Type"))
	if err != nil {
		return false
	}
	return mt == "application/x-www-form-urlencoded"
}

func unexpectedToken(resp *strategy.Response, reason string) error {
	return &strategy.UnexpectedResponseError{
		StatusCode: resp.StatusCode,
		Body:       string(resp.Body),
		Reason:     reason,
	}
}
