package oauth1

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jeremyhahn/go-socialauth/pkg/statestore"
	"github.com/jeremyhahn/go-socialauth/pkg/strategy"
)

// Strategy runs the OAuth 1.0a three-legged flow for one provider. Request
// token secrets are kept in the flow-state cookie, keyed by request token.
type Strategy[U any] struct {
	config Config
	verify strategy.VerifyFunc[U]
	signer *Signer
	logger *zap.Logger
}

var _ strategy.Strategy[any] = (*Strategy[any])(nil)

// New creates an OAuth1a strategy. The configuration is copied and validated.
func New[U any](cfg Config, verify strategy.VerifyFunc[U]) (*Strategy[U], error) {
	if verify == nil {
		return nil, fmt.Errorf("%w: verify function is required", ErrInvalidConfiguration)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Strategy[U]{
		config: cfg,
		verify: verify,
		signer: &Signer{
			ConsumerKey:    cfg.ConsumerKey,
			ConsumerSecret: cfg.ConsumerSecret,
			Now:            cfg.Now,
			Nonce:          cfg.Nonce,
		},
		logger: cfg.Logger.With(zap.String("provider", cfg.Provider.Name())),
	}, nil
}

// Name returns the provider name the strategy is registered under.
func (s *Strategy[U]) Name() string {
	return s.config.Provider.Name()
}

// Authenticate starts the flow when the request carries neither oauth_token
// nor oauth_verifier, and completes it otherwise.
func (s *Strategy[U]) Authenticate(ctx context.Context, r *http.Request) strategy.Result[U] {
	q := r.URL.Query()

	if q.Has("denied") {
		s.logger.Info("user denied authorization")
		return strategy.Failed[U](ErrUserDenied)
	}

	store := statestore.FromRequest(r, s.config.CookieName, s.config.Codec)

	token := q.Get("oauth_token")
	verifier := q.Get("oauth_verifier")
	if token == "" && verifier == "" {
		return s.initiate(ctx, store)
	}

	if token == "" {
		return strategy.Failed[U](ErrMissingToken)
	}
	if verifier == "" {
		return strategy.Failed[U](ErrMissingVerifier)
	}
	if store.Empty() {
		s.logger.Warn("callback without state cookie")
		return strategy.Failed[U](strategy.ErrMissingStateCookie)
	}
	secret, ok := store.Get(token)
	if !ok {
		s.logger.Warn("callback token does not match cookie", zap.Int("entries", store.Len()))
		return strategy.Failed[U](strategy.ErrStateMismatch)
	}

	tokens, err := s.accessToken(ctx, token, secret, verifier)
	if err != nil {
		s.logger.Warn("access token exchange failed", zap.Error(err))
		return strategy.Failed[U](err)
	}

	profile, err := s.config.Provider.FetchProfile(ctx, ProfileRequest{
		Client:     s.config.HTTPClient,
		Timeout:    s.config.Timeout,
		Signer:     s.signer,
		ProfileURL: s.config.ProfileURL,
		Tokens:     tokens,
	})
	if err != nil {
		s.logger.Warn("profile fetch failed", zap.Error(err))
		return strategy.Failed[U](err)
	}

	user, err := s.verify(ctx, strategy.VerifyParams{Request: r, Tokens: tokens, Profile: profile})
	if err != nil {
		return strategy.Failed[U](err)
	}

	store.Delete(token)
	cookie, err := store.Cookie(s.config.CookieName, s.config.Cookie, s.config.Codec)
	if err != nil {
		return strategy.Failed[U](err)
	}

	s.logger.Info("user authenticated", zap.String("provider_id", profile.ProviderID))
	return strategy.Authenticated(user, cookie)
}

func (s *Strategy[U]) initiate(ctx context.Context, store *statestore.Store) strategy.Result[U] {
	vals, err := s.postForm(ctx, Request{
		Method: http.MethodPost,
		URL:    s.config.RequestTokenURL,
		OAuth:  map[string]string{"oauth_callback": s.config.CallbackURL},
	})
	if err != nil {
		s.logger.Warn("request token failed", zap.Error(err))
		return strategy.Failed[U](err)
	}
	if vals.Get("oauth_callback_confirmed") != "true" {
		return strategy.Failed[U](ErrCallbackNotConfirmed)
	}

	token := vals.Get("oauth_token")
	store.Set(token, vals.Get("oauth_token_secret"))
	cookie, err := store.Cookie(s.config.CookieName, s.config.Cookie, s.config.Codec)
	if err != nil {
		return strategy.Failed[U](err)
	}

	s.logger.Debug("authorization flow started", zap.Int("entries", store.Len()))
	return strategy.Redirect[U](s.authorizationURL(token), cookie)
}

func (s *Strategy[U]) authorizationURL(token string) string {
	params := s.config.Provider.AuthorizationParams()
	params.Set("oauth_token", token)

	sep := "?"
	if strings.Contains(s.config.AuthorizationURL, "?") {
		sep = "&"
	}
	return s.config.AuthorizationURL + sep + params.Encode()
}

func (s *Strategy[U]) accessToken(ctx context.Context, token, secret, verifier string) (*strategy.TokenSet, error) {
	vals, err := s.postForm(ctx, Request{
		Method:      http.MethodPost,
		URL:         s.config.AccessTokenURL,
		Token:       token,
		TokenSecret: secret,
		OAuth:       map[string]string{"oauth_verifier": verifier},
	})
	if err != nil {
		return nil, err
	}

	tokens := &strategy.TokenSet{
		AccessToken: vals.Get("oauth_token"),
		TokenSecret: vals.Get("oauth_token_secret"),
		Extra:       map[string]any{},
	}
	for k := range vals {
		if k != "oauth_token" && k != "oauth_token_secret" {
			tokens.Extra[k] = vals.Get(k)
		}
	}
	return tokens, nil
}

// postForm sends a signed POST and parses the form-encoded token response.
func (s *Strategy[U]) postForm(ctx context.Context, r Request) (url.Values, error) {
	resp, err := signedDo(ctx, s.config.HTTPClient, s.config.Timeout, s.signer, r)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, &strategy.UnexpectedErrorResponseBodyError{StatusCode: resp.StatusCode, Body: string(resp.Body)}
	}

	vals, err := url.ParseQuery(string(resp.Body))
	if err != nil || vals.Get("oauth_token") == "" || vals.Get("oauth_token_secret") == "" {
		return nil, &strategy.UnexpectedResponseError{
			StatusCode: resp.StatusCode,
			Body:       string(resp.Body),
			Reason:     "missing oauth_token or oauth_token_secret",
		}
	}
	return vals, nil
}

// signedDo signs and sends r. Form parameters go in the body.
func signedDo(ctx context.Context, client strategy.HTTPClient, timeout time.Duration, signer *Signer, r Request) (*strategy.Response, error) {
	header, err := signer.AuthorizationHeader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}

	var body *strings.Reader
	if len(r.Form) > 0 {
		body = strings.NewReader(r.Form.Encode())
	} else {
		body = strings.NewReader("")
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, r.URL, body)
	if err != nil {
		return nil, fmt.Errorf("oauth1: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", header)
	if r.Method == http.MethodPost {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	return strategy.Fetch(ctx, client, req, timeout)
}
