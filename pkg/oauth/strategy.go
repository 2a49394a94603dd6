package oauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/jeremyhahn/go-socialauth/pkg/statestore"
	"github.com/jeremyhahn/go-socialauth/pkg/strategy"
)

// AuthorizationRequest is a freshly generated authorization redirect.
type AuthorizationRequest struct {
	State string

	// CodeVerifier and CodeChallenge are empty for VariantSimple.
	CodeVerifier  string
	CodeChallenge string

	URL string
}

// Strategy runs the OAuth2 authorization code flow for one provider.
// It holds no per-flow state and is safe for concurrent use.
type Strategy[U any] struct {
	config   Config
	verify   strategy.VerifyFunc[U]
	oauthCfg *oauth2.Config
	tokens   *tokenClient
	idTokens *idTokenVerifier
	logger   *zap.Logger
}

var (
	_ strategy.Strategy[any]  = (*Strategy[any])(nil)
	_ strategy.TokenRefresher = (*Strategy[any])(nil)
	_ strategy.TokenRevoker   = (*Strategy[any])(nil)
)

// New creates an OAuth2 strategy. The configuration is copied and validated.
func New[U any](cfg Config, verify strategy.VerifyFunc[U]) (*Strategy[U], error) {
	if verify == nil {
		return nil, fmt.Errorf("%w: verify function is required", ErrInvalidConfiguration)
	}

	cfg.CodeChallengeMethods = append([]string(nil), cfg.CodeChallengeMethods...)
	cfg.IDToken.Issuers = append([]string(nil), cfg.IDToken.Issuers...)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Strategy[U]{
		config: cfg,
		verify: verify,
		oauthCfg: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthorizationEndpoint,
				TokenURL:  cfg.TokenEndpoint,
				AuthStyle: cfg.AuthStyle,
			},
			RedirectURL: cfg.RedirectURI,
			Scopes:      cfg.Scopes,
		},
		logger: cfg.Logger.With(zap.String("provider", cfg.Provider.Name())),
	}
	s.tokens = newTokenClient(&s.config)
	if cfg.IDToken.enabled() {
		s.idTokens = newIDTokenVerifier(cfg.IDToken, cfg.ClientID, cfg.HTTPClient, cfg.Timeout, s.logger)
	}
	return s, nil
}

// Name returns the provider name the strategy is registered under.
func (s *Strategy[U]) Name() string {
	return s.config.Provider.Name()
}

// Variant returns the configured flow variant.
func (s *Strategy[U]) Variant() Variant {
	return s.config.Variant
}

// CreateAuthorizationURL generates a new state (and PKCE pair) and the URL the
// browser is redirected to. The verifier never appears in the URL.
func (s *Strategy[U]) CreateAuthorizationURL() (*AuthorizationRequest, error) {
	state, err := generateState()
	if err != nil {
		return nil, err
	}

	req := &AuthorizationRequest{State: state}

	var opts []oauth2.AuthCodeOption
	if s.config.Variant == VariantPKCE {
		req.CodeVerifier, req.CodeChallenge = newPKCEPair()
		opts = append(opts, oauth2.S256ChallengeOption(req.CodeVerifier))
	}
	for k, vs := range s.config.Provider.AuthorizationParams() {
		for _, v := range vs {
			opts = append(opts, oauth2.SetAuthURLParam(k, v))
		}
	}

	req.URL = s.oauthCfg.AuthCodeURL(state, opts...)
	return req, nil
}

// Authenticate handles both legs of the flow. A request without a state query
// parameter starts a flow; a request with one is treated as the callback.
func (s *Strategy[U]) Authenticate(ctx context.Context, r *http.Request) strategy.Result[U] {
	q := r.URL.Query()

	if code := q.Get("error"); code != "" {
		s.logger.Info("provider returned error on callback", zap.String("error", code))
		return strategy.Failed[U](&ProviderDeniedError{
			Code:        code,
			Description: q.Get("error_description"),
			URI:         q.Get("error_uri"),
		})
	}

	store := statestore.FromRequest(r, s.config.CookieName, s.config.Codec)

	state := q.Get("state")
	if state == "" {
		return s.initiate(store)
	}

	code := q.Get("code")
	if code == "" {
		return strategy.Failed[U](ErrMissingCode)
	}
	if store.Empty() {
		s.logger.Warn("callback without state cookie")
		return strategy.Failed[U](strategy.ErrMissingStateCookie)
	}
	verifier, ok := store.Get(state)
	if !ok {
		s.logger.Warn("callback state does not match cookie", zap.Int("entries", store.Len()))
		return strategy.Failed[U](strategy.ErrStateMismatch)
	}
	if s.config.Variant == VariantPKCE && verifier == "" {
		s.logger.Warn("state cookie entry has no code verifier")
		return strategy.Failed[U](ErrMissingVerifier)
	}

	tokens, err := s.tokens.exchangeAuthorizationCode(ctx, code, verifier)
	if err != nil {
		s.logger.Warn("token exchange failed", zap.Error(err))
		return strategy.Failed[U](err)
	}

	profile, err := s.profile(ctx, tokens)
	if err != nil {
		s.logger.Warn("profile fetch failed", zap.Error(err))
		return strategy.Failed[U](err)
	}

	user, err := s.verify(ctx, strategy.VerifyParams{
		Request: r,
		Tokens:  tokens,
		Profile: profile,
	})
	if err != nil {
		return strategy.Failed[U](err)
	}

	store.Delete(state)
	cookie, err := store.Cookie(s.config.CookieName, s.config.Cookie, s.config.Codec)
	if err != nil {
		return strategy.Failed[U](err)
	}

	s.logger.Info("user authenticated", zap.String("provider_id", profile.ProviderID))
	return strategy.Authenticated(user, cookie)
}

func (s *Strategy[U]) initiate(store *statestore.Store) strategy.Result[U] {
	req, err := s.CreateAuthorizationURL()
	if err != nil {
		return strategy.Failed[U](err)
	}

	store.Set(req.State, req.CodeVerifier)
	cookie, err := store.Cookie(s.config.CookieName, s.config.Cookie, s.config.Codec)
	if err != nil {
		return strategy.Failed[U](err)
	}

	s.logger.Debug("authorization flow started",
		zap.String("variant", string(s.config.Variant)),
		zap.Int("entries", store.Len()))
	return strategy.Redirect[U](req.URL, cookie)
}

// profile fetches userinfo and, when configured, merges verified id_token claims.
func (s *Strategy[U]) profile(ctx context.Context, tokens *strategy.TokenSet) (*strategy.Profile, error) {
	var claims *strategy.Profile
	if s.idTokens != nil && tokens.IDToken != "" {
		body, err := s.idTokens.verify(ctx, tokens.IDToken)
		if err != nil {
			return nil, err
		}
		claims, err = NormalizeOIDC(s.Name(), body)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidIDToken, err)
		}
	}

	if s.config.UserInfoEndpoint == "" {
		if claims != nil {
			return claims, nil
		}
		return &strategy.Profile{Provider: s.Name()}, nil
	}

	profile, err := s.config.Provider.FetchProfile(ctx, ProfileRequest{
		Client:           s.config.HTTPClient,
		Timeout:          s.config.Timeout,
		UserInfoEndpoint: s.config.UserInfoEndpoint,
		ClientSecret:     s.config.ClientSecret,
		Tokens:           tokens,
	})
	if err != nil {
		return nil, err
	}
	if profile.Provider == "" {
		profile.Provider = s.Name()
	}

	if claims != nil {
		if claims.ProviderID != profile.ProviderID {
			return nil, fmt.Errorf("%w: userinfo subject does not match id_token", ErrInvalidIDToken)
		}
		mergeProfile(profile, claims)
	}
	return profile, nil
}

// mergeProfile fills fields userinfo left empty.
func mergeProfile(dst, src *strategy.Profile) {
	if dst.Username == "" {
		dst.Username = src.Username
	}
	if dst.Name == "" {
		dst.Name = src.Name
	}
	if dst.Email == "" {
		dst.Email = src.Email
		dst.EmailVerified = src.EmailVerified
	}
	if dst.Photo == "" {
		dst.Photo = src.Photo
	}
	if dst.Location == "" {
		dst.Location = src.Location
	}
}

// RefreshToken obtains a new token set from a refresh token.
func (s *Strategy[U]) RefreshToken(ctx context.Context, refreshToken string) (*strategy.TokenSet, error) {
	tokens, err := s.tokens.refreshToken(ctx, refreshToken)
	if err != nil {
		var reqErr *OAuth2RequestError
		if errors.As(err, &reqErr) {
			s.logger.Info("refresh rejected", zap.String("error", reqErr.Code))
		}
		return nil, err
	}
	return tokens, nil
}

// RevokeToken revokes an access or refresh token. It returns
// strategy.ErrFeatureUnavailable when the provider has no revocation endpoint.
func (s *Strategy[U]) RevokeToken(ctx context.Context, token string) error {
	return s.tokens.revokeToken(ctx, token)
}

// Close drops cached id_token signing keys.
func (s *Strategy[U]) Close() error {
	if s.idTokens != nil {
		s.idTokens.reset()
	}
	return nil
}
