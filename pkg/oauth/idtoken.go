package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/jeremyhahn/go-socialauth/pkg/strategy"
)

// jwksRefreshInterval is the minimum age of the cached key set before an
// unknown kid triggers a refetch.
const jwksRefreshInterval = 5 * time.Minute

// idTokenVerifier checks id_token signatures against the provider's JWKS. The
// key set is fetched through strategy.Fetch on the request path, so it shares
// the strategy's client, deadline and cancellation.
type idTokenVerifier struct {
	config   IDTokenConfig
	clientID string
	client   strategy.HTTPClient
	timeout  time.Duration
	logger   *zap.Logger
	now      func() time.Time

	mu      sync.Mutex
	jwks    jwt.Keyfunc
	fetched time.Time
}

func newIDTokenVerifier(config IDTokenConfig, clientID string, client strategy.HTTPClient, timeout time.Duration, logger *zap.Logger) *idTokenVerifier {
	return &idTokenVerifier{
		config:   config,
		clientID: clientID,
		client:   client,
		timeout:  timeout,
		logger:   strategy.Logger(logger),
		now:      time.Now,
	}
}

// keyfunc returns the cached key function, fetching the key set when none is
// cached or when refresh is set and the cache is older than jwksRefreshInterval.
func (v *idTokenVerifier) keyfunc(ctx context.Context, refresh bool) (jwt.Keyfunc, error) {
	if v.config.Keyfunc != nil {
		return v.config.Keyfunc, nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.jwks != nil && (!refresh || v.now().Sub(v.fetched) < jwksRefreshInterval) {
		return v.jwks, nil
	}

	kf, err := v.fetch(ctx)
	if err != nil {
		if v.jwks != nil && refresh {
			v.logger.Warn("jwks refresh failed, keeping cached keys", zap.Error(err))
			return v.jwks, nil
		}
		return nil, err
	}
	v.jwks = kf
	v.fetched = v.now()
	v.logger.Debug("jwks fetched", zap.String("url", v.config.JWKSURL))
	return v.jwks, nil
}

func (v *idTokenVerifier) fetch(ctx context.Context) (jwt.Keyfunc, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.config.JWKSURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: jwks request: %v", ErrInvalidIDToken, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := strategy.Fetch(ctx, v.client, req, v.timeout)
	if err != nil {
		return nil, fmt.Errorf("oauth: jwks: %w", err)
	}
	if !resp.OK() {
		return nil, &strategy.UnexpectedErrorResponseBodyError{StatusCode: resp.StatusCode, Body: string(resp.Body)}
	}

	k, err := keyfunc.NewJWKSetJSON(json.RawMessage(resp.Body))
	if err != nil {
		return nil, &strategy.UnexpectedResponseError{
			StatusCode: resp.StatusCode,
			Body:       string(resp.Body),
			Reason:     "invalid jwks: " + err.Error(),
		}
	}
	return k.Keyfunc, nil
}

// verify returns the token's claims as JSON so they can go through the OIDC
// normalizer. Key set fetch failures keep their own error class.
func (v *idTokenVerifier) verify(ctx context.Context, idToken string) ([]byte, error) {
	kf, err := v.keyfunc(ctx, false)
	if err != nil {
		return nil, err
	}

	claims, err := v.parse(idToken, kf)
	if errors.Is(err, jwt.ErrTokenUnverifiable) && v.config.Keyfunc == nil {
		// Unknown kid: the provider may have rotated keys.
		if kf, err = v.keyfunc(ctx, true); err != nil {
			return nil, err
		}
		claims, err = v.parse(idToken, kf)
	}
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: expired", ErrInvalidIDToken)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidIDToken, err)
	}

	if len(v.config.Issuers) > 0 {
		iss, _ := claims.GetIssuer()
		if !slices.Contains(v.config.Issuers, iss) {
			return nil, fmt.Errorf("%w: invalid issuer %q", ErrInvalidIDToken, iss)
		}
	}

	body, err := json.Marshal(claims)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidIDToken, err)
	}
	return body, nil
}

func (v *idTokenVerifier) parse(idToken string, kf jwt.Keyfunc) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(idToken, claims, kf,
		jwt.WithValidMethods([]string{"RS256", "RS384", "RS512", "ES256", "ES384", "ES512", "PS256", "PS384", "PS512"}),
		jwt.WithAudience(v.clientID),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, ErrInvalidIDToken
	}
	return claims, nil
}

// reset drops the cached key set.
func (v *idTokenVerifier) reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.jwks = nil
	v.fetched = time.Time{}
}
