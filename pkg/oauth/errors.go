package oauth

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfiguration indicates the strategy configuration is invalid.
	ErrInvalidConfiguration = errors.New("oauth: invalid configuration")

	// ErrMissingCode indicates the callback carried a state but no authorization code.
	ErrMissingCode = errors.New("oauth: missing authorization code")

	// ErrMissingRefreshToken indicates RefreshToken was called without a token.
	ErrMissingRefreshToken = errors.New("oauth: missing refresh token")

	// ErrMissingVerifier indicates the state cookie entry has no PKCE code verifier.
	ErrMissingVerifier = errors.New("oauth: missing code verifier")

	// ErrDiscoveryFailed indicates OIDC discovery document fetch or validation failed.
	ErrDiscoveryFailed = errors.New("oauth: oidc discovery failed")

	// ErrInvalidIDToken indicates the ID token is invalid or failed validation.
	ErrInvalidIDToken = errors.New("oauth: invalid id token")
)

// ProviderDeniedError reports an error the provider returned on the callback
// redirect, typically access_denied when the user refused consent.
type ProviderDeniedError struct {
	Code        string
	Description string
	URI         string
}

func (e *ProviderDeniedError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("oauth: provider denied authorization: %s: %s", e.Code, e.Description)
	}
	return fmt.Sprintf("oauth: provider denied authorization: %s", e.Code)
}

// OAuth2RequestError reports an RFC 6749 §5.2 error returned by a token,
// refresh or revocation endpoint, e.g. invalid_grant for a replayed code.
type OAuth2RequestError struct {
	Code        string
	Description string
	URI         string
	StatusCode  int
}

func (e *OAuth2RequestError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("oauth: %s (status %d): %s", e.Code, e.StatusCode, e.Description)
	}
	return fmt.Sprintf("oauth: %s (status %d)", e.Code, e.StatusCode)
}
