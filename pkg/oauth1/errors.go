package oauth1

import "errors"

var (
	// ErrInvalidConfiguration indicates the strategy configuration is invalid.
	ErrInvalidConfiguration = errors.New("oauth1: invalid configuration")

	// ErrUserDenied indicates the user declined authorization (the callback
	// carried a denied parameter).
	ErrUserDenied = errors.New("oauth1: user denied authorization")

	// ErrCallbackNotConfirmed indicates the request-token response did not
	// confirm the callback URL (oauth_callback_confirmed != true).
	ErrCallbackNotConfirmed = errors.New("oauth1: callback not confirmed")

	// ErrMissingToken indicates the callback carried no oauth_token.
	ErrMissingToken = errors.New("oauth1: missing oauth_token")

	// ErrMissingVerifier indicates the callback carried no oauth_verifier.
	ErrMissingVerifier = errors.New("oauth1: missing oauth_verifier")
)
