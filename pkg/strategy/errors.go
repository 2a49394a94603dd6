package strategy

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingStateCookie indicates the callback arrived without a usable flow-state
	// cookie. The cookie expired, was never set, or was stripped by the browser.
	ErrMissingStateCookie = errors.New("strategy: missing state cookie")

	// ErrStateMismatch indicates the callback state does not match any entry in the
	// flow-state cookie. This is the tampering/replay signal, distinct from expiry.
	ErrStateMismatch = errors.New("strategy: state mismatch")

	// ErrTimeout indicates an outbound call exceeded its deadline. The flow must be
	// restarted from initiation; the authorization code cannot be replayed.
	ErrTimeout = errors.New("strategy: provider request timed out")

	// ErrFeatureUnavailable indicates the strategy does not support the operation,
	// e.g. token revocation without a revocation endpoint.
	ErrFeatureUnavailable = errors.New("strategy: feature unavailable")

	// ErrUnknownProvider indicates no strategy is registered under the requested name.
	ErrUnknownProvider = errors.New("strategy: unknown provider")
)

// UnexpectedResponseError is returned when a provider answers with a successful
// status but a body that cannot be used (unparsable JSON, missing access token).
type UnexpectedResponseError struct {
	StatusCode int
	Body       string
	Reason     string
}

func (e *UnexpectedResponseError) Error() string {
	return fmt.Sprintf("strategy: unexpected response (status %d): %s", e.StatusCode, e.Reason)
}

// UnexpectedErrorResponseBodyError is returned when a provider answers with an
// error status and a body that does not follow the OAuth error format.
type UnexpectedErrorResponseBodyError struct {
	StatusCode int
	Body       string
}

func (e *UnexpectedErrorResponseBodyError) Error() string {
	return fmt.Sprintf("strategy: unexpected error response (status %d): %s", e.StatusCode, truncate(e.Body, 256))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
