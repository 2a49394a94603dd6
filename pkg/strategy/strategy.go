package strategy

import (
	"context"
	"net/http"

	"go.uber.org/zap"
)

// VerifyParams is handed to the application's verify callback once the provider
// has authenticated the user.
type VerifyParams struct {
	Request *http.Request
	Tokens  *TokenSet
	Profile *Profile
}

// VerifyFunc maps an authenticated provider identity to an application user.
// A returned error becomes the flow's outcome unchanged.
type VerifyFunc[U any] func(ctx context.Context, p VerifyParams) (U, error)

// Strategy advances a login flow by exactly one step per HTTP request.
type Strategy[U any] interface {
	// Name returns the provider name the strategy is registered under.
	Name() string

	// Authenticate inspects the request and either starts the flow, completes it,
	// or reports why it failed.
	Authenticate(ctx context.Context, r *http.Request) Result[U]
}

// TokenRefresher is implemented by strategies that can refresh access tokens.
type TokenRefresher interface {
	RefreshToken(ctx context.Context, refreshToken string) (*TokenSet, error)
}

// TokenRevoker is implemented by strategies that can revoke tokens.
type TokenRevoker interface {
	RevokeToken(ctx context.Context, token string) error
}

// Logger returns l, or a no-op logger when l is nil.
func Logger(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
