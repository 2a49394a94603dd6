package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/jeremyhahn/go-socialauth/pkg/strategy"
)

// Config contains the strategies the registry dispatches to.
type Config[U any] struct {
	Strategies []strategy.Strategy[U]
}

// Registry maps provider names to strategies. It is immutable after
// construction and safe for concurrent use.
type Registry[U any] struct {
	names      []string
	strategies map[string]strategy.Strategy[U]
}

var (
	// ErrNoStrategies indicates the registry was initialised without any strategies.
	ErrNoStrategies = errors.New("api: no strategies configured")
)

// NewRegistry builds a Registry from the supplied configuration.
func NewRegistry[U any](cfg Config[U]) (*Registry[U], error) {
	if len(cfg.Strategies) == 0 {
		return nil, ErrNoStrategies
	}

	reg := &Registry[U]{strategies: make(map[string]strategy.Strategy[U], len(cfg.Strategies))}
	for i, s := range cfg.Strategies {
		if s == nil {
			return nil, fmt.Errorf("api: strategy at index %d is nil", i)
		}
		name := s.Name()
		if name == "" {
			return nil, fmt.Errorf("api: strategy at index %d has no name", i)
		}
		if _, ok := reg.strategies[name]; ok {
			return nil, fmt.Errorf("api: duplicate strategy name %q", name)
		}
		reg.strategies[name] = s
		reg.names = append(reg.names, name)
	}

	return reg, nil
}

// Names returns the registered provider names in registration order.
func (r *Registry[U]) Names() []string {
	return append([]string(nil), r.names...)
}

// Get returns the strategy registered under name.
func (r *Registry[U]) Get(name string) (strategy.Strategy[U], bool) {
	s, ok := r.strategies[name]
	return s, ok
}

// Authenticate dispatches one flow step to the named strategy.
func (r *Registry[U]) Authenticate(ctx context.Context, name string, req *http.Request) strategy.Result[U] {
	s, ok := r.strategies[name]
	if !ok {
		return strategy.Failed[U](fmt.Errorf("%w: %q", strategy.ErrUnknownProvider, name))
	}
	return s.Authenticate(ctx, req)
}

// RefreshToken refreshes through the named strategy.
func (r *Registry[U]) RefreshToken(ctx context.Context, name, refreshToken string) (*strategy.TokenSet, error) {
	s, ok := r.strategies[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", strategy.ErrUnknownProvider, name)
	}
	refresher, ok := s.(strategy.TokenRefresher)
	if !ok {
		return nil, fmt.Errorf("%w: %s does not support token refresh", strategy.ErrFeatureUnavailable, name)
	}
	return refresher.RefreshToken(ctx, refreshToken)
}

// RevokeToken revokes through the named strategy.
func (r *Registry[U]) RevokeToken(ctx context.Context, name, token string) error {
	s, ok := r.strategies[name]
	if !ok {
		return fmt.Errorf("%w: %q", strategy.ErrUnknownProvider, name)
	}
	revoker, ok := s.(strategy.TokenRevoker)
	if !ok {
		return fmt.Errorf("%w: %s does not support token revocation", strategy.ErrFeatureUnavailable, name)
	}
	return revoker.RevokeToken(ctx, token)
}

// Close releases strategy resources such as cached JWKS key sets.
func (r *Registry[U]) Close() error {
	var errs []error
	for _, name := range r.names {
		if c, ok := r.strategies[name].(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
			}
		}
	}
	return errors.Join(errs...)
}
