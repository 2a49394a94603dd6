package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/jeremyhahn/go-socialauth/pkg/api"
	"github.com/jeremyhahn/go-socialauth/pkg/config"
	"github.com/jeremyhahn/go-socialauth/pkg/oauth"
	"github.com/jeremyhahn/go-socialauth/pkg/oauth1"
	"github.com/jeremyhahn/go-socialauth/pkg/strategy"
)

// buildStrategies registers one strategy per provider with credentials.
func buildStrategies(cfg *config.Config, users *directory, logger *zap.Logger) ([]strategy.Strategy[*User], error) {
	codec, err := cfg.Codec()
	if err != nil {
		return nil, err
	}
	cookie := cfg.CookieOptions()

	oauth2Config := func(p oauth.Provider, creds config.ProviderCredentials) oauth.Config {
		return oauth.Config{
			Provider:     p,
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			Scopes:       creds.Scopes,
			RedirectURI:  cfg.CallbackURL(p.Name()),
			Cookie:       cookie,
			Codec:        codec,
			Timeout:      cfg.Timeout,
			Logger:       logger,
		}
	}

	var out []strategy.Strategy[*User]

	if cfg.Google.Enabled() {
		google := oauth.Google()
		c := oauth2Config(google, cfg.Google)
		c.IDToken = oauth.IDTokenConfig{JWKSURL: google.Defaults().JWKSURL}
		s, err := oauth.New(c, users.Verify)
		if err != nil {
			return nil, fmt.Errorf("google: %w", err)
		}
		out = append(out, s)
	}
	if cfg.GitHub.Enabled() {
		s, err := oauth.New(oauth2Config(oauth.GitHub(), cfg.GitHub), users.Verify)
		if err != nil {
			return nil, fmt.Errorf("github: %w", err)
		}
		out = append(out, s)
	}
	if cfg.Facebook.Enabled() {
		s, err := oauth.New(oauth2Config(oauth.Facebook(), cfg.Facebook), users.Verify)
		if err != nil {
			return nil, fmt.Errorf("facebook: %w", err)
		}
		out = append(out, s)
	}
	if cfg.Twitter.Enabled() {
		s, err := oauth1.New(oauth1.Config{
			Provider:       oauth1.Twitter(),
			ConsumerKey:    cfg.Twitter.ConsumerKey,
			ConsumerSecret: cfg.Twitter.ConsumerSecret,
			CallbackURL:    cfg.CallbackURL("twitter"),
			Cookie:         cookie,
			Codec:          codec,
			Timeout:        cfg.Timeout,
			Logger:         logger,
		}, users.Verify)
		if err != nil {
			return nil, fmt.Errorf("twitter: %w", err)
		}
		out = append(out, s)
	}

	return out, nil
}

// buildRouter wires all routes and middleware.
func buildRouter(reg *api.Registry[*User], logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/providers", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string][]string{"providers": reg.Names()})
	})

	r.Mount("/auth", api.Routes(reg, api.Handlers[*User]{
		OnSuccess: func(w http.ResponseWriter, r *http.Request, u *User) {
			logger.Info("login",
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.Stringer("user_id", u.ID),
				zap.String("provider", u.Provider))
			writeJSON(w, http.StatusOK, u)
		},
		Logger: logger,
	}))

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// run serves until ctx is cancelled. If ready is non-nil, the server's base URL
// is sent on it once the listener is bound.
func run(ctx context.Context, cfg *config.Config, logger *zap.Logger, ready chan<- string) error {
	users := newDirectory()
	strategies, err := buildStrategies(cfg, users, logger)
	if err != nil {
		return err
	}
	reg, err := api.NewRegistry(api.Config[*User]{Strategies: strategies})
	if err != nil {
		return err
	}
	defer func() {
		if err := reg.Close(); err != nil {
			logger.Warn("closing strategies", zap.Error(err))
		}
	}()

	ln, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	server := &http.Server{
		Handler:           buildRouter(reg, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("socialauth listening",
			zap.String("addr", ln.Addr().String()),
			zap.Strings("providers", reg.Names()))
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	if ready != nil {
		ready <- "http://" + ln.Addr().String()
	}

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	return nil
}
