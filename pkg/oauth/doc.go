// Package oauth implements the OAuth 2.0 authorization code flow for browser
// logins, with pre-configured providers for Google, GitHub and Facebook and
// support for any OpenID Connect issuer through discovery.
//
// # Variants
//
//   - VariantPKCE: an S256 code challenge binds the authorization code to the
//     verifier held in the state cookie (RFC 7636). Google uses this variant.
//   - VariantSimple: the state parameter and the client secret protect the
//     exchange. GitHub and Facebook use this variant.
//
// # Flow
//
// A Strategy is stateless. Per-flow data (state and code verifier) lives only
// in a short-lived cookie managed by package statestore. Authenticate is called
// on both the login route and the callback route:
//
//	s, err := oauth.New(oauth.Config{
//	    Provider:     oauth.Google(),
//	    ClientID:     "client-id",
//	    ClientSecret: "client-secret",
//	    RedirectURI:  "https://app.example.com/auth/google/callback",
//	    Cookie:       statestore.CookieOptions{Secure: true},
//	}, func(ctx context.Context, p strategy.VerifyParams) (*User, error) {
//	    return users.FindOrCreate(ctx, p.Profile)
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	res := s.Authenticate(r.Context(), r)
//	switch res.Outcome {
//	case strategy.OutcomeRedirect:
//	    http.SetCookie(w, res.Cookie)
//	    http.Redirect(w, r, res.URL, http.StatusFound)
//	case strategy.OutcomeAuthenticated:
//	    http.SetCookie(w, res.Cookie)
//	    // start an application session for res.User
//	case strategy.OutcomeFailed:
//	    // inspect res.Err with errors.Is / errors.As
//	}
//
// # Errors
//
// Provider refusals on the callback are reported as *ProviderDeniedError, token
// endpoint rejections (for example a replayed code) as *OAuth2RequestError.
// Cookie integrity failures use strategy.ErrMissingStateCookie and
// strategy.ErrStateMismatch. Errors returned by the verify function are passed
// through unchanged.
//
// # ID Tokens
//
// When Config.IDToken is set, an id_token in the token response is verified
// against the provider's JWKS and its claims fill gaps in the userinfo profile.
package oauth
