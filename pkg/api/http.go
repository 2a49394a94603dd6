package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/jeremyhahn/go-socialauth/pkg/oauth"
	"github.com/jeremyhahn/go-socialauth/pkg/oauth1"
	"github.com/jeremyhahn/go-socialauth/pkg/strategy"
)

// Handlers customizes how results are written.
type Handlers[U any] struct {
	// OnSuccess is called after the state cookie is written. Required.
	OnSuccess func(w http.ResponseWriter, r *http.Request, user U)

	// OnError defaults to a JSON body with the status from StatusFor.
	OnError func(w http.ResponseWriter, r *http.Request, err error)

	Logger *zap.Logger
}

// Routes mounts GET /{provider} and GET /{provider}/callback. Both routes run
// the same strategy step; the query string decides initiation or callback.
func Routes[U any](reg *Registry[U], h Handlers[U]) chi.Router {
	h.Logger = strategy.Logger(h.Logger)

	handle := func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "provider")
		res := reg.Authenticate(r.Context(), name, r)
		WriteResult(w, r, res, h)
	}

	r := chi.NewRouter()
	r.Get("/{provider}", handle)
	r.Get("/{provider}/callback", handle)
	return r
}

// WriteResult writes a strategy result: Set-Cookie plus 302 for a redirect,
// Set-Cookie plus OnSuccess for an authenticated user, an error response
// otherwise.
func WriteResult[U any](w http.ResponseWriter, r *http.Request, res strategy.Result[U], h Handlers[U]) {
	switch res.Outcome {
	case strategy.OutcomeRedirect:
		if res.Cookie != nil {
			http.SetCookie(w, res.Cookie)
		}
		http.Redirect(w, r, res.URL, http.StatusFound)
	case strategy.OutcomeAuthenticated:
		if res.Cookie != nil {
			http.SetCookie(w, res.Cookie)
		}
		if h.OnSuccess == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.OnSuccess(w, r, res.User)
	default:
		err := res.Err
		if err == nil {
			err = errors.New("api: empty result")
		}
		strategy.Logger(h.Logger).Info("authentication failed",
			zap.String("path", r.URL.Path),
			zap.Int("status", StatusFor(err)),
			zap.Error(err))
		if h.OnError != nil {
			h.OnError(w, r, err)
			return
		}
		writeError(w, StatusFor(err))
	}
}

// StatusFor maps a flow error to an HTTP status code.
func StatusFor(err error) int {
	var (
		denied     *oauth.ProviderDeniedError
		reqErr     *oauth.OAuth2RequestError
		unexpected *strategy.UnexpectedResponseError
		bodyErr    *strategy.UnexpectedErrorResponseBodyError
	)

	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, strategy.ErrUnknownProvider):
		return http.StatusNotFound
	case errors.Is(err, strategy.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.As(err, &denied), errors.Is(err, oauth1.ErrUserDenied):
		return http.StatusUnauthorized
	case errors.Is(err, strategy.ErrMissingStateCookie),
		errors.Is(err, strategy.ErrStateMismatch),
		errors.Is(err, oauth.ErrMissingCode),
		errors.Is(err, oauth.ErrMissingVerifier),
		errors.Is(err, oauth.ErrMissingRefreshToken),
		errors.Is(err, oauth1.ErrMissingToken),
		errors.Is(err, oauth1.ErrMissingVerifier):
		return http.StatusBadRequest
	case errors.As(err, &reqErr),
		errors.As(err, &unexpected),
		errors.As(err, &bodyErr),
		errors.Is(err, oauth.ErrInvalidIDToken),
		errors.Is(err, oauth1.ErrCallbackNotConfirmed):
		return http.StatusBadGateway
	case errors.Is(err, strategy.ErrFeatureUnavailable):
		return http.StatusNotImplemented
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

// writeError never echoes error details to the client.
func writeError(w http.ResponseWriter, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(struct {
		Message string `json:"message"`
	}{http.StatusText(status)})
}
