package strategy

import "net/http"

// Outcome identifies which branch of a Result is populated.
type Outcome int

const (
	// OutcomeRedirect means the caller must set Cookie and redirect the browser to URL.
	OutcomeRedirect Outcome = iota + 1

	// OutcomeAuthenticated means verify accepted the user. Cookie, when non-nil,
	// rewrites the flow-state cookie without the consumed entry.
	OutcomeAuthenticated

	// OutcomeFailed means the flow ended with Err.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRedirect:
		return "redirect"
	case OutcomeAuthenticated:
		return "authenticated"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is the three-way outcome of a single Authenticate step.
type Result[U any] struct {
	Outcome Outcome
	URL     string
	Cookie  *http.Cookie
	User    U
	Err     error
}

// Redirect builds a redirect result.
func Redirect[U any](url string, cookie *http.Cookie) Result[U] {
	return Result[U]{Outcome: OutcomeRedirect, URL: url, Cookie: cookie}
}

// Authenticated builds a success result.
func Authenticated[U any](user U, cookie *http.Cookie) Result[U] {
	return Result[U]{Outcome: OutcomeAuthenticated, User: user, Cookie: cookie}
}

// Failed builds a failure result. err is stored as-is.
func Failed[U any](err error) Result[U] {
	return Result[U]{Outcome: OutcomeFailed, Err: err}
}
