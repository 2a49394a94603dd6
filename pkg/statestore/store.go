// Package statestore keeps the ephemeral state -> secret map of in-flight login
// flows in a single browser cookie, so the server holds no session.
package statestore

import (
	"crypto/subtle"
	"net/http"
	"time"
)

const (
	// MinMaxAge and MaxMaxAge bound the flow-state cookie lifetime.
	MinMaxAge = 5 * time.Minute
	MaxMaxAge = 10 * time.Minute

	// MaxEntries caps concurrent flows per browser. The oldest entry is evicted.
	MaxEntries = 8
)

// CookieOptions controls the attributes of the flow-state cookie.
type CookieOptions struct {
	// Secure sets the Secure attribute. Enable in production.
	Secure bool

	// MaxAge is clamped into [MinMaxAge, MaxMaxAge]. Zero means MaxMaxAge.
	MaxAge time.Duration

	// Path defaults to "/".
	Path string

	// Domain is optional.
	Domain string
}

func (o CookieOptions) maxAgeSeconds() int {
	d := o.MaxAge
	switch {
	case d == 0:
		d = MaxMaxAge
	case d < MinMaxAge:
		d = MinMaxAge
	case d > MaxMaxAge:
		d = MaxMaxAge
	}
	return int(d / time.Second)
}

func (o CookieOptions) path() string {
	if o.Path == "" {
		return "/"
	}
	return o.Path
}

// Store is an ordered state -> secret map. It is not safe for concurrent use;
// each request builds its own.
type Store struct {
	entries []Entry
}

// New returns an empty store.
func New() *Store {
	return &Store{}
}

// FromRequest loads the store from the named cookie. A missing or malformed
// cookie yields an empty store so first visits proceed normally.
func FromRequest(r *http.Request, name string, codec Codec) *Store {
	c, err := r.Cookie(name)
	if err != nil || c.Value == "" {
		return New()
	}
	entries, err := codec.Decode(name, c.Value)
	if err != nil {
		return New()
	}
	s := New()
	for _, e := range entries {
		s.Set(e.State, e.Secret)
	}
	return s
}

// Set stores secret under state, replacing any previous value.
func (s *Store) Set(state, secret string) {
	s.Delete(state)
	s.entries = append(s.entries, Entry{State: state, Secret: secret})
	if len(s.entries) > MaxEntries {
		s.entries = append([]Entry(nil), s.entries[len(s.entries)-MaxEntries:]...)
	}
}

// Get returns the secret bound to state.
func (s *Store) Get(state string) (string, bool) {
	i := s.index(state)
	if i < 0 {
		return "", false
	}
	return s.entries[i].Secret, true
}

// Has reports whether state is present.
func (s *Store) Has(state string) bool {
	return s.index(state) >= 0
}

// Empty reports whether the store holds no entries.
func (s *Store) Empty() bool {
	return len(s.entries) == 0
}

// Len returns the number of entries.
func (s *Store) Len() int {
	return len(s.entries)
}

// Delete removes state if present.
func (s *Store) Delete(state string) {
	if i := s.index(state); i >= 0 {
		s.entries = append(s.entries[:i], s.entries[i+1:]...)
	}
}

// Entries returns a copy of the entries in insertion order.
func (s *Store) Entries() []Entry {
	return append([]Entry(nil), s.entries...)
}

// index compares every entry in constant time so lookups do not leak how much of
// a forged state matched.
func (s *Store) index(state string) int {
	if state == "" {
		return -1
	}
	found := -1
	for i, e := range s.entries {
		if subtle.ConstantTimeCompare([]byte(e.State), []byte(state)) == 1 {
			found = i
		}
	}
	return found
}

// Cookie renders the store as a Set-Cookie value. An empty store produces an
// expiring cookie that clears any previous value.
func (s *Store) Cookie(name string, opts CookieOptions, codec Codec) (*http.Cookie, error) {
	c := &http.Cookie{
		Name:     name,
		Path:     opts.path(),
		Domain:   opts.Domain,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if s.Empty() {
		c.MaxAge = -1
		return c, nil
	}
	value, err := codec.Encode(name, s.entries)
	if err != nil {
		return nil, err
	}
	c.Value = value
	c.MaxAge = opts.maxAgeSeconds()
	return c, nil
}
