package statestore

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/gorilla/securecookie"
)

// ErrMalformed indicates a cookie value could not be decoded.
var ErrMalformed = errors.New("statestore: malformed cookie value")

// Entry is one in-flight flow: the state echoed by the provider and the secret
// bound to it (PKCE verifier, OAuth1a request token secret, or empty).
type Entry struct {
	State  string
	Secret string
}

// Codec converts the ordered entry list to and from a single cookie value.
// Strategies only see the Store, so the wire format can be hardened without
// touching flow logic.
type Codec interface {
	Encode(name string, entries []Entry) (string, error)
	Decode(name, value string) ([]Entry, error)
}

// PlainCodec form-encodes the entries in order and wraps them in unpadded
// base64url. It offers no integrity protection; the values it carries are random
// and short-lived.
type PlainCodec struct{}

// Encode implements Codec.
func (PlainCodec) Encode(_ string, entries []Entry) (string, error) {
	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(e.State))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(e.Secret))
	}
	return base64.RawURLEncoding.EncodeToString([]byte(b.String())), nil
}

// Decode implements Codec.
func (PlainCodec) Decode(_ string, value string) ([]Entry, error) {
	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(raw) == 0 {
		return nil, nil
	}
	pairs := strings.Split(string(raw), "&")
	entries := make([]Entry, 0, len(pairs))
	for _, pair := range pairs {
		k, v, _ := strings.Cut(pair, "=")
		state, err := url.QueryUnescape(k)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		secret, err := url.QueryUnescape(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if state == "" {
			return nil, fmt.Errorf("%w: empty state key", ErrMalformed)
		}
		entries = append(entries, Entry{State: state, Secret: secret})
	}
	return entries, nil
}

// SecureCodec signs, and optionally encrypts, the entries with gorilla/securecookie.
type SecureCodec struct {
	sc *securecookie.SecureCookie
}

// NewSecureCodec creates a codec from a hash key of at least 32 bytes and an
// optional 16, 24 or 32 byte AES block key. maxAge bounds the embedded timestamp
// in seconds.
func NewSecureCodec(hashKey, blockKey []byte, maxAge int) (*SecureCodec, error) {
	if len(hashKey) < 32 {
		return nil, fmt.Errorf("statestore: hash key must be at least 32 bytes, got %d", len(hashKey))
	}
	switch len(blockKey) {
	case 0:
		blockKey = nil
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("statestore: block key must be 16, 24 or 32 bytes, got %d", len(blockKey))
	}
	sc := securecookie.New(hashKey, blockKey)
	if maxAge > 0 {
		sc.MaxAge(maxAge)
	}
	return &SecureCodec{sc: sc}, nil
}

// Encode implements Codec.
func (c *SecureCodec) Encode(name string, entries []Entry) (string, error) {
	return c.sc.Encode(name, entries)
}

// Decode implements Codec.
func (c *SecureCodec) Decode(name, value string) ([]Entry, error) {
	var entries []Entry
	if err := c.sc.Decode(name, value, &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return entries, nil
}
