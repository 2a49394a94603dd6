package oauth1

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedSigner(key, secret, nonce string, ts int64) *Signer {
	return &Signer{
		ConsumerKey:    key,
		ConsumerSecret: secret,
		Now:            func() time.Time { return time.Unix(ts, 0) },
		Nonce:          func() string { return nonce },
	}
}

// parseAuthHeader splits an OAuth Authorization header into decoded params.
func parseAuthHeader(t *testing.T, header string) map[string]string {
	t.Helper()
	require.True(t, strings.HasPrefix(header, "OAuth "), "header %q", header)
	out := map[string]string{}
	for _, part := range strings.Split(strings.TrimPrefix(header, "OAuth "), ", ") {
		k, v, ok := strings.Cut(part, "=")
		require.True(t, ok, "malformed param %q", part)
		v, err := url.PathUnescape(strings.Trim(v, `"`))
		require.NoError(t, err)
		out[k] = v
	}
	return out
}

func TestPercentEncode(t *testing.T) {
	tests := map[string]string{
		"abcXYZ019-._~":      "abcXYZ019-._~",
		"!'()*":              "%21%27%28%29%2A",
		"Ladies + Gentlemen": "Ladies%20%2B%20Gentlemen",
		"a,b/c?d=e&f":        "a%2Cb%2Fc%3Fd%3De%26f",
		"☃":                  "%E2%98%83",
		"":                   "",
	}
	for in, want := range tests {
		assert.Equal(t, want, PercentEncode(in), "PercentEncode(%q)", in)
	}
}

// Example from Twitter's "Creating a signature" documentation.
func TestAuthorizationHeader_TwitterVector(t *testing.T) {
	s := fixedSigner(
		"xvz1evFS4wEEPTGEFPHBog",
		"kAcSOqF21Fu85e7zjz7ZN2U4ZRhfV3WpwPAoE3Z7kBw",
		"kYjzVBB8Y0ZFabxSWbWovY3uYSQ2pTgmZeNu2VS4cg",
		1318622958,
	)
	r := Request{
		Method:      "POST",
		URL:         "https://api.twitter.com/1.1/statuses/update.json?include_entities=true",
		Form:        url.Values{"status": {"Hello Ladies + Gentlemen, a signed OAuth request!"}},
		Token:       "370773112-GmHxMAgYyLbNEtIKZeRNFsMKPR9EyMZeS9weJAEb",
		TokenSecret: "LswwdoUaIvS8ltyTt5jkRh4J50vUPVVHtR2YPi5kE",
	}

	oauthParams := s.protocolParams(r)
	base, err := BaseString(r.Method, r.URL, mergeParams(r, oauthParams))
	require.NoError(t, err)
	assert.Equal(t, "POST&https%3A%2F%2Fapi.twitter.com%2F1.1%2Fstatuses%2Fupdate.json&"+
		"include_entities%3Dtrue%26oauth_consumer_key%3Dxvz1evFS4wEEPTGEFPHBog%26"+
		"oauth_nonce%3DkYjzVBB8Y0ZFabxSWbWovY3uYSQ2pTgmZeNu2VS4cg%26oauth_signature_method%3DHMAC-SHA1%26"+
		"oauth_timestamp%3D1318622958%26oauth_token%3D370773112-GmHxMAgYyLbNEtIKZeRNFsMKPR9EyMZeS9weJAEb%26"+
		"oauth_version%3D1.0%26status%3DHello%2520Ladies%2520%252B%2520Gentlemen%252C%2520a%2520signed%2520OAuth%2520request%2521",
		base)

	header, err := s.AuthorizationHeader(r)
	require.NoError(t, err)
	assert.Contains(t, header, `oauth_signature="hCtSmYh%2BiHYCEqBWrE7C7hYmtUk%3D"`)

	params := parseAuthHeader(t, header)
	assert.Equal(t, "hCtSmYh+iHYCEqBWrE7C7hYmtUk=", params["oauth_signature"])
	assert.Equal(t, "HMAC-SHA1", params["oauth_signature_method"])
	assert.NotContains(t, params, "status", "body parameters must not appear in the header")
}

// Photos example from the OAuth Core 1.0 appendix.
func TestAuthorizationHeader_PhotosVector(t *testing.T) {
	s := fixedSigner("dpf43f3p2l4k3l03", "kd94hf93k423kf44", "kllo9940pd9333jh", 1191242096)

	header, err := s.AuthorizationHeader(Request{
		Method:      "GET",
		URL:         "http://photos.example.net/photos?file=vacation.jpg&size=original",
		Token:       "nnch734d00sl2jdk",
		TokenSecret: "pfkkdhi9sl3r4s00",
	})
	require.NoError(t, err)
	assert.Equal(t, "tR3+Ty81lMeYAr/Fid0kMTYa/WM=", parseAuthHeader(t, header)["oauth_signature"])
}

// Temporary credential request: no token, empty token secret, and values
// carrying the sub-delims that url.QueryEscape leaves alone.
func TestAuthorizationHeader_EmptyTokenSecretVector(t *testing.T) {
	s := fixedSigner("ck", "S", "n0nce", 1700000000)
	r := Request{
		Method: "POST",
		URL:    "https://api.example.com/oauth/request_token",
		Form:   url.Values{"status": {"a!b'c(d)e*f"}},
		OAuth:  map[string]string{"oauth_callback": "https://app.example.com/cb?x=a!b'c(d)e*f"},
	}

	base, err := BaseString(r.Method, r.URL, mergeParams(r, s.protocolParams(r)))
	require.NoError(t, err)
	assert.Equal(t, "POST&https%3A%2F%2Fapi.example.com%2Foauth%2Frequest_token&"+
		"oauth_callback%3Dhttps%253A%252F%252Fapp.example.com%252Fcb%253Fx%253Da%2521b%2527c%2528d%2529e%252Af%26"+
		"oauth_consumer_key%3Dck%26oauth_nonce%3Dn0nce%26oauth_signature_method%3DHMAC-SHA1%26"+
		"oauth_timestamp%3D1700000000%26oauth_version%3D1.0%26status%3Da%2521b%2527c%2528d%2529e%252Af",
		base)
	assert.Equal(t, "41d8RYWC6C4BBNe1XyYPYnytsuE=", Signature(base, "S", ""))

	header, err := s.AuthorizationHeader(r)
	require.NoError(t, err)
	assert.Contains(t, header, `oauth_signature="41d8RYWC6C4BBNe1XyYPYnytsuE%3D"`)
	assert.Contains(t, header, `oauth_callback="https%3A%2F%2Fapp.example.com%2Fcb%3Fx%3Da%21b%27c%28d%29e%2Af"`)
	assert.NotContains(t, header, "oauth_token=")
}

func TestBaseString_NormalizesURL(t *testing.T) {
	params := url.Values{"b": {"2"}, "a": {"2", "1"}}

	base, err := BaseString("get", "HTTPS://API.Example.com:443/r%20v?c=3#frag", params)
	require.NoError(t, err)
	assert.Equal(t, "GET&https%3A%2F%2Fapi.example.com%2Fr%2520v&a%3D1%26a%3D2%26b%3D2%26c%3D3", base)

	base, err = BaseString("POST", "http://example.com:8080", nil)
	require.NoError(t, err)
	assert.Equal(t, "POST&http%3A%2F%2Fexample.com%3A8080%2F&", base)
}

func TestAuthorizationHeader_RandomNonce(t *testing.T) {
	s := &Signer{ConsumerKey: "k", ConsumerSecret: "s"}
	h1, err := s.AuthorizationHeader(Request{Method: "POST", URL: "https://example.com/x"})
	require.NoError(t, err)
	h2, err := s.AuthorizationHeader(Request{Method: "POST", URL: "https://example.com/x"})
	require.NoError(t, err)

	n1 := parseAuthHeader(t, h1)["oauth_nonce"]
	n2 := parseAuthHeader(t, h2)["oauth_nonce"]
	assert.Len(t, n1, 32)
	assert.NotEqual(t, n1, n2)
}
