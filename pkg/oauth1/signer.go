package oauth1

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

const signatureMethod = "HMAC-SHA1"

// Signer produces RFC 5849 HMAC-SHA1 signatures and Authorization headers.
// Now and Nonce may be replaced for deterministic output.
type Signer struct {
	ConsumerKey    string
	ConsumerSecret string

	// Now defaults to time.Now.
	Now func() time.Time

	// Nonce defaults to 16 random bytes, hex encoded.
	Nonce func() string
}

// Request describes a request to sign.
type Request struct {
	Method string

	// URL may carry query parameters; they are included in the signature.
	URL string

	// Form holds application/x-www-form-urlencoded body parameters.
	Form url.Values

	// Token and TokenSecret are empty when requesting a temporary token.
	Token       string
	TokenSecret string

	// OAuth holds extra protocol parameters such as oauth_callback or
	// oauth_verifier.
	OAuth map[string]string
}

// AuthorizationHeader signs r and returns the value of its Authorization header.
func (s *Signer) AuthorizationHeader(r Request) (string, error) {
	oauthParams := s.protocolParams(r)

	base, err := BaseString(r.Method, r.URL, mergeParams(r, oauthParams))
	if err != nil {
		return "", err
	}
	oauthParams["oauth_signature"] = Signature(base, s.ConsumerSecret, r.TokenSecret)

	keys := make([]string, 0, len(oauthParams))
	for k := range oauthParams {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, PercentEncode(k)+`="`+PercentEncode(oauthParams[k])+`"`)
	}
	return "OAuth " + strings.Join(parts, ", "), nil
}

func (s *Signer) protocolParams(r Request) map[string]string {
	p := map[string]string{
		"oauth_consumer_key":     s.ConsumerKey,
		"oauth_nonce":            s.nonce(),
		"oauth_signature_method": signatureMethod,
		"oauth_timestamp":        strconv.FormatInt(s.now().Unix(), 10),
		"oauth_version":          "1.0",
	}
	if r.Token != "" {
		p["oauth_token"] = r.Token
	}
	for k, v := range r.OAuth {
		p[k] = v
	}
	return p
}

func (s *Signer) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Signer) nonce() string {
	if s.Nonce != nil {
		return s.Nonce()
	}
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func mergeParams(r Request, oauthParams map[string]string) url.Values {
	all := url.Values{}
	for k, vs := range r.Form {
		all[k] = append(all[k], vs...)
	}
	for k, v := range oauthParams {
		all.Add(k, v)
	}
	return all
}

// BaseString builds the RFC 5849 §3.4.1 signature base string. Query
// parameters of rawURL are merged with params.
func BaseString(method, rawURL string, params url.Values) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}

	all := url.Values{}
	for k, vs := range u.Query() {
		all[k] = append(all[k], vs...)
	}
	for k, vs := range params {
		all[k] = append(all[k], vs...)
	}

	return strings.ToUpper(method) + "&" +
		PercentEncode(baseURI(u)) + "&" +
		PercentEncode(normalizeParams(all)), nil
}

// baseURI lowercases scheme and host and drops default ports, query and fragment.
func baseURI(u *url.URL) string {
	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	if port := u.Port(); port != "" && !(scheme == "http" && port == "80") && !(scheme == "https" && port == "443") {
		host += ":" + port
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	return scheme + "://" + host + path
}

// normalizeParams encodes each pair, sorts by name then value and joins them.
func normalizeParams(params url.Values) string {
	type pair struct{ k, v string }
	pairs := make([]pair, 0, len(params))
	for k, vs := range params {
		if k == "oauth_signature" {
			continue
		}
		for _, v := range vs {
			pairs = append(pairs, pair{PercentEncode(k), PercentEncode(v)})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].k != pairs[j].k {
			return pairs[i].k < pairs[j].k
		}
		return pairs[i].v < pairs[j].v
	})

	parts := make([]string, len(pairs))
	for i, p := range pairs {
		parts[i] = p.k + "=" + p.v
	}
	return strings.Join(parts, "&")
}

// Signature returns base64(HMAC-SHA1(key, base)) with key
// enc(consumerSecret)&enc(tokenSecret).
func Signature(base, consumerSecret, tokenSecret string) string {
	key := PercentEncode(consumerSecret) + "&" + PercentEncode(tokenSecret)
	mac := hmac.New(sha1.New, []byte(key))
	mac.Write([]byte(base))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// PercentEncode applies RFC 3986 encoding: everything except ALPHA, DIGIT and
// "-._~" is escaped, including "!'()*". Spaces become %20, never "+".
func PercentEncode(s string) string {
	const hexDigits = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hexDigits[c>>4])
		b.WriteByte(hexDigits[c&0x0f])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	return 'A' <= c && c <= 'Z' ||
		'a' <= c && c <= 'z' ||
		'0' <= c && c <= '9' ||
		c == '-' || c == '.' || c == '_' || c == '~'
}
