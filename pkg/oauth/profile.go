package oauth

import (
	"encoding/json"
	"strconv"

	"github.com/jeremyhahn/go-socialauth/pkg/strategy"
)

// Normalizers map provider payloads onto strategy.Profile. They are pure and
// tolerate absent optional fields.

type oidcClaims struct {
	Sub               string `json:"sub"`
	PreferredUsername string `json:"preferred_username"`
	Name              string `json:"name"`
	GivenName         string `json:"given_name"`
	FamilyName        string `json:"family_name"`
	Email             string `json:"email"`
	EmailVerified     any    `json:"email_verified"`
	Picture           string `json:"picture"`
	Locale            string `json:"locale"`
	Zoneinfo          string `json:"zoneinfo"`
}

// NormalizeOIDC maps standard OpenID Connect claims (userinfo or id_token).
func NormalizeOIDC(provider string, body []byte) (*strategy.Profile, error) {
	var c oidcClaims
	if err := json.Unmarshal(body, &c); err != nil {
		return nil, unexpectedProfile(body, err)
	}
	if c.Sub == "" {
		return nil, unexpectedProfile(body, errMissingField("sub"))
	}

	name := c.Name
	if name == "" && (c.GivenName != "" || c.FamilyName != "") {
		name = joinNonEmpty(c.GivenName, c.FamilyName)
	}

	username := c.PreferredUsername
	if username == "" {
		username = strategy.EmailLocalPart(c.Email)
	}

	return &strategy.Profile{
		Provider:      provider,
		ProviderID:    c.Sub,
		Username:      username,
		Name:          name,
		Email:         c.Email,
		EmailVerified: truthy(c.EmailVerified),
		Photo:         c.Picture,
		Location:      c.Zoneinfo,
		Raw:           rawMap(body),
	}, nil
}

// NormalizeGoogle maps Google's userinfo response. Google has no username, so
// the email's local part is used.
func NormalizeGoogle(body []byte) (*strategy.Profile, error) {
	p, err := NormalizeOIDC("google", body)
	if err != nil {
		return nil, err
	}
	p.Username = strategy.EmailLocalPart(p.Email)
	if p.Location == "" {
		if locale, ok := p.Raw["locale"].(string); ok {
			p.Location = locale
		}
	}
	return p, nil
}

type githubUser struct {
	ID                int64  `json:"id"`
	Login             string `json:"login"`
	Name              string `json:"name"`
	Email             string `json:"email"`
	NotificationEmail string `json:"notification_email"`
	AvatarURL         string `json:"avatar_url"`
	Bio               string `json:"bio"`
	Location          string `json:"location"`
}

// NormalizeGitHub maps GitHub's /user response. A private primary email is
// reported as null, so notification_email is used as fallback.
func NormalizeGitHub(body []byte) (*strategy.Profile, error) {
	var u githubUser
	if err := json.Unmarshal(body, &u); err != nil {
		return nil, unexpectedProfile(body, err)
	}
	if u.ID == 0 {
		return nil, unexpectedProfile(body, errMissingField("id"))
	}

	email := u.Email
	if email == "" {
		email = u.NotificationEmail
	}

	return &strategy.Profile{
		Provider:   "github",
		ProviderID: strconv.FormatInt(u.ID, 10),
		Username:   u.Login,
		Name:       u.Name,
		Email:      email,
		Photo:      u.AvatarURL,
		Bio:        u.Bio,
		Location:   u.Location,
		Raw:        rawMap(body),
	}, nil
}

type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

// selectGitHubEmail picks the primary verified address, else any verified one.
func selectGitHubEmail(body []byte) (string, bool) {
	var emails []githubEmail
	if err := json.Unmarshal(body, &emails); err != nil {
		return "", false
	}
	for _, e := range emails {
		if e.Primary && e.Verified {
			return e.Email, true
		}
	}
	for _, e := range emails {
		if e.Verified {
			return e.Email, true
		}
	}
	return "", false
}

type facebookUser struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Picture  struct {
		Data struct {
			URL string `json:"url"`
		} `json:"data"`
	} `json:"picture"`
	Location struct {
		Name string `json:"name"`
	} `json:"location"`
}

// NormalizeFacebook maps a Graph API /me response. Facebook exposes no username,
// so one is derived from the email's local part.
func NormalizeFacebook(body []byte) (*strategy.Profile, error) {
	var u facebookUser
	if err := json.Unmarshal(body, &u); err != nil {
		return nil, unexpectedProfile(body, err)
	}
	if u.ID == "" {
		return nil, unexpectedProfile(body, errMissingField("id"))
	}

	return &strategy.Profile{
		Provider:      "facebook",
		ProviderID:    u.ID,
		Username:      strategy.EmailLocalPart(u.Email),
		Name:          u.Name,
		Email:         u.Email,
		EmailVerified: u.Email != "",
		Photo:         u.Picture.Data.URL,
		Location:      u.Location.Name,
		Raw:           rawMap(body),
	}, nil
}

type missingFieldError string

func (e missingFieldError) Error() string { return "missing field " + string(e) }

func errMissingField(name string) error { return missingFieldError(name) }

func unexpectedProfile(body []byte, err error) error {
	return &strategy.UnexpectedResponseError{
		StatusCode: 200,
		Body:       string(body),
		Reason:     "invalid profile: " + err.Error(),
	}
}

func rawMap(body []byte) map[string]any {
	m := map[string]any{}
	_ = json.Unmarshal(body, &m)
	return m
}

// truthy accepts both boolean and string encodings; some providers send
// email_verified as "true".
func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		b, _ := strconv.ParseBool(t)
		return b
	default:
		return false
	}
}

func joinNonEmpty(parts ...string) string {
	out := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if out != "" {
			out += " "
		}
		out += p
	}
	return out
}
