package strategy

import "strings"

// Profile is the canonical identity every provider payload is normalized into.
type Profile struct {
	Provider      string
	ProviderID    string
	Username      string
	Name          string
	Email         string
	EmailVerified bool
	Photo         string
	Bio           string
	Location      string

	// Raw is the decoded provider payload, for fields the canonical shape drops.
	Raw map[string]any
}

// EmailLocalPart returns the part of an address before the last '@', or "" when
// the address is empty or malformed.
func EmailLocalPart(email string) string {
	i := strings.LastIndexByte(email, '@')
	if i <= 0 {
		return ""
	}
	return email[:i]
}
