package main

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/jeremyhahn/go-socialauth/pkg/strategy"
)

// User is the demo application's account record.
type User struct {
	ID         uuid.UUID `json:"id"`
	Provider   string    `json:"provider"`
	ProviderID string    `json:"provider_id"`
	Username   string    `json:"username,omitempty"`
	Name       string    `json:"name,omitempty"`
	Email      string    `json:"email,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	LastLogin  time.Time `json:"last_login"`
}

var errIncompleteProfile = errors.New("socialauth: profile has no provider identity")

// directory is an in-memory user store keyed by provider identity.
type directory struct {
	mu    sync.Mutex
	users map[string]*User
	now   func() time.Time
}

func newDirectory() *directory {
	return &directory{users: make(map[string]*User), now: time.Now}
}

// Verify links the provider identity to a local user, creating one on first login.
func (d *directory) Verify(_ context.Context, p strategy.VerifyParams) (*User, error) {
	if p.Profile == nil || p.Profile.Provider == "" || p.Profile.ProviderID == "" {
		return nil, errIncompleteProfile
	}
	key := p.Profile.Provider + ":" + p.Profile.ProviderID
	now := d.now()

	d.mu.Lock()
	defer d.mu.Unlock()

	u, ok := d.users[key]
	if !ok {
		id, err := uuid.NewV7()
		if err != nil {
			return nil, err
		}
		u = &User{
			ID:         id,
			Provider:   p.Profile.Provider,
			ProviderID: p.Profile.ProviderID,
			CreatedAt:  now,
		}
		d.users[key] = u
	}

	u.Username = p.Profile.Username
	u.Name = p.Profile.Name
	u.Email = p.Profile.Email
	u.LastLogin = now

	out := *u
	return &out, nil
}

// Len returns the number of known users.
func (d *directory) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.users)
}
