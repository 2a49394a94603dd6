package oauth_test

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/jeremyhahn/go-socialauth/pkg/oauth"
	"github.com/jeremyhahn/go-socialauth/pkg/statestore"
	"github.com/jeremyhahn/go-socialauth/pkg/strategy"
)

type User struct {
	ID    string
	Email string
}

func ExampleNew_google() {
	s, err := oauth.New(oauth.Config{
		Provider:     &oauth.GoogleProvider{AccessType: "offline"},
		ClientID:     "your-client-id",
		ClientSecret: "your-client-secret",
		RedirectURI:  "https://app.example.com/auth/google/callback",
		Cookie:       statestore.CookieOptions{Secure: true},
	}, func(ctx context.Context, p strategy.VerifyParams) (*User, error) {
		return &User{ID: p.Profile.ProviderID, Email: p.Profile.Email}, nil
	})
	if err != nil {
		log.Fatal(err)
	}

	http.HandleFunc("/auth/google", func(w http.ResponseWriter, r *http.Request) {
		res := s.Authenticate(r.Context(), r)
		switch res.Outcome {
		case strategy.OutcomeRedirect:
			http.SetCookie(w, res.Cookie)
			http.Redirect(w, r, res.URL, http.StatusFound)
		case strategy.OutcomeFailed:
			http.Error(w, "login failed", http.StatusBadRequest)
		}
	})

	http.HandleFunc("/auth/google/callback", func(w http.ResponseWriter, r *http.Request) {
		res := s.Authenticate(r.Context(), r)
		if res.Outcome != strategy.OutcomeAuthenticated {
			var denied *oauth.ProviderDeniedError
			if errors.As(res.Err, &denied) {
				http.Error(w, denied.Description, http.StatusUnauthorized)
				return
			}
			http.Error(w, "login failed", http.StatusBadRequest)
			return
		}
		http.SetCookie(w, res.Cookie)
		fmt.Fprintf(w, "hello %s", res.User.Email)
	})
}

func ExampleDiscover() {
	ctx := context.Background()

	s, err := oauth.Discover(ctx, "https://accounts.google.com", oauth.Config{
		Provider:    oauth.Google(),
		ClientID:    "your-client-id",
		RedirectURI: "https://app.example.com/auth/google/callback",
		IDToken:     oauth.IDTokenConfig{JWKSURL: "https://www.googleapis.com/oauth2/v3/certs"},
	}, func(ctx context.Context, p strategy.VerifyParams) (*User, error) {
		return &User{ID: p.Profile.ProviderID}, nil
	})
	if err != nil {
		log.Printf("discovery failed: %v", err)
		return
	}
	defer s.Close()

	req, err := s.CreateAuthorizationURL()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(req.URL)
}
