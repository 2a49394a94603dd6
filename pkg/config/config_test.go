package config

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/go-socialauth/pkg/statestore"
)

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"SOCIALAUTH_GOOGLE_CLIENT_ID": "google-id",
	})
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "http://localhost:8080", cfg.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.True(t, cfg.Cookie.Secure)
	assert.Equal(t, 10*time.Minute, cfg.Cookie.MaxAge)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.True(t, cfg.Google.Enabled())
	assert.False(t, cfg.GitHub.Enabled())
	assert.False(t, cfg.Twitter.Enabled())

	codec, err := cfg.Codec()
	require.NoError(t, err)
	assert.IsType(t, statestore.PlainCodec{}, codec)
}

func TestLoadFrom_AllProviders(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"SOCIALAUTH_BASE_URL":                "https://app.example.com/",
		"SOCIALAUTH_LOG_FORMAT":              "console",
		"SOCIALAUTH_COOKIE_SECURE":           "false",
		"SOCIALAUTH_COOKIE_MAX_AGE":          "5m",
		"SOCIALAUTH_GOOGLE_CLIENT_ID":        "google-id",
		"SOCIALAUTH_GOOGLE_SCOPES":           "openid,email",
		"SOCIALAUTH_GITHUB_CLIENT_ID":        "gh-id",
		"SOCIALAUTH_GITHUB_CLIENT_SECRET":    "gh-secret",
		"SOCIALAUTH_FACEBOOK_CLIENT_ID":      "fb-id",
		"SOCIALAUTH_FACEBOOK_CLIENT_SECRET":  "fb-secret",
		"SOCIALAUTH_TWITTER_CONSUMER_KEY":    "tw-key",
		"SOCIALAUTH_TWITTER_CONSUMER_SECRET": "tw-secret",
	})
	require.NoError(t, err)

	assert.Equal(t, "https://app.example.com", cfg.BaseURL)
	assert.Equal(t, "https://app.example.com/auth/github/callback", cfg.CallbackURL("github"))
	assert.Equal(t, []string{"openid", "email"}, cfg.Google.Scopes)
	assert.True(t, cfg.Twitter.Enabled())

	opts := cfg.CookieOptions()
	assert.False(t, opts.Secure)
	assert.Equal(t, 5*time.Minute, opts.MaxAge)
}

func TestLoadFrom_SecureCodec(t *testing.T) {
	hashKey := base64.StdEncoding.EncodeToString([]byte(strings.Repeat("h", 32)))
	blockKey := base64.StdEncoding.EncodeToString([]byte(strings.Repeat("b", 16)))

	cfg, err := LoadFrom(map[string]string{
		"SOCIALAUTH_GOOGLE_CLIENT_ID": "google-id",
		"SOCIALAUTH_COOKIE_HASH_KEY":  hashKey,
		"SOCIALAUTH_COOKIE_BLOCK_KEY": blockKey,
	})
	require.NoError(t, err)

	codec, err := cfg.Codec()
	require.NoError(t, err)
	assert.IsType(t, &statestore.SecureCodec{}, codec)
}

func TestLoadFrom_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		environ map[string]string
		wantErr error
	}{
		{
			name:    "no providers",
			environ: map[string]string{},
			wantErr: ErrNoProviders,
		},
		{
			name:    "relative base url",
			environ: map[string]string{"SOCIALAUTH_GOOGLE_CLIENT_ID": "id", "SOCIALAUTH_BASE_URL": "/app"},
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "github without secret",
			environ: map[string]string{"SOCIALAUTH_GITHUB_CLIENT_ID": "id"},
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "twitter without secret",
			environ: map[string]string{"SOCIALAUTH_TWITTER_CONSUMER_KEY": "key"},
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "bad log level",
			environ: map[string]string{"SOCIALAUTH_GOOGLE_CLIENT_ID": "id", "SOCIALAUTH_LOG_LEVEL": "loud"},
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "bad log format",
			environ: map[string]string{"SOCIALAUTH_GOOGLE_CLIENT_ID": "id", "SOCIALAUTH_LOG_FORMAT": "xml"},
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "cookie max age too long",
			environ: map[string]string{"SOCIALAUTH_GOOGLE_CLIENT_ID": "id", "SOCIALAUTH_COOKIE_MAX_AGE": "1h"},
			wantErr: ErrInvalidConfig,
		},
		{
			name: "short hash key",
			environ: map[string]string{
				"SOCIALAUTH_GOOGLE_CLIENT_ID": "id",
				"SOCIALAUTH_COOKIE_HASH_KEY":  base64.StdEncoding.EncodeToString([]byte("short")),
			},
			wantErr: ErrInvalidConfig,
		},
		{
			name: "block key without hash key",
			environ: map[string]string{
				"SOCIALAUTH_GOOGLE_CLIENT_ID": "id",
				"SOCIALAUTH_COOKIE_BLOCK_KEY": base64.StdEncoding.EncodeToString([]byte(strings.Repeat("b", 16))),
			},
			wantErr: ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFrom(tt.environ)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNewLogger(t *testing.T) {
	for _, format := range []string{"json", "console", ""} {
		logger, err := NewLogger(LogConfig{Level: "debug", Format: format})
		require.NoError(t, err, format)
		assert.True(t, logger.Core().Enabled(-1), "debug should be enabled for %q", format)
	}

	_, err := NewLogger(LogConfig{Level: "nope"})
	assert.Error(t, err)

	_, err = NewLogger(LogConfig{Level: "info", Format: "xml"})
	assert.Error(t, err)
}
