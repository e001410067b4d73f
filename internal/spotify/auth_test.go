package spotify

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"curator/internal/shared"
)

func TestTokenCache(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		cache := NewTokenCache(filepath.Join(t.TempDir(), "nested", "token.json"))

		token := &oauth2.Token{
			AccessToken:  "access",
			RefreshToken: "refresh",
			TokenType:    "Bearer",
			Expiry:       time.Now().Add(time.Hour).UTC(),
		}
		if err := cache.Save(token); err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		loaded, err := cache.Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if loaded == nil {
			t.Fatal("Load() returned nil for a saved token")
		}
		if loaded.AccessToken != "access" || loaded.RefreshToken != "refresh" {
			t.Errorf("Load() = %+v, want saved token", loaded)
		}
	})

	t.Run("missing file is not an error", func(t *testing.T) {
		cache := NewTokenCache(filepath.Join(t.TempDir(), "token.json"))

		token, err := cache.Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if token != nil {
			t.Errorf("Load() = %+v, want nil for a missing file", token)
		}
	})

	t.Run("nil token is rejected", func(t *testing.T) {
		cache := NewTokenCache(filepath.Join(t.TempDir(), "token.json"))

		if err := cache.Save(nil); err == nil {
			t.Error("Save(nil) should fail")
		}
	})
}

func TestNewAuthenticator(t *testing.T) {
	t.Run("missing credentials", func(t *testing.T) {
		cfg := shared.DefaultConfig()
		cfg.Credentials.Spotify.ClientID = ""
		cfg.Credentials.Spotify.ClientSecret = ""

		_, err := NewAuthenticator(cfg, nil)
		if !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("NewAuthenticator() error = %v, want %v", err, shared.ErrInvalidConfig)
		}
	})

	t.Run("configured credentials", func(t *testing.T) {
		cfg := shared.DefaultConfig()
		cfg.Credentials.Spotify.ClientID = "id"
		cfg.Credentials.Spotify.ClientSecret = "secret"

		auth, err := NewAuthenticator(cfg, nil)
		if err != nil {
			t.Fatalf("NewAuthenticator() error = %v", err)
		}
		if auth.redirectURI != "http://127.0.0.1:8080/callback" {
			t.Errorf("redirectURI = %s, want the config default", auth.redirectURI)
		}
	})
}
